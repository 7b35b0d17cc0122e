package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/jlipinski/glean"
	"github.com/jlipinski/glean/extract"
	"github.com/jlipinski/glean/fetch"
	"github.com/jlipinski/glean/fs"
	"github.com/jlipinski/glean/gemini"
	"github.com/jlipinski/glean/goquery"
	"github.com/jlipinski/glean/htmltomarkdown"
	gleanhttp "github.com/jlipinski/glean/http"
	"github.com/jlipinski/glean/jsonschema"
	"github.com/jlipinski/glean/ollama"
	"github.com/jlipinski/glean/openai"
	"github.com/jlipinski/glean/readability"
	"github.com/jlipinski/glean/rod"
	gleanslog "github.com/jlipinski/glean/slog"
	"github.com/jlipinski/glean/sqlite"
	"github.com/jlipinski/glean/tiktoken"
	"github.com/jlipinski/glean/trafilatura"
	"google.golang.org/genai"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Run storage, for end-to-end testing.
	RunService glean.RunService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Initialize dependencies struct for Kong binding
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	// Create Kong parser with dependency binding
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("glean"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle help flags using Kong
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'glean --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	// Parse arguments first to know which command and its flags
	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.Validator = jsonschema.NewValidator()

	// check and fetch never touch stored runs; everything else does
	if cmd != "check" && cmd != "fetch" {
		m.DB = sqlite.NewDB(m.DBPath)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintf(stderr, "Hint: Set GLEAN_DB to use a different database path\n")
			return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
		}
		defer m.Close()

		m.RunService = sqlite.NewRunService(m.DB)
		deps.DB = m.DB
		deps.Runs = m.RunService
	}

	// Wire the page pipeline for commands that load pages
	switch cmd {
	case "extract":
		cleanup, err := wirePagePipeline(deps, cli.Extract.PageFlags, stderr)
		if err != nil {
			return err
		}
		defer cleanup()

		completer, model, err := newCompleter(ctx, cli.Extract.Provider, cli.Extract.Model, stderr)
		if err != nil {
			return err
		}
		if cli.Extract.Verbose {
			completer = gleanslog.NewLoggingCompleter(completer, deps.Logger)
		}
		if cli.Extract.RPS > 0 {
			completer = extract.NewRateLimitedCompleter(completer, cli.Extract.RPS)
		}
		deps.Completer = completer
		deps.Model = model
		deps.Counter = newTokenCounter(cli.Extract.Provider, model)

	case "fetch":
		cleanup, err := wirePagePipeline(deps, cli.Fetch.PageFlags, stderr)
		if err != nil {
			return err
		}
		defer cleanup()

		if out := cli.Fetch.Out; out != "" {
			deps.Store = fs.NewFileStore(filepath.Dir(out), filepath.Base(out))
		}
	}

	return kongCtx.Run(deps)
}

// fetchRPS spaces page fetches at one request per second per domain.
const fetchRPS = 1.0

// wirePagePipeline builds the sitemap, fetcher and loader stack shared by
// the extract and fetch commands. The returned cleanup stops the fetcher.
func wirePagePipeline(deps *Dependencies, flags PageFlags, stderr io.Writer) (func(), error) {
	logger := newLogger(stderr, flags.Verbose)
	deps.Logger = logger

	deps.Sitemaps = gleanhttp.NewSitemapService(nil)
	if flags.Verbose {
		deps.Sitemaps = gleanslog.NewLoggingSitemapService(deps.Sitemaps, logger)
	}

	var fetcher glean.Fetcher
	if flags.Render {
		rodFetcher, err := rod.NewFetcher()
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
		fetcher = rodFetcher
	} else {
		fetcher = gleanhttp.NewFetcher()
	}
	if flags.Verbose {
		fetcher = gleanslog.NewLoggingFetcher(fetcher, logger)
	}

	extractor, err := newExtractor(flags.Engine)
	if err != nil {
		fetcher.Close()
		return nil, err
	}

	deps.Loader = &fetch.Loader{
		Fetcher:     fetcher,
		Extractor:   extractor,
		Converter:   htmltomarkdown.NewConverter(),
		Limiter:     fetch.NewDomainLimiter(fetchRPS),
		Concurrency: flags.Concurrency,
	}

	return func() { fetcher.Close() }, nil
}

func defaultDBPath() string {
	if path := os.Getenv("GLEAN_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "glean.db"
	}
	dir := filepath.Join(home, ".glean")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "glean.db")
}

// newLogger builds the stderr logger. Non-verbose runs only surface
// warnings; the pipeline decorators are not wired at all in that case.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newExtractor selects the content extraction engine.
func newExtractor(engine string) (glean.Extractor, error) {
	switch engine {
	case "trafilatura":
		return trafilatura.NewExtractor(), nil
	case "readability":
		return readability.NewExtractor(), nil
	case "goquery":
		return goquery.NewExtractor(), nil
	default:
		return nil, glean.Errorf(glean.EINVALID, "unknown extraction engine %q", engine)
	}
}

// newCompleter builds the model client for the selected provider and returns
// it together with the resolved model name.
func newCompleter(ctx context.Context, provider, model string, stderr io.Writer) (glean.Completer, string, error) {
	switch provider {
	case "ollama":
		if model == "" {
			model = ollama.DefaultModel
		}
		return ollama.NewCompleter(ollama.Config{
			Host:  os.Getenv("OLLAMA_HOST"),
			Model: model,
		}), model, nil

	case "gemini":
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
			return nil, "", fmt.Errorf("GEMINI_API_KEY not set")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
			return nil, "", fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		if model == "" {
			model = gemini.DefaultModel
		}
		return gemini.NewCompleter(client, model), model, nil

	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(stderr, "OPENAI_API_KEY environment variable not set. Get an API key at https://platform.openai.com/api-keys")
			return nil, "", fmt.Errorf("OPENAI_API_KEY not set")
		}
		if model == "" {
			model = openai.DefaultModel
		}
		return openai.NewCompleter(openai.Config{
			APIKey: apiKey,
			Model:  model,
		}), model, nil

	default:
		return nil, "", glean.Errorf(glean.EINVALID, "unknown provider %q", provider)
	}
}

// newTokenCounter picks the counter matching the provider's tokenizer.
// Chunk budgets tolerate a few percent of counting error, so a Gemini model
// the local tokenizer does not know falls back to a tiktoken approximation.
func newTokenCounter(provider, model string) glean.TokenCounter {
	if provider == "gemini" {
		if counter, err := gemini.NewTokenCounter(model); err == nil {
			return counter
		}
	}
	return tiktoken.NewTokenCounter(model)
}
