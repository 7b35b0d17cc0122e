package main

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jlipinski/glean"
	"github.com/jlipinski/glean/chunk"
	"github.com/jlipinski/glean/extract"
)

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	schema, err := LoadSchemaFile(c.Schema)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", glean.ErrorMessage(err))
		return err
	}
	schema.Strict = c.Strict

	urls, err := resolvePageURLs(deps, c.URLs, c.PageFlags)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		fmt.Fprintf(deps.Stderr, "error: no pages to extract from\n")
		return glean.Errorf(glean.EINVALID, "no pages to extract from: pass URLs or --from-sitemap")
	}

	begin := time.Now()

	progress := func(p glean.FetchProgress) {
		if p.Error != nil {
			fmt.Fprintf(deps.Stderr, "  skip %s: %v\n", p.URL, p.Error)
		}
	}
	pages, err := deps.Loader.LoadAll(deps.Ctx, urls, progress)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", glean.ErrorMessage(err))
		return err
	}
	if len(pages) == 0 {
		fmt.Fprintln(deps.Stderr, "error: no pages loaded")
		return glean.Errorf(glean.EUNAVAILABLE, "no pages loaded")
	}

	document := glean.FormatPages(pages)

	synth := &extract.Synthesizer{
		Responder: &extract.Responder{
			Completer: deps.Completer,
			Validator: deps.Validator,
			Reflector: &extract.Reflector{
				Completer:   deps.Completer,
				Validator:   deps.Validator,
				MaxAttempts: c.MaxAttempts,
				Logger:      deps.Logger,
			},
		},
		Chunker:    chunk.NewSplitter(deps.Counter),
		ChunkSize:  c.ChunkTokens,
		Merge:      glean.AppendMerge(c.MergeField),
		Concurrent: !c.Sequential,
	}

	result, err := synth.Synthesize(deps.Ctx, c.Query, []string{document}, schema)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", glean.ErrorMessage(err))
		return err
	}

	duration := time.Since(begin)

	// The aggregate goes to stdout so it can be piped; everything else,
	// including the summary, goes to stderr.
	if result.Output == "" {
		fmt.Fprintln(deps.Stderr, "no chunk produced a schema-valid value")
	} else {
		fmt.Fprintln(deps.Stdout, result.Output)
	}

	fmt.Fprintf(deps.Stderr, "%d pages, %d/%d chunks merged (%d empty) in %s\n",
		len(pages), result.ChunksMerged, result.ChunksTotal, result.ChunksEmpty,
		duration.Round(time.Millisecond))

	if c.NoSave {
		return nil
	}

	run := &glean.Run{
		SourceURL:    strings.Join(urls, "\n"),
		SchemaName:   schema.Name,
		SchemaHash:   schema.Hash(),
		Model:        deps.Model,
		Output:       result.Output,
		ChunksTotal:  result.ChunksTotal,
		ChunksMerged: result.ChunksMerged,
		ChunksEmpty:  result.ChunksEmpty,
		Duration:     duration,
	}
	if err := deps.Runs.CreateRun(deps.Ctx, run); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", glean.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stderr, "saved run %s\n", run.ID)

	return nil
}

// resolvePageURLs combines explicit page URLs with sitemap discovery.
func resolvePageURLs(deps *Dependencies, explicit []string, flags PageFlags) ([]string, error) {
	urls := append([]string(nil), explicit...)

	if flags.FromSitemap == "" {
		return urls, nil
	}

	// Compile filters to URLFilter (validates regex patterns early)
	var filter *glean.URLFilter
	if len(flags.Filter) > 0 {
		filter = &glean.URLFilter{}
		for _, pattern := range flags.Filter {
			re, err := regexp.Compile(pattern)
			if err != nil {
				fmt.Fprintf(deps.Stderr, "error: invalid filter pattern %q: %v\n", pattern, err)
				return nil, err
			}
			filter.Include = append(filter.Include, re)
		}
	}

	discovered, err := deps.Sitemaps.DiscoverURLs(deps.Ctx, flags.FromSitemap, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", glean.ErrorMessage(err))
		return nil, err
	}
	if flags.MaxPages > 0 && len(discovered) > flags.MaxPages {
		discovered = discovered[:flags.MaxPages]
	}
	fmt.Fprintf(deps.Stderr, "found %d pages\n", len(discovered))

	return append(urls, discovered...), nil
}
