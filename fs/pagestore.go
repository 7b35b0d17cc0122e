// Package fs stores fetched pages as markdown files.
package fs

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/jlipinski/glean"
)

// Ensure FileStore implements glean.PageStore at compile time.
var _ glean.PageStore = (*FileStore)(nil)

// FileStore implements glean.PageStore with atomic update semantics.
// Pages are saved to a temporary directory, then moved into place on
// Commit, so an interrupted export never leaves a half-written tree.
type FileStore struct {
	baseDir string
	name    string
}

// NewFileStore creates a FileStore writing to baseDir/name. Saves stage
// files under baseDir/name.tmp until Commit.
func NewFileStore(baseDir, name string) *FileStore {
	return &FileStore{
		baseDir: baseDir,
		name:    name,
	}
}

func (s *FileStore) tempDir() string {
	return filepath.Join(s.baseDir, s.name+".tmp")
}

func (s *FileStore) finalDir() string {
	return filepath.Join(s.baseDir, s.name)
}

// Save writes the page to the staging directory.
func (s *FileStore) Save(ctx context.Context, page *glean.Page) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	relPath, err := URLToPath(page.URL)
	if err != nil {
		return err
	}

	fullPath := filepath.Join(s.tempDir(), relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	return os.WriteFile(fullPath, []byte(FormatPage(page)), 0644)
}

// Commit replaces the final directory with the staged one.
func (s *FileStore) Commit() error {
	if err := os.RemoveAll(s.finalDir()); err != nil {
		return err
	}

	return os.Rename(s.tempDir(), s.finalDir())
}

// Abort discards the staging directory.
func (s *FileStore) Abort() error {
	return os.RemoveAll(s.tempDir())
}

// FormatPage renders a page as markdown with YAML frontmatter.
func FormatPage(page *glean.Page) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("source: ")
	b.WriteString(page.URL)
	b.WriteString("\ntitle: ")
	b.WriteString(page.Title)
	b.WriteString("\nfetched: ")
	b.WriteString(time.Now().Format("2006-01-02"))
	b.WriteString("\n---\n\n")
	b.WriteString(page.Content)
	return b.String()
}

// URLToPath converts a page URL to a relative file path.
// https://shop.example/products/tents becomes products/tents.md. Listing
// pages often differ only by query string, so a query becomes part of
// the file name: /products?page=2 becomes products-page-2.md.
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	path := u.Path
	if path == "" || path == "/" {
		path = "/index"
	}
	path = strings.TrimPrefix(path, "/")
	if strings.HasSuffix(path, "/") {
		path += "index"
	}
	if u.RawQuery != "" {
		path += "-" + slugify(u.RawQuery)
	}

	return path + ".md", nil
}

// slugify lowercases letters and digits and collapses everything else
// into single hyphens.
func slugify(s string) string {
	var sb strings.Builder
	prevHyphen := false

	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			prevHyphen = false
		} else if !prevHyphen && sb.Len() > 0 {
			sb.WriteRune('-')
			prevHyphen = true
		}
	}

	return strings.TrimSuffix(sb.String(), "-")
}
