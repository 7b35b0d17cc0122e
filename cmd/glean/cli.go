package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/jlipinski/glean"
	"github.com/jlipinski/glean/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdout    io.Writer
	Stderr    io.Writer
	DB        *sqlite.DB
	Runs      glean.RunService
	Sitemaps  glean.SitemapService
	Loader    glean.PageLoader
	Store     glean.PageStore
	Completer glean.Completer
	Validator glean.SchemaValidator
	Counter   glean.TokenCounter
	Model     string
	Logger    *slog.Logger
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Extract ExtractCmd `cmd:"" help:"Extract structured data from web pages"`
	Fetch   FetchCmd   `cmd:"" help:"Fetch pages and print the markdown extraction would see"`
	Check   CheckCmd   `cmd:"" help:"Validate a schema file"`
	Runs    RunsCmd    `cmd:"" help:"List recorded extraction runs"`
	Show    ShowCmd    `cmd:"" help:"Show a recorded run"`
	Delete  DeleteCmd  `cmd:"" help:"Delete a recorded run"`
}

// PageFlags are the page loading flags shared by extract and fetch.
type PageFlags struct {
	FromSitemap string   `help:"Discover page URLs from this site's sitemap"`
	Filter      []string `short:"F" name:"filter" help:"Filter sitemap URLs by regex (repeatable)"`
	MaxPages    int      `help:"Limit pages taken from sitemap discovery (0 = no limit)"`
	Render      bool     `help:"Render pages with headless Chrome"`
	Engine      string   `default:"trafilatura" enum:"trafilatura,readability,goquery" help:"Content extraction engine"`
	Concurrency int      `short:"c" default:"10" help:"Concurrent page fetch limit"`
	Verbose     bool     `short:"v" help:"Log pipeline activity to stderr"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	Schema string   `arg:"" help:"Schema file (JSON or YAML)"`
	URLs   []string `arg:"" optional:"" name:"url" help:"Page URLs to extract from"`

	PageFlags `embed:""`

	Provider    string  `default:"ollama" enum:"ollama,gemini,openai" help:"Model provider"`
	Model       string  `help:"Model name (provider default when empty)"`
	Query       string  `short:"q" default:"Extract all records matching the schema from the context information." help:"Extraction instruction given to the model"`
	MergeField  string  `default:"records" help:"Array field concatenated across chunks"`
	ChunkTokens int     `default:"3000" help:"Token budget per chunk"`
	MaxAttempts int     `default:"3" help:"Model attempts per chunk before giving up"`
	Sequential  bool    `help:"Evaluate chunks one at a time"`
	Strict      bool    `help:"Reject fields the schema does not declare"`
	RPS         float64 `name:"rps" help:"Model requests per second (0 = unlimited)"`
	NoSave      bool    `help:"Skip recording the run"`
}

// FetchCmd is the "fetch" subcommand.
type FetchCmd struct {
	URLs []string `arg:"" optional:"" name:"url" help:"Page URLs"`

	PageFlags `embed:""`

	Out string `short:"o" help:"Write pages as markdown files into this directory instead of printing"`
}

// CheckCmd is the "check" subcommand.
type CheckCmd struct {
	Schema string `arg:"" help:"Schema file (JSON or YAML)"`
}

// RunsCmd is the "runs" subcommand.
type RunsCmd struct {
	SchemaName string `name:"schema" help:"Only show runs for this schema"`
	Limit      int    `default:"20" help:"Maximum runs to list (0 = no limit)"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	ID     string `arg:"" help:"Run ID"`
	Output bool   `help:"Print only the stored output"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	ID    string `arg:"" help:"Run ID"`
	Force bool   `help:"Confirm deletion"`
}
