package main

import (
	"fmt"

	"github.com/jlipinski/glean"
)

// Run executes the fetch command. It loads pages through the same pipeline
// extract uses and prints the resulting markdown, which is the easiest way
// to see what a schema would be extracted from. With --out the pages are
// written as markdown files instead.
func (c *FetchCmd) Run(deps *Dependencies) error {
	urls, err := resolvePageURLs(deps, c.URLs, c.PageFlags)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		fmt.Fprintf(deps.Stderr, "error: no pages to fetch\n")
		return glean.Errorf(glean.EINVALID, "no pages to fetch: pass URLs or --from-sitemap")
	}

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

	if deps.Store != nil {
		if err := c.writePages(deps, pages); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", glean.ErrorMessage(err))
			return err
		}
		fmt.Fprintf(deps.Stderr, "wrote %d pages to %s\n", len(pages), c.Out)
		return nil
	}

	fmt.Fprintln(deps.Stdout, glean.FormatPages(pages))
	fmt.Fprintf(deps.Stderr, "%d pages\n", len(pages))
	return nil
}

// writePages stores every page, committing only when all saves succeed.
func (c *FetchCmd) writePages(deps *Dependencies, pages []*glean.Page) error {
	for _, page := range pages {
		if err := deps.Store.Save(deps.Ctx, page); err != nil {
			_ = deps.Store.Abort()
			return err
		}
	}
	return deps.Store.Commit()
}
