package main

import (
	"fmt"

	"github.com/JakeFAU/productscraper/internal/app"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	if c.Pages != nil && *c.Pages < 0 {
		return fmt.Errorf("--pages must be >= 0")
	}

	summary, err := deps.App.Crawl(deps.Ctx, app.CrawlOptions{
		PageCount: c.Pages,
		Proxy:     c.Proxy,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}

	res := summary.Crawl
	if !summary.Stored {
		fmt.Fprintln(deps.Stdout, "No products were scraped.")
		return nil
	}

	fmt.Fprintf(deps.Stdout, "Scraped %d products from %d pages (stopped: %s).\n",
		len(res.Products), res.Pages, res.Reason)
	if res.Err != nil {
		fmt.Fprintf(deps.Stdout, "Crawl ended early: %v\n", res.Err)
	}
	fmt.Fprintf(deps.Stdout, "%d products added or updated, %d unchanged in %s.\n",
		summary.Write.Changed(), summary.Write.Unchanged, deps.App.Store().Path())
	if summary.Write.Rejected > 0 {
		fmt.Fprintf(deps.Stdout, "%d invalid products rejected.\n", summary.Write.Rejected)
	}
	if summary.Mirror != nil {
		fmt.Fprintf(deps.Stdout, "Mirrored to Postgres: %d upserted, %d unchanged.\n",
			summary.Mirror.Upserted, summary.Mirror.Unchanged)
	}
	return nil
}
