package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Adda-Baaj/preview-harvester/internal/app"
	"github.com/Adda-Baaj/preview-harvester/internal/logger"
)

// CrawlCmd runs one crawl pass.
type CrawlCmd struct {
	Provider []string `short:"p" help:"Provider IDs to crawl (default: all)."`
}

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	collector, err := app.NewCollector(deps.Config, deps.Stdout, logger.Default())
	if err != nil {
		return err
	}

	reports, err := collector.Crawl(deps.Ctx, c.Provider...)
	for _, r := range reports {
		fmt.Fprintf(deps.Stderr, "%s: fetched=%d fresh=%d published=%d failed=%d\n",
			r.ProviderID, r.Fetched, r.Fresh, r.Published, r.Failed)
	}
	if err != nil {
		return fmt.Errorf("crawl: %w", err)
	}
	return nil
}

// ExtractCmd runs the preview parser over a saved page.
type ExtractCmd struct {
	Provider string `short:"p" required:"" help:"Provider ID whose layout table is used."`
	File     string `short:"f" required:"" type:"existingfile" help:"Saved listing page (HTML)."`
}

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	body, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.File, err)
	}

	collector, err := app.NewCollector(deps.Config, deps.Stdout, logger.Default())
	if err != nil {
		return err
	}
	res, err := collector.Extract(c.Provider, body)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	enc := json.NewEncoder(deps.Stdout)
	for _, p := range res.Previews {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("write preview: %w", err)
		}
	}
	fmt.Fprintf(deps.Stderr, "variant=%d blocks=%d skipped=%d previews=%d\n",
		res.Variant, res.Blocks, res.Skipped, len(res.Previews))
	return nil
}
