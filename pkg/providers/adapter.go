package providers

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/Adda-Baaj/preview-harvester/pkg/datefmt"
	"github.com/Adda-Baaj/preview-harvester/pkg/layout"
	"github.com/Adda-Baaj/preview-harvester/pkg/preview"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// Adapter binds a preview_page provider to the preview parser.
type Adapter struct {
	provider Provider
	parser   *preview.Parser
}

// NewAdapter builds the site description of p and a parser for it.
func NewAdapter(p Provider, opts ...preview.Option) (*Adapter, error) {
	site, err := SiteFor(p)
	if err != nil {
		return nil, err
	}
	parser, err := preview.NewParser(site, opts...)
	if err != nil {
		return nil, fmt.Errorf("provider %q: %w", p.ID, err)
	}
	return &Adapter{provider: p, parser: parser}, nil
}

// SiteFor translates the provider's preview config into a preview.Site.
func SiteFor(p Provider) (preview.Site, error) {
	if p.Preview == nil {
		return preview.Site{}, fmt.Errorf("provider %q has no preview config", p.ID)
	}
	cfg := *p.Preview

	dates, err := DateNormalizer(cfg)
	if err != nil {
		return preview.Site{}, fmt.Errorf("provider %q: %w", p.ID, err)
	}

	var variants []layout.Variant
	if cfg.DateVariants != nil {
		variants = make([]layout.Variant, 0, len(cfg.DateVariants))
		for _, v := range cfg.DateVariants {
			variants = append(variants, layout.Variant(v))
		}
	}

	return preview.Site{
		ID:           p.ID,
		BaseAddress:  cfg.BaseAddress,
		Dates:        dates,
		Layouts:      layout.NewTable(cfg.Layouts...),
		DateVariants: variants,
	}, nil
}

// DateNormalizer builds the site's date normalizer. An empty timezone means UTC.
func DateNormalizer(cfg PreviewConfig) (*datefmt.Normalizer, error) {
	loc := time.UTC
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
		}
		loc = l
	}
	return datefmt.New(cfg.DateFormat,
		datefmt.WithLocation(loc),
		datefmt.WithLocale(datefmt.LookupLocale(cfg.Locale)),
	), nil
}

// Provider returns the provider the adapter was built from.
func (a *Adapter) Provider() Provider { return a.provider }

// Parser returns the bound parser.
func (a *Adapter) Parser() *preview.Parser { return a.parser }

// Extract parses a listing page body and runs the preview extraction.
func (a *Adapter) Extract(body []byte) (preview.Result, error) {
	doc, err := goquery.NewDocumentFromReader(utf8Reader(body))
	if err != nil {
		return preview.Result{Variant: layout.NoVariant}, fmt.Errorf("parse %s listing page: %w", a.provider.ID, err)
	}
	return a.parser.Extract(doc)
}

// utf8Reader decodes pages that declare a legacy charset in a BOM or meta tag.
func utf8Reader(body []byte) io.Reader {
	enc, name, _ := charset.DetermineEncoding(body, "")
	if name == "utf-8" {
		return bytes.NewReader(body)
	}
	return transform.NewReader(bytes.NewReader(body), enc.NewDecoder())
}
