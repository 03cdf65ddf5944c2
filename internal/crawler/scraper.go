package crawler

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/preview-harvester/internal/domain"
	"github.com/Adda-Baaj/preview-harvester/internal/logger"
	"github.com/Adda-Baaj/preview-harvester/pkg/datefmt"
	"github.com/Adda-Baaj/preview-harvester/pkg/httpclient"
	"github.com/Adda-Baaj/preview-harvester/pkg/providers"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB
)

// Metadata locations for an article's publication date, most specific first.
var dateSources = []struct {
	selector string
	attr     string
}{
	{`meta[property="article:published_time"]`, "content"},
	{`meta[itemprop="datePublished"]`, "content"},
	{`meta[name="publish-date"]`, "content"},
	{`time[itemprop="datePublished"]`, "datetime"},
	{`time[datetime]`, "datetime"},
}

// Layouts seen in article metadata, canonical first.
var metaLayouts = []string{
	datefmt.Canonical,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// metaDates builds the metadata normalizers for a provider. Zone-less values
// are read in the provider's site time zone.
func metaDates(cfg providers.Provider) []*datefmt.Normalizer {
	loc := time.UTC
	if cfg.Preview != nil {
		if n, err := providers.DateNormalizer(*cfg.Preview); err == nil {
			loc = n.Location()
		}
	}
	out := make([]*datefmt.Normalizer, len(metaLayouts))
	for i, l := range metaLayouts {
		out[i] = datefmt.New(l, datefmt.WithLocation(loc))
	}
	return out
}

// Scraper fetches article pages and fills in publication dates the listing
// page did not carry.
type Scraper struct {
	client httpclient.Client
	log    logger.Logger
}

// NewScraper constructs a scraper with the provided HTTP client (or default).
func NewScraper(client httpclient.Client, log logger.Logger) *Scraper {
	if client == nil {
		client = providers.DefaultHTTPClient()
	}
	if log == nil {
		log = logger.Default()
	}
	return &Scraper{client: client, log: log}
}

// Enrich fetches the article page of every undated preview and copies the
// publication date from its metadata. Previews that already carry a date are
// returned untouched. On cancellation the remaining previews are returned as
// they came in.
func (s *Scraper) Enrich(ctx context.Context, cfg providers.Provider, previews []domain.ArticlePreview) []domain.ArticlePreview {
	out := append([]domain.ArticlePreview(nil), previews...)
	dates := metaDates(cfg)

	for i, p := range previews {
		if p.HasDate() {
			continue
		}
		select {
		case <-ctx.Done():
			return out
		default:
		}

		date, err := s.fetchDate(ctx, cfg, dates, p.ArticleLink)
		if err != nil {
			s.log.WarnObj("article date scrape failed", "metadata_error", map[string]any{
				"provider_id": cfg.ID,
				"url":         p.ArticleLink,
				"error":       err.Error(),
			})
			continue
		}
		if date != "" {
			out[i] = p.WithDate(date)
		}
	}

	return out
}

func (s *Scraper) fetchDate(ctx context.Context, cfg providers.Provider, dates []*datefmt.Normalizer, url string) (string, error) {
	headers := providers.Headers(cfg)

	resp, err := s.client.Get(ctx, url, headers)
	if err != nil {
		return "", fmt.Errorf("http fetch: %w", err)
	}

	if resp.StatusCode() != 200 {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		return "", fmt.Errorf("status %d body: %s", resp.StatusCode(), snippet)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	return parsePublishedDate(body, dates)
}

// parsePublishedDate returns the canonical publication date found in the
// page metadata, or "" when none parses.
func parsePublishedDate(body []byte, dates []*datefmt.Normalizer) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	for _, src := range dateSources {
		var found string
		doc.Find(src.selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			raw, ok := sel.Attr(src.attr)
			if !ok {
				return true
			}
			found = normalizeMetaDate(dates, raw)
			return found == ""
		})
		if found != "" {
			return found, nil
		}
	}
	return "", nil
}

func normalizeMetaDate(dates []*datefmt.Normalizer, raw string) string {
	for _, n := range dates {
		if canonical, ok := n.Normalize(raw); ok {
			return canonical
		}
	}
	return ""
}
