package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/preview-harvester/internal/domain"
)

// maxSitemapFetches bounds how many documents one sitemap index may pull in.
const maxSitemapFetches = 32

// googleNewsFetcher implements Fetcher for Google News sitemap providers.
type googleNewsFetcher struct {
	client HTTPClient
}

func NewGoogleNewsFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &googleNewsFetcher{client: client}
}

func (f *googleNewsFetcher) ID() string {
	return ProviderTypeGoogleNews
}

func (f *googleNewsFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.ArticlePreview, error) {
	if !strings.EqualFold(cfg.Type, ProviderTypeGoogleNews) {
		return nil, fmt.Errorf("google news fetcher received incompatible provider type %q", cfg.Type)
	}
	sources := cfg.ListingURLs()
	if len(sources) == 0 {
		return nil, fmt.Errorf("provider %q source_url is empty", cfg.ID)
	}

	headers := Headers(cfg)
	visited := make(map[string]struct{})
	base := siteBaseAddress(cfg)

	var (
		previews []domain.ArticlePreview
		errs     []error
	)
	seen := make(map[string]struct{})
	for _, src := range sources {
		urls, err := f.fetchGoogleNewsURLs(ctx, cfg, src, headers, visited)
		if err != nil {
			errs = append(errs, err)
		}
		previews = appendUnseen(previews, seen, buildPreviewsFromSitemap(base, urls))
	}

	if len(previews) == 0 {
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		return nil, fmt.Errorf("%s sitemap returned no records", cfg.ID)
	}
	return previews, errors.Join(errs...)
}

// fetchGoogleNewsURLs downloads url and, when it is a sitemap index, every
// child sitemap it lists. visited guards against index cycles.
func (f *googleNewsFetcher) fetchGoogleNewsURLs(ctx context.Context, cfg Provider, url string, headers map[string]string, visited map[string]struct{}) ([]googleNewsURL, error) {
	if visited == nil {
		visited = make(map[string]struct{})
	}
	if _, ok := visited[url]; ok {
		return nil, nil
	}
	if len(visited) >= maxSitemapFetches {
		return nil, fmt.Errorf("%s sitemap index exceeds %d documents", cfg.ID, maxSitemapFetches)
	}
	visited[url] = struct{}{}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := fetchBody(ctx, f.client, url, cfg.ID+" sitemap", headers)
	if err != nil {
		return nil, err
	}

	children, err := parseSitemapIndex(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s sitemap: %w", cfg.ID, err)
	}
	if len(children) == 0 {
		urls, err := parseGoogleNewsSitemap(raw)
		if err != nil {
			return nil, fmt.Errorf("decode google news sitemap: %w", err)
		}
		return urls, nil
	}

	var (
		out  []googleNewsURL
		errs []error
	)
	for _, child := range children {
		urls, err := f.fetchGoogleNewsURLs(ctx, cfg, child, headers, visited)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, urls...)
	}
	return out, errors.Join(errs...)
}
