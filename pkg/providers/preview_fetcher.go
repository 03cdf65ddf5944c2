package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Adda-Baaj/preview-harvester/internal/domain"
	"github.com/Adda-Baaj/preview-harvester/pkg/preview"
)

// previewFetcher implements Fetcher for listing pages described by a layout table.
type previewFetcher struct {
	client HTTPClient
	opts   []preview.Option

	mu       sync.Mutex
	adapters map[string]*Adapter
}

// NewPreviewFetcher builds the fetcher for preview_page providers. opts are
// applied to every parser it creates.
func NewPreviewFetcher(client HTTPClient, opts ...preview.Option) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &previewFetcher{
		client:   client,
		opts:     opts,
		adapters: make(map[string]*Adapter),
	}
}

func (f *previewFetcher) ID() string {
	return ProviderTypePreviewPage
}

// Fetch downloads every listing page of cfg and extracts its previews. Pages
// that fail to download are reported in the joined error alongside the
// previews of the pages that succeeded. Configuration errors abort the fetch.
func (f *previewFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.ArticlePreview, error) {
	if !strings.EqualFold(cfg.Type, ProviderTypePreviewPage) {
		return nil, fmt.Errorf("preview fetcher received incompatible provider type %q", cfg.Type)
	}
	pages := cfg.ListingURLs()
	if len(pages) == 0 {
		return nil, fmt.Errorf("provider %q has no listing pages", cfg.ID)
	}

	adapter, err := f.adapter(cfg)
	if err != nil {
		return nil, err
	}

	headers := Headers(cfg)

	var (
		previews []domain.ArticlePreview
		errs     []error
	)
	seen := make(map[string]struct{})
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		body, err := fetchBody(ctx, f.client, page, cfg.ID+" listing page", headers)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		res, err := adapter.Extract(body)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", page, err)
		}
		previews = appendUnseen(previews, seen, res.Previews)
	}

	return previews, errors.Join(errs...)
}

// adapter returns the cached adapter for cfg, building it on first use.
func (f *previewFetcher) adapter(cfg Provider) (*Adapter, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.ID))

	f.mu.Lock()
	defer f.mu.Unlock()

	if a, ok := f.adapters[key]; ok {
		return a, nil
	}
	a, err := NewAdapter(cfg, f.opts...)
	if err != nil {
		return nil, err
	}
	f.adapters[key] = a
	return a, nil
}
