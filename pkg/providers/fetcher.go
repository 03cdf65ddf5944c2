package providers

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Adda-Baaj/preview-harvester/pkg/httpclient"
	"github.com/Adda-Baaj/preview-harvester/pkg/preview"
)

const defaultFetchTimeout = 15 * time.Second

// fetcherRegistry resolves a provider to a fetcher. A fetcher registered for
// the provider's id takes precedence over one registered for its type.
type fetcherRegistry struct {
	mu     sync.RWMutex
	byID   map[string]Fetcher
	byType map[string]Fetcher
}

// NewFetcherRegistry builds a registry of fetchers keyed by their ID().
func NewFetcherRegistry(fetchers ...Fetcher) FetcherRegistry {
	return NewTypeFetcherRegistry(nil, fetchers...)
}

// NewTypeFetcherRegistry builds a registry from type fetchers plus optional
// provider-specific overrides.
func NewTypeFetcherRegistry(typeFetchers map[string]Fetcher, fetchers ...Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{
		byID:   make(map[string]Fetcher, len(fetchers)),
		byType: make(map[string]Fetcher, len(typeFetchers)),
	}
	for _, f := range fetchers {
		if f != nil {
			reg.add(reg.byID, f.ID(), f)
		}
	}
	for typ, f := range typeFetchers {
		reg.add(reg.byType, typ, f)
	}
	return reg
}

func fetcherKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (r *fetcherRegistry) add(m map[string]Fetcher, key string, f Fetcher) {
	key = fetcherKey(key)
	if key == "" || f == nil {
		return
	}
	r.mu.Lock()
	m[key] = f
	r.mu.Unlock()
}

// FetcherFor returns the fetcher for cfg.
func (r *fetcherRegistry) FetcherFor(cfg Provider) (Fetcher, error) {
	if r == nil {
		return nil, fmt.Errorf("fetcher registry is nil")
	}
	id := fetcherKey(cfg.ID)
	if id == "" {
		return nil, fmt.Errorf("provider id is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.byID[id]; ok {
		return f, nil
	}
	if f, ok := r.byType[fetcherKey(cfg.Type)]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("no fetcher registered for provider %q (type %q)", cfg.ID, cfg.Type)
}

// DefaultHTTPClient returns the resty client fetchers fall back to when none
// is injected.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(defaultFetchTimeout) }

// DefaultFetcherRegistry wires up known provider fetchers. opts configure the
// preview parsers built for preview_page providers.
func DefaultFetcherRegistry(client HTTPClient, opts ...preview.Option) FetcherRegistry {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return NewTypeFetcherRegistry(map[string]Fetcher{
		ProviderTypePreviewPage: NewPreviewFetcher(client, opts...),
		ProviderTypeGoogleNews:  NewGoogleNewsFetcher(client),
	})
}
