// Package providers loads provider configs (YAML/JSON) and the fetchers that
// turn them into article previews.
package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ProviderTypePreviewPage scrapes HTML listing pages with a layout table.
	ProviderTypePreviewPage = "preview_page"
	// ProviderTypeGoogleNews reads Google News sitemaps.
	ProviderTypeGoogleNews = "google_news_sitemap"

	defaultRequestDelayMs = 500
)

// Provider describes one news source declared in the providers file.
type Provider struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Type           string         `json:"type" yaml:"type"`
	SourceURL      string         `json:"source_url" yaml:"source_url"`
	Pages          []string       `json:"pages" yaml:"pages"`
	ResponseFormat string         `json:"response_format" yaml:"response_format"`
	RequestDelayMs int            `json:"request_delay_ms" yaml:"request_delay_ms"`
	Config         map[string]any `json:"config" yaml:"config"`
	Preview        *PreviewConfig `json:"preview" yaml:"preview"`
}

type registryFile struct {
	Providers []Provider `json:"providers" yaml:"providers"`
}

// Registry holds the providers loaded from a config file.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
	idx       map[string]Provider
}

// LoadRegistry loads provider registry from file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("providers file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open providers file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}

	parsed, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	return NewRegistry(parsed.Providers...)
}

// NewRegistry sanitizes and validates providers into a Registry.
func NewRegistry(providers ...Provider) (*Registry, error) {
	if len(providers) == 0 {
		return nil, errors.New("providers file contains no providers entries")
	}

	reg := &Registry{
		providers: make([]Provider, len(providers)),
		idx:       make(map[string]Provider, len(providers)),
	}
	for i := range providers {
		p, err := sanitizeProvider(providers[i])
		if err != nil {
			return nil, fmt.Errorf("provider[%d]: %w", i, err)
		}
		if err := validateProvider(p); err != nil {
			return nil, fmt.Errorf("provider[%d]: %w", i, err)
		}
		if _, exists := reg.idx[p.ID]; exists {
			return nil, fmt.Errorf("duplicate provider id %q", p.ID)
		}
		reg.providers[i] = p
		reg.idx[p.ID] = p
	}
	return reg, nil
}

// All returns a copy of the loaded providers in file order.
func (r *Registry) All() []Provider {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// ByID returns the provider entry for the given id, if loaded.
func (r *Registry) ByID(id string) (Provider, bool) {
	if r == nil {
		return Provider{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Provider{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.idx[id]
	return p, ok
}

func parseRegistry(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var errs []error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		reg, err := unmarshalRegistry(d.name, data, d.fn)
		if err == nil {
			return reg, nil
		}
		errs = append(errs, err)
	}

	return registryFile{}, fmt.Errorf("providers file format not recognized (expected YAML or JSON): %w", errors.Join(errs...))
}

type unmarshalFn func([]byte, any) error

func unmarshalRegistry(name string, data []byte, fn unmarshalFn) (registryFile, error) {
	var reg registryFile
	if err := fn(data, &reg); err != nil {
		return registryFile{}, fmt.Errorf("decode %s providers: %w", name, err)
	}
	return reg, nil
}

func sanitizeProvider(p Provider) (Provider, error) {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Type = strings.ToLower(strings.TrimSpace(p.Type))
	p.SourceURL = strings.TrimSpace(p.SourceURL)
	p.ResponseFormat = strings.ToLower(strings.TrimSpace(p.ResponseFormat))

	pages := make([]string, 0, len(p.Pages))
	for _, page := range p.Pages {
		if page = strings.TrimSpace(page); page != "" {
			pages = append(pages, page)
		}
	}
	p.Pages = pages

	if p.Config == nil {
		p.Config = map[string]any{}
	}
	if p.RequestDelayMs <= 0 {
		p.RequestDelayMs = defaultRequestDelayMs
	}
	if p.ResponseFormat == "" {
		switch p.Type {
		case ProviderTypePreviewPage:
			p.ResponseFormat = "html"
		case ProviderTypeGoogleNews:
			p.ResponseFormat = "xml"
		}
	}

	if p.Preview != nil {
		cfg, err := sanitizePreviewConfig(*p.Preview)
		if err != nil {
			return p, fmt.Errorf("provider %q: %w", p.ID, err)
		}
		p.Preview = &cfg
	}

	return p, nil
}

func validateProvider(p Provider) error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required for provider %q", p.ID)
	}
	if p.Type == "" {
		return fmt.Errorf("type is required for provider %q", p.ID)
	}
	if p.SourceURL == "" && len(p.Pages) == 0 {
		return fmt.Errorf("source_url or pages is required for provider %q", p.ID)
	}
	if p.ResponseFormat == "" {
		return fmt.Errorf("response_format is required for provider %q", p.ID)
	}
	if p.Type == ProviderTypePreviewPage {
		if p.Preview == nil {
			return fmt.Errorf("preview config required for provider %q", p.ID)
		}
		if err := validatePreviewConfig(*p.Preview); err != nil {
			return fmt.Errorf("provider %q: %w", p.ID, err)
		}
	}
	return nil
}

// ListingURLs returns the listing pages to crawl: source_url first, then pages.
func (p Provider) ListingURLs() []string {
	out := make([]string, 0, len(p.Pages)+1)
	seen := make(map[string]struct{}, len(p.Pages)+1)
	for _, u := range append([]string{p.SourceURL}, p.Pages...) {
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// RequestDelay returns the per-request throttle duration for the provider.
func (p Provider) RequestDelay() time.Duration {
	if p.RequestDelayMs <= 0 {
		return time.Duration(defaultRequestDelayMs) * time.Millisecond
	}
	return time.Duration(p.RequestDelayMs) * time.Millisecond
}
