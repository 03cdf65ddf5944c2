package providers

import (
	"context"

	"github.com/Adda-Baaj/preview-harvester/internal/domain"
	"github.com/Adda-Baaj/preview-harvester/pkg/httpclient"
)

// Fetcher is responsible for retrieving and extracting article previews for a provider.
// Concrete implementations live in per-type files (e.g., preview_fetcher.go).
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, cfg Provider) ([]domain.ArticlePreview, error)
}

// FetcherRegistry resolves the fetcher implementation for a given provider config.
type FetcherRegistry interface {
	FetcherFor(cfg Provider) (Fetcher, error)
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within providers.
type HTTPClient = httpclient.Client
