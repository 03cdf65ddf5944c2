package crawler

import (
	"context"

	"github.com/Adda-Baaj/preview-harvester/internal/domain"
	"github.com/Adda-Baaj/preview-harvester/pkg/providers"
	"github.com/Adda-Baaj/preview-harvester/pkg/publishers"
)

// PreviewScraper completes previews from their article pages (e.g., missing dates).
type PreviewScraper interface {
	Enrich(ctx context.Context, cfg providers.Provider, previews []domain.ArticlePreview) []domain.ArticlePreview
}

// EventPublisher publishes previews downstream and reports how many sinks accepted each event.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers previews that were already published.
type Deduper interface {
	SeenPreview(id string) (bool, error)
	MarkPreview(id string) error
}
