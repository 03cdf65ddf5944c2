package publishers

import (
	"strconv"
	"time"

	"github.com/Adda-Baaj/preview-harvester/internal/domain"
	"github.com/google/uuid"
)

// Event represents the payload published downstream.
type Event struct {
	ID           string                `json:"id"`
	ProviderID   string                `json:"provider_id"`
	ProviderName string                `json:"provider_name"`
	Preview      domain.ArticlePreview `json:"preview"`
	CollectedAt  time.Time             `json:"collected_at"`
}

// NewEvent constructs an Event for the given provider + preview.
func NewEvent(providerID, providerName string, preview domain.ArticlePreview) Event {
	return Event{
		ID:           uuid.NewString(),
		ProviderID:   providerID,
		ProviderName: providerName,
		Preview:      preview,
		CollectedAt:  time.Now().UTC(),
	}
}

// attributes are the routing attributes attached to queue and topic messages.
func (e Event) attributes() map[string]string {
	attrs := map[string]string{
		"event_id":    e.ID,
		"provider_id": e.ProviderID,
		"preview_id":  e.Preview.ID(),
		"has_date":    strconv.FormatBool(e.Preview.HasDate()),
	}
	for k, v := range attrs {
		if v == "" {
			delete(attrs, k)
		}
	}
	return attrs
}
