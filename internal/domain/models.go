package domain

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
)

// Domain contains core models and interfaces.

// ArticlePreview is one entry of a news-site listing page.
type ArticlePreview struct {
	SiteBaseAddress  string `json:"site_base_address"`
	ArticleLink      string `json:"article_link"`
	PreviewImageLink string `json:"preview_image_link"`
	Title            string `json:"title"`
	// PublishedAt holds a canonical RFC 3339 UTC timestamp, or nil when the
	// listing page carried no usable date.
	PublishedAt *string `json:"published_at"`
}

// ID derives a stable identifier from the article link.
func (a ArticlePreview) ID() string {
	sum := sha1.Sum([]byte(a.ArticleLink))
	return hex.EncodeToString(sum[:])
}

// HasDate reports whether a publication date is known.
func (a ArticlePreview) HasDate() bool {
	return a.PublishedAt != nil && *a.PublishedAt != ""
}

// WithDate returns a copy with the publication date set.
func (a ArticlePreview) WithDate(canonical string) ArticlePreview {
	a.PublishedAt = &canonical
	return a
}
