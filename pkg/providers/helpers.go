package providers

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Adda-Baaj/preview-harvester/internal/domain"
	"github.com/Adda-Baaj/preview-harvester/pkg/datefmt"
	"github.com/Adda-Baaj/preview-harvester/pkg/httpclient"
)

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

// fetchBody GETs url and returns the body of a 200 response.
func fetchBody(ctx context.Context, client httpclient.Client, url, label string, headers map[string]string) ([]byte, error) {
	resp, err := client.Get(ctx, url, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", label, err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d body: %s", label, resp.StatusCode(), responseSnippet(body))
	}

	return body, nil
}

// siteBaseAddress picks the address previews of p are attributed to.
func siteBaseAddress(p Provider) string {
	if p.Preview != nil && p.Preview.BaseAddress != "" {
		return p.Preview.BaseAddress
	}
	if v := ConfigString(p, ConfigBaseAddressKey, ""); v != "" {
		return strings.TrimRight(v, "/")
	}
	for _, raw := range p.ListingURLs() {
		if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
			return u.Scheme + "://" + u.Host
		}
	}
	return ""
}

// appendUnseen appends previews whose ids are not in seen yet.
func appendUnseen(dst []domain.ArticlePreview, seen map[string]struct{}, src []domain.ArticlePreview) []domain.ArticlePreview {
	for _, p := range src {
		id := p.ID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		dst = append(dst, p)
	}
	return dst
}

type sitemapIndex struct {
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

type googleNewsSitemap struct {
	URLs []googleNewsURL `xml:"url"`
}

type googleNewsURL struct {
	Loc    string         `xml:"loc"`
	News   googleNewsItem `xml:"news"`
	Images []sitemapImage `xml:"image"`
}

type googleNewsItem struct {
	Title           string `xml:"title"`
	PublicationDate string `xml:"publication_date"`
}

type sitemapImage struct {
	Loc string `xml:"loc"`
}

func parseGoogleNewsSitemap(data []byte) ([]googleNewsURL, error) {
	var sitemap googleNewsSitemap
	if err := xml.Unmarshal(data, &sitemap); err != nil {
		return nil, err
	}
	return sitemap.URLs, nil
}

// parseSitemapIndex returns the child sitemap locations of an index document.
// A urlset document yields no locations.
func parseSitemapIndex(data []byte) ([]string, error) {
	var idx sitemapIndex
	if err := xml.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(idx.Sitemaps))
	for _, s := range idx.Sitemaps {
		if loc := strings.TrimSpace(s.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	return urls, nil
}

// buildPreviewsFromSitemap keeps entries that carry a link, a title and an image.
func buildPreviewsFromSitemap(baseAddress string, urls []googleNewsURL) []domain.ArticlePreview {
	previews := make([]domain.ArticlePreview, 0, len(urls))
	for _, entry := range urls {
		loc := strings.TrimSpace(entry.Loc)
		title := strings.Join(strings.Fields(entry.News.Title), " ")
		image := firstImage(entry.Images)
		if loc == "" || title == "" || image == "" {
			continue
		}

		previews = append(previews, domain.ArticlePreview{
			SiteBaseAddress:  baseAddress,
			ArticleLink:      loc,
			PreviewImageLink: image,
			Title:            title,
			PublishedAt:      parsePublicationDate(entry.News.PublicationDate),
		})
	}
	return previews
}

func firstImage(images []sitemapImage) string {
	for _, img := range images {
		if loc := strings.TrimSpace(img.Loc); loc != "" {
			return loc
		}
	}
	return ""
}

// W3C datetime forms allowed in news:publication_date.
var publicationLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parsePublicationDate returns the canonical form of raw, or nil when no
// known layout matches.
func parsePublicationDate(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range publicationLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			s := t.UTC().Format(datefmt.Canonical)
			return &s
		}
	}
	return nil
}
