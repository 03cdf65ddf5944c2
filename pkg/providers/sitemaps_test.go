package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/Adda-Baaj/preview-harvester/pkg/httpclient"
)

// fakeResponse lets us stub the httpclient.Client interface.
type fakeResponse struct {
	body       []byte
	statusCode int
}

func (f fakeResponse) Body() []byte    { return f.body }
func (f fakeResponse) StatusCode() int { return f.statusCode }

// fakeHTTPClient returns canned responses per URL to avoid network calls.
type fakeHTTPClient struct {
	responses map[string]fakeResponse
	calls     []string
}

func (f *fakeHTTPClient) Get(_ context.Context, url string, _ map[string]string) (httpclient.Response, error) {
	f.calls = append(f.calls, url)
	resp, ok := f.responses[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return resp, nil
}

func TestParseGoogleNewsSitemap(t *testing.T) {
	xml := []byte(`
<urlset xmlns:news="http://www.google.com/schemas/sitemap-news/0.9" xmlns:image="http://www.google.com/schemas/sitemap-image/1.1">
  <url>
    <loc>https://example.com/a</loc>
    <news:news>
      <news:publication_date>2024-01-01T05:30:00+05:30</news:publication_date>
      <news:title>  Hello
        world </news:title>
    </news:news>
    <image:image>
      <image:loc>https://example.com/a.jpg</image:loc>
    </image:image>
  </url>
  <url>
    <loc>https://example.com/no-image</loc>
    <news:news><news:title>No image</news:title></news:news>
  </url>
  <url>
    <loc>   </loc>
  </url>
</urlset>`)

	entries, err := parseGoogleNewsSitemap(xml)
	if err != nil {
		t.Fatalf("parseGoogleNewsSitemap: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 url entries, got %d", len(entries))
	}

	previews := buildPreviewsFromSitemap("https://example.com", entries)
	if len(previews) != 1 {
		t.Fatalf("expected 1 preview after filtering incomplete entries, got %d", len(previews))
	}

	p := previews[0]
	if p.SiteBaseAddress != "https://example.com" {
		t.Errorf("SiteBaseAddress = %s", p.SiteBaseAddress)
	}
	if p.Title != "Hello world" {
		t.Errorf("Title = %q want %q", p.Title, "Hello world")
	}
	if p.PublishedAt == nil || *p.PublishedAt != "2024-01-01T00:00:00Z" {
		t.Errorf("PublishedAt = %v", p.PublishedAt)
	}
	if p.PreviewImageLink != "https://example.com/a.jpg" {
		t.Errorf("PreviewImageLink = %s", p.PreviewImageLink)
	}
	if p.ID() == "" {
		t.Errorf("expected hashed ID")
	}
}

func TestParseSitemapIndex(t *testing.T) {
	data := []byte(`
<sitemapindex>
  <sitemap><loc>https://example.com/s1.xml</loc></sitemap>
  <sitemap><loc> </loc></sitemap>
  <sitemap><loc>https://example.com/s2.xml</loc></sitemap>
</sitemapindex>`)

	urls, err := parseSitemapIndex(data)
	if err != nil {
		t.Fatalf("parseSitemapIndex: %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("expected 2 urls, got %d", len(urls))
	}

	leaf, err := parseSitemapIndex([]byte(`<urlset><url><loc>https://example.com/a</loc></url></urlset>`))
	if err != nil {
		t.Fatalf("parseSitemapIndex on urlset: %v", err)
	}
	if len(leaf) != 0 {
		t.Fatalf("expected urlset to yield no child sitemaps, got %v", leaf)
	}
}

const leafSitemap = `
<urlset>
  <url>
    <loc>https://example.com/article</loc>
    <news>
      <publication_date>2024-01-01</publication_date>
      <title>Hello</title>
    </news>
    <image><loc>https://example.com/article.jpg</loc></image>
  </url>
</urlset>`

func TestFetchGoogleNewsURLsFollowsIndexes(t *testing.T) {
	indexXML := []byte(`
<sitemapindex>
  <sitemap><loc>https://example.com/leaf.xml</loc></sitemap>
  <sitemap><loc>https://example.com/root.xml</loc></sitemap>
</sitemapindex>`)

	client := &fakeHTTPClient{
		responses: map[string]fakeResponse{
			"https://example.com/root.xml": {body: indexXML, statusCode: http.StatusOK},
			"https://example.com/leaf.xml": {body: []byte(leafSitemap), statusCode: http.StatusOK},
		},
	}

	fetcher := &googleNewsFetcher{client: client}
	cfg := Provider{
		ID:        "p1",
		Type:      ProviderTypeGoogleNews,
		SourceURL: "https://example.com/root.xml",
	}

	urls, err := fetcher.fetchGoogleNewsURLs(context.Background(), cfg, cfg.SourceURL, nil, nil)
	if err != nil {
		t.Fatalf("fetchGoogleNewsURLs: %v", err)
	}
	if len(urls) != 1 {
		t.Fatalf("expected 1 url, got %d", len(urls))
	}
	if urls[0].Loc != "https://example.com/article" {
		t.Fatalf("unexpected loc %q", urls[0].Loc)
	}
	if len(client.calls) != 2 {
		t.Fatalf("expected 2 HTTP calls (index + leaf, cycle skipped), got %d", len(client.calls))
	}
}

func TestGoogleNewsFetch(t *testing.T) {
	client := &fakeHTTPClient{
		responses: map[string]fakeResponse{
			"https://example.com/news.xml": {body: []byte(leafSitemap), statusCode: http.StatusOK},
		},
	}

	previews, err := NewGoogleNewsFetcher(client).Fetch(context.Background(), Provider{
		ID:        "p1",
		Type:      ProviderTypeGoogleNews,
		SourceURL: "https://example.com/news.xml",
		Pages:     []string{"https://example.com/missing.xml"},
	})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected the failed page to be reported, got %v", err)
	}
	if len(previews) != 1 {
		t.Fatalf("expected previews from the healthy sitemap, got %d", len(previews))
	}
	if previews[0].SiteBaseAddress != "https://example.com" {
		t.Fatalf("unexpected site base address %q", previews[0].SiteBaseAddress)
	}
	if previews[0].PublishedAt == nil || *previews[0].PublishedAt != "2024-01-01T00:00:00Z" {
		t.Fatalf("unexpected published_at %v", previews[0].PublishedAt)
	}
}

func TestGoogleNewsFetchRejectsOtherTypes(t *testing.T) {
	_, err := NewGoogleNewsFetcher(&fakeHTTPClient{}).Fetch(context.Background(), Provider{
		ID:        "p1",
		Type:      ProviderTypePreviewPage,
		SourceURL: "https://example.com/news.xml",
	})
	if err == nil {
		t.Fatalf("expected incompatible type error")
	}
}

func TestFetchBodyHandlesNon200(t *testing.T) {
	client := &fakeHTTPClient{
		responses: map[string]fakeResponse{
			"https://example.com/root.xml": {body: []byte("oops"), statusCode: http.StatusBadRequest},
		},
	}

	_, err := fetchBody(context.Background(), client, "https://example.com/root.xml", "p1 sitemap", nil)
	if err == nil || !strings.Contains(err.Error(), "status 400") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestParseHelpers(t *testing.T) {
	if d := parsePublicationDate("not-a-date"); d != nil {
		t.Errorf("expected nil date on invalid input, got %v", *d)
	}
	if d := parsePublicationDate("2024-03-05T10:15+01:00"); d == nil || *d != "2024-03-05T09:15:00Z" {
		t.Errorf("unexpected minute-precision date %v", d)
	}

	resp := responseSnippet(make([]byte, 600))
	if len(resp) == 0 {
		t.Errorf("expected truncated response snippet")
	}
	if responseSnippet(nil) != "<empty>" {
		t.Errorf("expected placeholder for empty body")
	}

	if got := siteBaseAddress(Provider{SourceURL: "https://www.example.com/sitemap.xml?x=1"}); got != "https://www.example.com" {
		t.Errorf("siteBaseAddress = %q", got)
	}
	cfg := Provider{SourceURL: "https://cdn.example.com/s.xml", Config: map[string]any{ConfigBaseAddressKey: "https://www.example.com/"}}
	if got := siteBaseAddress(cfg); got != "https://www.example.com" {
		t.Errorf("siteBaseAddress override = %q", got)
	}
}
