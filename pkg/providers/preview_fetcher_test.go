package providers

import (
	"context"
	"net/http"
	"testing"

	"github.com/Adda-Baaj/preview-harvester/pkg/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const anandabazarListing = `<html><body>
<div class="story-list">
  <div class="story-box">
    <a href="/west-bengal/story-one/cid/1">
      <img data-src="//images.anandabazar.com/one.jpg">
      <h3>প্রথম খবর</h3>
    </a>
    <div class="story-time">১৯ অক্টোবর ২০২৬ ১৪:৩০</div>
  </div>
  <div class="story-box">
    <a href="/west-bengal/story-two/cid/2">
      <img data-src="https://images.anandabazar.com/two.jpg">
      <h3>দ্বিতীয়   খবর</h3>
    </a>
    <div class="story-time">কিছুক্ষণ আগে</div>
  </div>
  <div class="story-box">
    <a href="/west-bengal/no-image/cid/9"><h3>ছবি নেই</h3></a>
  </div>
</div>
</body></html>`

const anandabazarSection = `<html><body>
<ul class="section-list">
  <li>
    <a href="/kolkata/story-three/cid/3"><img src="/img/three.jpg"><h2>তৃতীয় খবর</h2></a>
    <div class="story-time">১৯ অক্টোবর ২০২৬ ১০:০০</div>
  </li>
  <li>
    <a href="https://www.anandabazar.com/west-bengal/story-one/cid/1"><img src="/img/one.jpg"><h2>প্রথম খবর</h2></a>
  </li>
</ul>
</body></html>`

func anandabazarProvider(t *testing.T, pages ...string) Provider {
	t.Helper()
	reg, err := NewRegistry(Provider{
		ID:        "anandabazar",
		Name:      "Anandabazar Patrika",
		Type:      ProviderTypePreviewPage,
		SourceURL: "https://www.anandabazar.com/west-bengal",
		Pages:     pages,
		Preview:   &PreviewConfig{Preset: "anandabazar"},
	})
	require.NoError(t, err)
	p, ok := reg.ByID("anandabazar")
	require.True(t, ok)
	return p
}

func TestAdapterExtractsAnandabazarListing(t *testing.T) {
	adapter, err := NewAdapter(anandabazarProvider(t))
	require.NoError(t, err)

	res, err := adapter.Extract([]byte(anandabazarListing))
	require.NoError(t, err)

	assert.Equal(t, layout.Variant(0), res.Variant)
	assert.Equal(t, 3, res.Blocks)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Previews, 2)

	first := res.Previews[0]
	assert.Equal(t, "https://www.anandabazar.com", first.SiteBaseAddress)
	assert.Equal(t, "https://www.anandabazar.com/west-bengal/story-one/cid/1", first.ArticleLink)
	assert.Equal(t, "https://images.anandabazar.com/one.jpg", first.PreviewImageLink)
	assert.Equal(t, "প্রথম খবর", first.Title)
	require.NotNil(t, first.PublishedAt)
	assert.Equal(t, "2026-10-19T09:00:00Z", *first.PublishedAt)

	second := res.Previews[1]
	assert.Equal(t, "দ্বিতীয় খবর", second.Title)
	assert.Nil(t, second.PublishedAt, "relative time is not a date")
}

func TestAdapterSectionLayoutHasNoDates(t *testing.T) {
	adapter, err := NewAdapter(anandabazarProvider(t))
	require.NoError(t, err)

	res, err := adapter.Extract([]byte(anandabazarSection))
	require.NoError(t, err)

	assert.Equal(t, layout.Variant(1), res.Variant)
	require.Len(t, res.Previews, 2)
	assert.Equal(t, "https://www.anandabazar.com/img/three.jpg", res.Previews[0].PreviewImageLink)
	for _, p := range res.Previews {
		assert.Nil(t, p.PublishedAt)
	}
}

func TestNewAdapterRequiresPreviewConfig(t *testing.T) {
	_, err := NewAdapter(Provider{ID: "bare", Type: ProviderTypePreviewPage})
	require.Error(t, err)
}

func TestDateNormalizerUsesSiteZone(t *testing.T) {
	preset, _ := Preset("anandabazar")
	n, err := DateNormalizer(preset)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", n.Location().String())
	assert.Equal(t, "2 January 2006 15:04", n.Layout())

	_, err = DateNormalizer(PreviewConfig{Timezone: "Nowhere/Special"})
	require.Error(t, err)
}

func TestPreviewFetcherMergesPagesAndDedupes(t *testing.T) {
	p := anandabazarProvider(t,
		"https://www.anandabazar.com/kolkata",
		"https://www.anandabazar.com/offline",
	)
	client := &fakeHTTPClient{
		responses: map[string]fakeResponse{
			"https://www.anandabazar.com/west-bengal": {body: []byte(anandabazarListing), statusCode: http.StatusOK},
			"https://www.anandabazar.com/kolkata":     {body: []byte(anandabazarSection), statusCode: http.StatusOK},
			"https://www.anandabazar.com/offline":     {body: []byte("maintenance"), statusCode: http.StatusServiceUnavailable},
		},
	}

	previews, err := NewPreviewFetcher(client).Fetch(context.Background(), p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")

	require.Len(t, previews, 3)
	assert.Equal(t, "https://www.anandabazar.com/west-bengal/story-one/cid/1", previews[0].ArticleLink)
	assert.Equal(t, "https://www.anandabazar.com/west-bengal/story-two/cid/2", previews[1].ArticleLink)
	assert.Equal(t, "https://www.anandabazar.com/kolkata/story-three/cid/3", previews[2].ArticleLink)
	assert.Len(t, client.calls, 3)
}

func TestPreviewFetcherCachesAdapter(t *testing.T) {
	p := anandabazarProvider(t)
	client := &fakeHTTPClient{
		responses: map[string]fakeResponse{
			"https://www.anandabazar.com/west-bengal": {body: []byte(anandabazarListing), statusCode: http.StatusOK},
		},
	}
	f := NewPreviewFetcher(client).(*previewFetcher)

	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), p)
		require.NoError(t, err)
	}
	require.Len(t, f.adapters, 1)

	a, err := f.adapter(p)
	require.NoError(t, err)
	v, ok := a.Parser().LastVariant()
	assert.True(t, ok)
	assert.Equal(t, layout.Variant(0), v)
}

func TestPreviewFetcherReturnsSelectorErrors(t *testing.T) {
	p := anandabazarProvider(t)
	p.ID = "broken"
	p.Preview.Layouts = []layout.SelectorSet{{
		Block: "div[",
		Link:  layout.Field{Query: "a", Attr: "href"},
		Image: layout.Field{Query: "img", Attr: "src"},
		Title: layout.Field{Query: "h3"},
	}}
	client := &fakeHTTPClient{
		responses: map[string]fakeResponse{
			"https://www.anandabazar.com/west-bengal": {body: []byte(anandabazarListing), statusCode: http.StatusOK},
		},
	}

	previews, err := NewPreviewFetcher(client).Fetch(context.Background(), p)
	require.ErrorIs(t, err, layout.ErrMalformedSelector)
	assert.Empty(t, previews)
}

func TestPreviewFetcherStopsOnCancelledContext(t *testing.T) {
	client := &fakeHTTPClient{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	previews, err := NewPreviewFetcher(client).Fetch(ctx, anandabazarProvider(t))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, previews)
	assert.Empty(t, client.calls)
}

func TestDefaultFetcherRegistryResolvesByType(t *testing.T) {
	reg := DefaultFetcherRegistry(&fakeHTTPClient{})

	f, err := reg.FetcherFor(Provider{ID: "a", Type: ProviderTypePreviewPage})
	require.NoError(t, err)
	assert.Equal(t, ProviderTypePreviewPage, f.ID())

	f, err = reg.FetcherFor(Provider{ID: "b", Type: ProviderTypeGoogleNews})
	require.NoError(t, err)
	assert.Equal(t, ProviderTypeGoogleNews, f.ID())

	_, err = reg.FetcherFor(Provider{ID: "c", Type: "rss"})
	require.Error(t, err)
}

func TestAdapterDecodesDeclaredCharset(t *testing.T) {
	reg, err := NewRegistry(Provider{
		ID:        "latin",
		Name:      "Latin",
		Type:      ProviderTypePreviewPage,
		SourceURL: "https://latin.example.com/",
		Preview: &PreviewConfig{
			BaseAddress: "https://latin.example.com",
			Layouts: []layout.SelectorSet{{
				Block: "div.item",
				Link:  layout.Field{Query: "a"},
				Image: layout.Field{Query: "img"},
				Title: layout.Field{Query: "a"},
			}},
		},
	})
	require.NoError(t, err)
	p, _ := reg.ByID("latin")

	adapter, err := NewAdapter(p)
	require.NoError(t, err)

	page := []byte("<html><head><meta charset=\"iso-8859-1\"></head><body>" +
		"<div class=\"item\"><a href=\"/c\">Caf\xe9</a><img src=\"/c.jpg\"></div></body></html>")
	res, err := adapter.Extract(page)
	require.NoError(t, err)
	require.Len(t, res.Previews, 1)
	assert.Equal(t, "Café", res.Previews[0].Title)
}
