package layout

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeSet() SelectorSet {
	return SelectorSet{
		Block: "div.story",
		Link:  Field{Query: "a", Attr: "href"},
		Image: Field{Query: "img", Attr: "src"},
		Title: Field{Query: "h3"},
		Date:  &Field{Query: "span.date"},
	}
}

func TestTableOrderAndBounds(t *testing.T) {
	first := completeSet()
	second := completeSet()
	second.Block = "li.card"
	second.Date = nil

	table := NewTable(first, second)
	require.Equal(t, 2, table.Len())

	got, ok := table.At(0)
	require.True(t, ok)
	assert.Equal(t, "div.story", got.Block)

	got, ok = table.At(1)
	require.True(t, ok)
	assert.Equal(t, "li.card", got.Block)
	assert.Nil(t, got.Date)

	_, ok = table.At(2)
	assert.False(t, ok)
	_, ok = table.At(NoVariant)
	assert.False(t, ok)
}

func TestTableIsReadOnly(t *testing.T) {
	sets := []SelectorSet{completeSet()}
	table := NewTable(sets...)

	sets[0].Block = "changed"
	out := table.Sets()
	out[0].Block = "changed too"

	got, _ := table.At(0)
	assert.Equal(t, "div.story", got.Block)
}

func TestNewTableDoesNotValidate(t *testing.T) {
	table := NewTable(SelectorSet{Block: "div[", Title: Field{Query: ""}})
	assert.Equal(t, 1, table.Len())
}

func TestSelectorSetCheck(t *testing.T) {
	require.NoError(t, completeSet().Check())

	noDate := completeSet()
	noDate.Date = nil
	require.NoError(t, noDate.Check())

	err := SelectorSet{Block: "div"}.Check()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncompleteSet))
	assert.Contains(t, err.Error(), "link.query")
	assert.Contains(t, err.Error(), "title.query")

	emptyDate := completeSet()
	emptyDate.Date = &Field{}
	assert.Error(t, emptyDate.Check())
}

func TestFieldValue(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
<div><a href=" /news/1 ">  Breaking
   news  </a></div>`))
	require.NoError(t, err)

	link := doc.Find("a")
	assert.Equal(t, "/news/1", Field{Query: "a", Attr: "href"}.Value(link))
	assert.Equal(t, "Breaking news", Field{Query: "a"}.Value(link))
	assert.Equal(t, "", Field{Query: "a", Attr: "data-src"}.Value(link))
}

func TestCompileRejectsMalformedSelector(t *testing.T) {
	_, err := Compile("div[")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedSelector))

	m, err := Compile("div > a.title")
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestMatchersCacheConcurrent(t *testing.T) {
	m := NewMatchers()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Get("article h2 a")
			assert.NoError(t, err)
			_, err = m.Get("a[href")
			assert.ErrorIs(t, err, ErrMalformedSelector)
		}()
	}
	wg.Wait()

	m.mu.RLock()
	defer m.mu.RUnlock()
	assert.Len(t, m.cache, 1)
}
