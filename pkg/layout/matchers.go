package layout

import (
	"errors"
	"fmt"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// ErrMalformedSelector reports a selector the query engine cannot parse. It
// points at a broken site configuration rather than at page content.
var ErrMalformedSelector = errors.New("malformed selector")

// Compile parses a CSS selector. goquery's string helpers treat an invalid
// selector as one that matches nothing, so queries are compiled here to keep
// configuration bugs visible.
func Compile(query string) (goquery.Matcher, error) {
	sel, err := cascadia.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrMalformedSelector, query, err)
	}
	return sel, nil
}

// Matchers caches compiled selectors. It is safe for concurrent use.
type Matchers struct {
	mu    sync.RWMutex
	cache map[string]goquery.Matcher
}

// NewMatchers returns an empty cache.
func NewMatchers() *Matchers {
	return &Matchers{cache: make(map[string]goquery.Matcher)}
}

// Get returns the compiled matcher for query, compiling it on first use.
// Malformed queries are not cached and fail every time.
func (m *Matchers) Get(query string) (goquery.Matcher, error) {
	m.mu.RLock()
	matcher, ok := m.cache[query]
	m.mu.RUnlock()
	if ok {
		return matcher, nil
	}

	matcher, err := Compile(query)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.cache[query] = matcher
	m.mu.Unlock()
	return matcher, nil
}
