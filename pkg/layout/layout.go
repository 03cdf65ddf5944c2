// Package layout models the per-site table of markup layouts a listing page
// may be served in, and the selectors that locate preview fields in each.
package layout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Variant indexes a layout within a Table. Variants are tried in ascending order.
type Variant int

// NoVariant is reported when no layout matched a document.
const NoVariant Variant = -1

// Field locates one value inside a preview block. When Attr is empty the value
// is the element's visible text.
type Field struct {
	Query string `json:"query" yaml:"query"`
	Attr  string `json:"attr,omitempty" yaml:"attr,omitempty"`
}

// Value reads the field from an already matched element.
func (f Field) Value(sel *goquery.Selection) string {
	if f.Attr == "" {
		return strings.Join(strings.Fields(sel.Text()), " ")
	}
	val, _ := sel.Attr(f.Attr)
	return strings.TrimSpace(val)
}

// SelectorSet holds the selectors of one layout variant.
type SelectorSet struct {
	Block string `json:"block" yaml:"block"`
	Link  Field  `json:"link" yaml:"link"`
	Image Field  `json:"image" yaml:"image"`
	Title Field  `json:"title" yaml:"title"`
	// Date is nil for layouts whose listing page carries no date.
	Date *Field `json:"date,omitempty" yaml:"date,omitempty"`
}

// ErrIncompleteSet reports a selector set missing a required query.
var ErrIncompleteSet = errors.New("incomplete selector set")

// Check reports required selectors that are missing. It does not compile them;
// malformed queries only surface when a document is queried.
func (s SelectorSet) Check() error {
	var missing []string
	if strings.TrimSpace(s.Block) == "" {
		missing = append(missing, "block")
	}
	if strings.TrimSpace(s.Link.Query) == "" {
		missing = append(missing, "link.query")
	}
	if strings.TrimSpace(s.Link.Attr) == "" {
		missing = append(missing, "link.attr")
	}
	if strings.TrimSpace(s.Image.Query) == "" {
		missing = append(missing, "image.query")
	}
	if strings.TrimSpace(s.Image.Attr) == "" {
		missing = append(missing, "image.attr")
	}
	if strings.TrimSpace(s.Title.Query) == "" {
		missing = append(missing, "title.query")
	}
	if s.Date != nil && strings.TrimSpace(s.Date.Query) == "" {
		missing = append(missing, "date.query")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncompleteSet, strings.Join(missing, ", "))
	}
	return nil
}

// Table is the ordered, read-only list of layouts known for one site.
type Table struct {
	sets []SelectorSet
}

// NewTable copies sets into a Table. Variant i is sets[i].
func NewTable(sets ...SelectorSet) Table {
	cp := make([]SelectorSet, len(sets))
	copy(cp, sets)
	return Table{sets: cp}
}

// Len returns the number of variants.
func (t Table) Len() int { return len(t.sets) }

// At returns the selector set of variant v.
func (t Table) At(v Variant) (SelectorSet, bool) {
	if v < 0 || int(v) >= len(t.sets) {
		return SelectorSet{}, false
	}
	return t.sets[v], true
}

// Sets returns a copy of the selector sets in variant order.
func (t Table) Sets() []SelectorSet {
	out := make([]SelectorSet, len(t.sets))
	copy(out, t.sets)
	return out
}
