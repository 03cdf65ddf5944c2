// Package preview extracts article previews from news-site listing pages
// using a site's ordered table of layout variants.
package preview

import (
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"

	"github.com/Adda-Baaj/preview-harvester/internal/domain"
	"github.com/Adda-Baaj/preview-harvester/pkg/datefmt"
	"github.com/Adda-Baaj/preview-harvester/pkg/layout"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
)

// ErrStructuralMismatch reports a required field missing from a preview block.
// Blocks failing this way are skipped.
var ErrStructuralMismatch = errors.New("preview block missing required field")

// Result describes one extraction pass.
type Result struct {
	// Variant is the layout that matched, or layout.NoVariant.
	Variant  layout.Variant
	Blocks   int
	Skipped  int
	Previews []domain.ArticlePreview
}

// Parser runs the preview extraction algorithm for one site. A Parser is safe
// for concurrent use; every call determines its layout independently.
type Parser struct {
	site     Site
	base     *url.URL
	matchers *layout.Matchers
	workers  int
	log      Logger
	last     atomic.Int64
}

// Option customizes a Parser.
type Option func(*Parser)

// WithWorkers extracts up to n blocks in parallel. Output order is unaffected.
func WithWorkers(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the logger used for skipped blocks and layout changes.
func WithLogger(log Logger) Option {
	return func(p *Parser) { p.log = ensureLogger(log) }
}

// WithMatchers shares a selector cache between parsers.
func WithMatchers(m *layout.Matchers) Option {
	return func(p *Parser) {
		if m != nil {
			p.matchers = m
		}
	}
}

// NewParser binds the algorithm to a site. Only the base address is checked;
// selectors are compiled when first used.
func NewParser(site Site, opts ...Option) (*Parser, error) {
	base, err := parseBase(site.BaseAddress)
	if err != nil {
		return nil, fmt.Errorf("site %q: %w", site.ID, err)
	}
	if site.Dates == nil {
		site.Dates = datefmt.New("")
	}
	p := &Parser{
		site:     site,
		base:     base,
		matchers: layout.NewMatchers(),
		workers:  1,
		log:      noopLogger{},
	}
	p.last.Store(int64(layout.NoVariant))
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Site returns the site the parser is bound to.
func (p *Parser) Site() Site { return p.site }

// LastVariant returns the layout that matched on the most recent call that
// found preview blocks.
func (p *Parser) LastVariant() (layout.Variant, bool) {
	v := layout.Variant(p.last.Load())
	return v, v != layout.NoVariant
}

// Previews returns the previews found in doc, in document order.
func (p *Parser) Previews(doc *goquery.Document) ([]domain.ArticlePreview, error) {
	res, err := p.Extract(doc)
	if err != nil {
		return nil, err
	}
	return res.Previews, nil
}

// Extract locates preview blocks with the first layout variant that matches
// any, then extracts one preview per block with that variant's selectors.
// Blocks missing a required field are skipped. The only error returned is a
// configuration error such as a malformed selector.
func (p *Parser) Extract(doc *goquery.Document) (Result, error) {
	res := Result{Variant: layout.NoVariant, Previews: []domain.ArticlePreview{}}
	if doc == nil {
		return res, fmt.Errorf("site %q: nil document", p.site.ID)
	}

	variant, blocks, err := p.selectVariant(doc.Selection)
	if err != nil {
		return res, err
	}
	if variant == layout.NoVariant {
		return res, nil
	}
	p.noteVariant(variant)

	set, _ := p.site.Layouts.At(variant)
	slots, err := p.extractBlocks(variant, set, blocks)
	if err != nil {
		return res, err
	}

	res.Variant = variant
	res.Blocks = len(slots)
	for _, slot := range slots {
		if slot == nil {
			res.Skipped++
			continue
		}
		res.Previews = append(res.Previews, *slot)
	}
	return res, nil
}

// selectVariant walks the layout table in order and returns the first variant
// whose block selector matches.
func (p *Parser) selectVariant(root *goquery.Selection) (layout.Variant, *goquery.Selection, error) {
	for i, set := range p.site.Layouts.Sets() {
		m, err := p.matchers.Get(set.Block)
		if err != nil {
			return layout.NoVariant, nil, fmt.Errorf("site %q variant %d block: %w", p.site.ID, i, err)
		}
		if blocks := root.FindMatcher(m); blocks.Length() > 0 {
			return layout.Variant(i), blocks, nil
		}
	}
	return layout.NoVariant, nil, nil
}

func (p *Parser) noteVariant(v layout.Variant) {
	prev := layout.Variant(p.last.Swap(int64(v)))
	if prev != layout.NoVariant && prev != v {
		p.log.WarnObj("preview layout changed", "preview_layout", map[string]any{
			"site_id":  p.site.ID,
			"previous": int(prev),
			"current":  int(v),
		})
	}
}

// extractBlocks returns one slot per block in document order; skipped blocks
// leave a nil slot.
func (p *Parser) extractBlocks(v layout.Variant, set layout.SelectorSet, blocks *goquery.Selection) ([]*domain.ArticlePreview, error) {
	slots := make([]*domain.ArticlePreview, blocks.Length())

	if p.workers <= 1 || len(slots) <= 1 {
		for i := range slots {
			prev, err := p.extractOne(v, set, i, blocks.Eq(i))
			if err != nil {
				return nil, err
			}
			slots[i] = prev
		}
		return slots, nil
	}

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i := range slots {
		block := blocks.Eq(i)
		g.Go(func() error {
			prev, err := p.extractOne(v, set, i, block)
			if err != nil {
				return err
			}
			slots[i] = prev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slots, nil
}

// extractOne returns nil with no error when the block is skipped.
func (p *Parser) extractOne(v layout.Variant, set layout.SelectorSet, idx int, block *goquery.Selection) (*domain.ArticlePreview, error) {
	prev, err := p.extractBlock(v, set, block)
	switch {
	case err == nil:
		return &prev, nil
	case errors.Is(err, ErrStructuralMismatch):
		p.log.DebugObj("preview block skipped", "preview_skip", map[string]any{
			"site_id": p.site.ID,
			"variant": int(v),
			"block":   idx,
			"reason":  err.Error(),
		})
		return nil, nil
	default:
		return nil, fmt.Errorf("site %q variant %d: %w", p.site.ID, v, err)
	}
}

func (p *Parser) extractBlock(v layout.Variant, set layout.SelectorSet, block *goquery.Selection) (domain.ArticlePreview, error) {
	link, err := p.required(block, set.Link, "link")
	if err != nil {
		return domain.ArticlePreview{}, err
	}
	if link = resolve(p.base, link); link == "" {
		return domain.ArticlePreview{}, fmt.Errorf("link: unusable url: %w", ErrStructuralMismatch)
	}

	image, err := p.required(block, set.Image, "image")
	if err != nil {
		return domain.ArticlePreview{}, err
	}
	if image = resolve(p.base, image); image == "" {
		return domain.ArticlePreview{}, fmt.Errorf("image: unusable url: %w", ErrStructuralMismatch)
	}

	title, err := p.required(block, set.Title, "title")
	if err != nil {
		return domain.ArticlePreview{}, err
	}

	published, err := p.date(v, set, block)
	if err != nil {
		return domain.ArticlePreview{}, err
	}

	return domain.ArticlePreview{
		SiteBaseAddress:  p.site.BaseAddress,
		ArticleLink:      link,
		PreviewImageLink: image,
		Title:            title,
		PublishedAt:      published,
	}, nil
}

// required reads a field that must be present and non-empty.
func (p *Parser) required(block *goquery.Selection, f layout.Field, name string) (string, error) {
	el, err := p.lookup(block, f)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	if el == nil {
		return "", fmt.Errorf("%s: no element matches %q: %w", name, f.Query, ErrStructuralMismatch)
	}
	val := f.Value(el)
	if val == "" {
		return "", fmt.Errorf("%s: element matching %q is empty: %w", name, f.Query, ErrStructuralMismatch)
	}
	return val, nil
}

// date reads and normalizes the publication date. Every content problem
// yields nil; only selector errors are returned.
func (p *Parser) date(v layout.Variant, set layout.SelectorSet, block *goquery.Selection) (*string, error) {
	if set.Date == nil || !p.site.datesEnabled(v) {
		return nil, nil
	}
	el, err := p.lookup(block, *set.Date)
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	if el == nil {
		return nil, nil
	}
	canonical, ok := p.site.Dates.Normalize(set.Date.Value(el))
	if !ok {
		return nil, nil
	}
	return &canonical, nil
}

// lookup returns the first element matching f within block, counting the
// block element itself. A nil selection means nothing matched.
func (p *Parser) lookup(block *goquery.Selection, f layout.Field) (*goquery.Selection, error) {
	m, err := p.matchers.Get(f.Query)
	if err != nil {
		return nil, err
	}
	if self := block.FilterMatcher(m); self.Length() > 0 {
		return self.First(), nil
	}
	if found := block.FindMatcher(m); found.Length() > 0 {
		return found.First(), nil
	}
	return nil, nil
}
