// Package datefmt turns site-local publication dates into the canonical
// date-time strings used across the pipeline.
package datefmt

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Canonical is the layout of every normalized date-time. Values are rendered in UTC.
const Canonical = time.RFC3339

// ErrDateMismatch reports that a raw date did not match the site layout.
var ErrDateMismatch = errors.New("date does not match layout")

// futureSlack bounds how far ahead of the clock a year-less date may land
// before it is attributed to the previous year.
const futureSlack = 24 * time.Hour

// Normalizer parses dates rendered in one site's layout and locale.
type Normalizer struct {
	layout string
	fields layoutFields
	loc    *time.Location
	locale Locale
	now    func() time.Time
}

// Option customizes a Normalizer.
type Option func(*Normalizer)

// WithLocation sets the zone used when the layout carries no offset.
func WithLocation(loc *time.Location) Option {
	return func(n *Normalizer) {
		if loc != nil {
			n.loc = loc
		}
	}
}

// WithLocale sets the locale used to rewrite month and weekday names.
func WithLocale(l Locale) Option {
	return func(n *Normalizer) { n.locale = l }
}

// WithClock overrides the clock used to infer missing years.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// New builds a Normalizer for a Go time layout. An empty layout means the site
// already publishes canonical timestamps.
func New(layout string, opts ...Option) *Normalizer {
	layout = strings.TrimSpace(layout)
	if layout == "" {
		layout = Canonical
	}
	n := &Normalizer{
		layout: layout,
		loc:    time.UTC,
		locale: English,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.fields = fieldsOf(layout)
	return n
}

// Layout returns the site layout.
func (n *Normalizer) Layout() string { return n.layout }

// Location returns the site time zone.
func (n *Normalizer) Location() *time.Location { return n.loc }

// Parse interprets raw in the site layout. Canonical input is accepted as well.
func (n *Normalizer) Parse(raw string) (time.Time, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return time.Time{}, fmt.Errorf("empty date: %w", ErrDateMismatch)
	}
	text = n.locale.Rewrite(TranslateDigits(text))
	text = strings.Join(strings.Fields(text), " ")

	t, err := time.ParseInLocation(n.layout, text, n.loc)
	if err != nil {
		if ct, cerr := time.Parse(Canonical, text); cerr == nil {
			return ct, nil
		}
		return time.Time{}, fmt.Errorf("parse %q with layout %q: %w", raw, n.layout, ErrDateMismatch)
	}
	switch {
	case !n.fields.year && !n.fields.month && !n.fields.day:
		t = n.onToday(t)
	case !n.fields.year:
		t = n.withInferredYear(t)
	}
	return t, nil
}

// Normalize returns the canonical form of raw, or false when raw cannot be
// parsed. A false result is a normal outcome for noisy listing pages.
func (n *Normalizer) Normalize(raw string) (string, bool) {
	t, err := n.Parse(raw)
	if err != nil {
		return "", false
	}
	return t.UTC().Format(Canonical), true
}

// Render formats a canonical value back in the site layout and zone, using
// ASCII digits and English calendar words.
func (n *Normalizer) Render(canonical string) (string, error) {
	t, err := time.Parse(Canonical, strings.TrimSpace(canonical))
	if err != nil {
		return "", fmt.Errorf("parse canonical %q: %w", canonical, ErrDateMismatch)
	}
	return t.In(n.loc).Format(n.layout), nil
}

// withInferredYear places a year-less date in the most recent year it fits,
// so 29 February never rolls over into March.
func (n *Normalizer) withInferredYear(t time.Time) time.Time {
	now := n.now().In(n.loc)
	year := fittingYear(t, now.Year())
	guess := inYear(t, year, n.loc)
	if guess.After(now.Add(futureSlack)) {
		guess = inYear(t, fittingYear(t, year-1), n.loc)
	}
	return guess
}

// onToday dates a time-only value on the current day in the site zone.
func (n *Normalizer) onToday(t time.Time) time.Time {
	now := n.now().In(n.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), n.loc)
}

func inYear(t time.Time, year int, loc *time.Location) time.Time {
	return time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// fittingYear returns the latest year not after year that has t's month and day.
func fittingYear(t time.Time, year int) int {
	for {
		d := time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if d.Month() == t.Month() && d.Day() == t.Day() {
			return year
		}
		year--
	}
}

// layoutFields records which calendar fields a layout renders.
type layoutFields struct {
	year, month, day bool
}

// fieldsOf compares renderings of reference dates that differ in a single
// field. The pairs share a weekday so weekday names do not count as a field.
func fieldsOf(layout string) layoutFields {
	ref := time.Date(2001, time.February, 3, 4, 5, 6, 0, time.UTC)
	differs := func(other time.Time) bool {
		return ref.Format(layout) != other.Format(layout)
	}
	return layoutFields{
		year:  differs(time.Date(2029, time.February, 3, 4, 5, 6, 0, time.UTC)),
		month: differs(time.Date(2001, time.March, 3, 4, 5, 6, 0, time.UTC)),
		day:   differs(time.Date(2001, time.February, 10, 4, 5, 6, 0, time.UTC)),
	}
}
