package preview

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/Adda-Baaj/preview-harvester/pkg/datefmt"
	"github.com/Adda-Baaj/preview-harvester/pkg/layout"
)

// Site binds everything the parser needs to know about one news site.
type Site struct {
	ID          string
	BaseAddress string
	Dates       *datefmt.Normalizer
	Layouts     layout.Table
	// DateVariants limits date extraction to the listed variants. Nil means
	// every variant that declares a date selector.
	DateVariants []layout.Variant
}

// datesEnabled reports whether dates are read for variant v.
func (s Site) datesEnabled(v layout.Variant) bool {
	if s.DateVariants == nil {
		return true
	}
	return slices.Contains(s.DateVariants, v)
}

func parseBase(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("site base address is empty")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse site base address: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("site base address %q must be absolute", raw)
	}
	return base, nil
}

// resolve makes ref absolute against base. Empty or unparsable references
// yield "".
func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
