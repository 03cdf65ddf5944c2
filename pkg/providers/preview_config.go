package providers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/preview-harvester/pkg/layout"
)

const (
	defaultLinkAttr  = "href"
	defaultImageAttr = "src"
)

// PreviewConfig is the per-site configuration of a preview_page provider.
type PreviewConfig struct {
	// Preset names a builtin site whose values fill every unset field.
	Preset       string               `json:"preset" yaml:"preset"`
	BaseAddress  string               `json:"base_address" yaml:"base_address"`
	DateFormat   string               `json:"date_format" yaml:"date_format"`
	Locale       string               `json:"locale" yaml:"locale"`
	Timezone     string               `json:"timezone" yaml:"timezone"`
	DateVariants []int                `json:"date_variants" yaml:"date_variants"`
	Layouts      []layout.SelectorSet `json:"layouts" yaml:"layouts"`
}

func sanitizePreviewConfig(cfg PreviewConfig) (PreviewConfig, error) {
	cfg.Preset = strings.ToLower(strings.TrimSpace(cfg.Preset))
	if cfg.Preset != "" {
		preset, ok := Preset(cfg.Preset)
		if !ok {
			return cfg, fmt.Errorf("unknown preview preset %q", cfg.Preset)
		}
		cfg = mergePreset(cfg, preset)
	}

	cfg.BaseAddress = strings.TrimRight(strings.TrimSpace(cfg.BaseAddress), "/")
	cfg.DateFormat = strings.TrimSpace(cfg.DateFormat)
	cfg.Locale = strings.TrimSpace(cfg.Locale)
	cfg.Timezone = strings.TrimSpace(cfg.Timezone)

	layouts := make([]layout.SelectorSet, len(cfg.Layouts))
	for i, set := range cfg.Layouts {
		layouts[i] = sanitizeSelectorSet(set)
	}
	cfg.Layouts = layouts
	return cfg, nil
}

func sanitizeSelectorSet(set layout.SelectorSet) layout.SelectorSet {
	set.Block = strings.TrimSpace(set.Block)
	set.Link = sanitizeField(set.Link, defaultLinkAttr)
	set.Image = sanitizeField(set.Image, defaultImageAttr)
	set.Title = sanitizeField(set.Title, "")
	if set.Date != nil {
		d := sanitizeField(*set.Date, "")
		set.Date = &d
	}
	return set
}

func sanitizeField(f layout.Field, defaultAttr string) layout.Field {
	f.Query = strings.TrimSpace(f.Query)
	f.Attr = strings.TrimSpace(f.Attr)
	if f.Attr == "" {
		f.Attr = defaultAttr
	}
	return f
}

func mergePreset(cfg, preset PreviewConfig) PreviewConfig {
	if cfg.BaseAddress == "" {
		cfg.BaseAddress = preset.BaseAddress
	}
	if cfg.DateFormat == "" {
		cfg.DateFormat = preset.DateFormat
	}
	if cfg.Locale == "" {
		cfg.Locale = preset.Locale
	}
	if cfg.Timezone == "" {
		cfg.Timezone = preset.Timezone
	}
	// Date variants index into the preset layouts and mean nothing for custom ones.
	if len(cfg.Layouts) == 0 {
		cfg.Layouts = append([]layout.SelectorSet(nil), preset.Layouts...)
		if cfg.DateVariants == nil {
			cfg.DateVariants = append([]int(nil), preset.DateVariants...)
		}
	}
	return cfg
}

// validatePreviewConfig checks that a site is fully described. Selector
// syntax is not checked here.
func validatePreviewConfig(cfg PreviewConfig) error {
	if cfg.BaseAddress == "" {
		return errors.New("preview.base_address is required")
	}
	if len(cfg.Layouts) == 0 {
		return errors.New("preview.layouts requires at least one layout")
	}
	for i, set := range cfg.Layouts {
		if err := set.Check(); err != nil {
			return fmt.Errorf("preview.layouts[%d]: %w", i, err)
		}
	}
	for _, v := range cfg.DateVariants {
		if v < 0 || v >= len(cfg.Layouts) {
			return fmt.Errorf("preview.date_variants: variant %d out of range", v)
		}
	}
	if cfg.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Timezone); err != nil {
			return fmt.Errorf("preview.timezone: %w", err)
		}
	}
	return nil
}
