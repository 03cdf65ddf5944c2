package providers

import (
	"sort"

	"github.com/Adda-Baaj/preview-harvester/pkg/layout"
)

// Builtin site presets. A providers file can reference one with
// `preview.preset` and override individual values.
var presets = map[string]PreviewConfig{
	"anandabazar": {
		BaseAddress: "https://www.anandabazar.com",
		// e.g. "১৯ অক্টোবর ২০২৬ ১৪:৩০"
		DateFormat: "2 January 2006 15:04",
		Locale:     "bn-IN",
		Timezone:   "Asia/Kolkata",
		// The compact section layout carries no date.
		DateVariants: []int{0},
		Layouts: []layout.SelectorSet{
			{
				Block: "div.story-list div.story-box",
				Link:  layout.Field{Query: "a", Attr: "href"},
				Image: layout.Field{Query: "img", Attr: "data-src"},
				Title: layout.Field{Query: "h3"},
				Date:  &layout.Field{Query: "div.story-time"},
			},
			{
				Block: "ul.section-list > li",
				Link:  layout.Field{Query: "a", Attr: "href"},
				Image: layout.Field{Query: "img", Attr: "src"},
				Title: layout.Field{Query: "h2"},
			},
		},
	},
}

// Preset returns a copy of the named builtin preset.
func Preset(name string) (PreviewConfig, bool) {
	p, ok := presets[name]
	if !ok {
		return PreviewConfig{}, false
	}
	p.DateVariants = append([]int(nil), p.DateVariants...)
	p.Layouts = append([]layout.SelectorSet(nil), p.Layouts...)
	return p, true
}

// PresetNames lists the builtin presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
