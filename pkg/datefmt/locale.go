package datefmt

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Locale rewrites locale-specific calendar words into the English forms
// understood by Go time layouts.
type Locale struct {
	Tag      language.Tag
	replacer *strings.Replacer
}

// English is the identity locale.
var English = Locale{Tag: language.English}

// Month, weekday and meridiem words. Several sites spell the same month in
// more than one way, so every known spelling is listed. Longer spellings come
// first because strings.Replacer prefers earlier pairs.
var bengaliWords = []string{
	"জানুয়ারি", "January",
	"জানুয়ারী", "January",
	"ফেব্রুয়ারি", "February",
	"ফেব্রুয়ারী", "February",
	"মার্চ", "March",
	"এপ্রিল", "April",
	"জুন", "June",
	"জুলাই", "July",
	"আগস্ট", "August",
	"অগস্ট", "August",
	"আগষ্ট", "August",
	"সেপ্টেম্বর", "September",
	"অক্টোবর", "October",
	"নভেম্বর", "November",
	"ডিসেম্বর", "December",
	"মে", "May",
	"রবিবার", "Sunday",
	"সোমবার", "Monday",
	"মঙ্গলবার", "Tuesday",
	"বুধবার", "Wednesday",
	"বৃহস্পতিবার", "Thursday",
	"শুক্রবার", "Friday",
	"শনিবার", "Saturday",
	"পূর্বাহ্ণ", "AM",
	"অপরাহ্ণ", "PM",
}

var hindiWords = []string{
	"जनवरी", "January",
	"फ़रवरी", "February",
	"फरवरी", "February",
	"मार्च", "March",
	"अप्रैल", "April",
	"मई", "May",
	"जून", "June",
	"जुलाई", "July",
	"अगस्त", "August",
	"सितंबर", "September",
	"सितम्बर", "September",
	"अक्टूबर", "October",
	"अक्तूबर", "October",
	"नवंबर", "November",
	"नवम्बर", "November",
	"दिसंबर", "December",
	"दिसम्बर", "December",
	"रविवार", "Sunday",
	"सोमवार", "Monday",
	"मंगलवार", "Tuesday",
	"बुधवार", "Wednesday",
	"गुरुवार", "Thursday",
	"शुक्रवार", "Friday",
	"शनिवार", "Saturday",
	"पूर्वाह्न", "AM",
	"अपराह्न", "PM",
}

var (
	supportedTags = []language.Tag{language.English, language.Bengali, language.Hindi}
	tagMatcher    = language.NewMatcher(supportedTags)
	localeWords   = map[language.Tag][]string{
		language.Bengali: bengaliWords,
		language.Hindi:   hindiWords,
	}
)

// LookupLocale resolves a BCP 47 tag (e.g. "bn", "bn-IN", "hi") to the closest
// supported locale. Unknown or empty tags resolve to English.
func LookupLocale(tag string) Locale {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return English
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return English
	}
	_, idx, conf := tagMatcher.Match(parsed)
	if conf == language.No {
		return English
	}
	return newLocale(supportedTags[idx])
}

func newLocale(tag language.Tag) Locale {
	words, ok := localeWords[tag]
	if !ok {
		return Locale{Tag: tag}
	}
	pairs := make([]string, len(words))
	for i, w := range words {
		pairs[i] = norm.NFC.String(w)
	}
	return Locale{Tag: tag, replacer: strings.NewReplacer(pairs...)}
}

// Rewrite replaces locale calendar words with their English equivalents.
// Input is NFC-normalized first so precomposed and decomposed spellings of the
// same word match.
func (l Locale) Rewrite(s string) string {
	s = norm.NFC.String(s)
	if l.replacer == nil {
		return s
	}
	return l.replacer.Replace(s)
}
