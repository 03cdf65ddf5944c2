package datefmt

import (
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// numeralZeros lists the code point of the digit zero for every decimal numeral
// system sites are known to print dates in. Each system occupies ten consecutive
// code points starting at its zero.
var numeralZeros = []rune{
	'٠', // Arabic-Indic
	'۰', // Extended Arabic-Indic (Persian, Urdu)
	'०', // Devanagari
	'০', // Bengali
	'੦', // Gurmukhi
	'૦', // Gujarati
	'୦', // Oriya
	'௦', // Tamil
	'౦', // Telugu
	'೦', // Kannada
	'൦', // Malayalam
	'๐', // Thai
	'໐', // Lao
	'༠', // Tibetan
	'၀', // Myanmar
	'០', // Khmer
	'０', // Fullwidth
}

var digitMapper = runes.Map(asciiDigit)

func asciiDigit(r rune) rune {
	if r < 0x0660 {
		return r
	}
	for _, zero := range numeralZeros {
		if r >= zero && r <= zero+9 {
			return '0' + (r - zero)
		}
	}
	return r
}

// TranslateDigits replaces every non-Latin decimal digit in s with its ASCII
// counterpart. All other runes, including separators and month names, are kept
// in place.
func TranslateDigits(s string) string {
	out, _, err := transform.String(digitMapper, s)
	if err != nil {
		return s
	}
	return out
}
