// Package arabic provides diacritic-insensitive normalization for Arabic
// text. Only the Arabic combining marks are stripped, so text in other
// scripts passes through unchanged aside from whitespace trimming.
package arabic

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// diacritics covers the combining marks used for short vowels, tanwin,
// shadda, sukun, the superscript alef and the Quranic annotation signs.
var diacritics = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0610, Hi: 0x061A, Stride: 1}, // Arabic signs (honorifics, small high marks)
		{Lo: 0x064B, Hi: 0x065F, Stride: 1}, // tashkil: fathatan..wavy hamza below
		{Lo: 0x0670, Hi: 0x0670, Stride: 1}, // superscript alef
		{Lo: 0x06D6, Hi: 0x06DC, Stride: 1}, // Quranic annotation marks
		{Lo: 0x06DF, Hi: 0x06E4, Stride: 1},
		{Lo: 0x06E7, Hi: 0x06E8, Stride: 1},
		{Lo: 0x06EA, Hi: 0x06ED, Stride: 1},
		{Lo: 0x08D3, Hi: 0x08FF, Stride: 1}, // Arabic Extended-A combining marks
	},
}

// stripper removes the marks above. It carries no state between calls, so a
// single shared instance is safe for concurrent use.
var stripper = runes.Remove(runes.In(diacritics))

// Normalize returns text with Arabic diacritical marks removed and
// surrounding whitespace trimmed. It is total and idempotent: it never
// fails, and applying it twice yields the same result as applying it once.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	out, _, err := transform.String(stripper, text)
	if err != nil {
		// Invalid UTF-8 cannot gain marks by being left alone; keep the input.
		out = text
	}
	return strings.TrimSpace(out)
}
