// Package normalize canonicalizes recognized speech before the dialogue
// engine interprets it.
package normalize

import "strings"

// numberWords maps spoken number forms to the digit the menus key on.
var numberWords = map[string]string{
	"zero":  "0",
	"one":   "1",
	"two":   "2",
	"three": "3",
	"four":  "4",

	"first":  "1",
	"second": "2",
	"third":  "3",
	"fourth": "4",

	"1st": "1",
	"2nd": "2",
	"3rd": "3",
	"4th": "4",
}

// Normalize lower-cases and trims text, maps number words to digits and
// collapses whitespace. Unknown words pass through unchanged, so the
// function is total and idempotent.
func Normalize(text string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	for i, w := range words {
		if digit, ok := numberWords[w]; ok {
			words[i] = digit
		}
	}
	return strings.Join(words, " ")
}
