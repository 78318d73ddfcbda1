// Package language provides lightweight language identification for
// choosing response and fallback languages.
package language

import (
	"strings"
	"unicode"
)

// spanishCues are tokens that mark text as Spanish without script analysis.
var spanishCues = []string{"español", "¿", "¡", "por favor", "gracias"}

// Detect identifies the language of a piece of text. It recognizes Arabic by
// script and Spanish by common markers, and reports English for everything
// else. It never fails: empty or unrecognizable input is English.
func Detect(text string) string {
	for _, r := range text {
		if unicode.Is(unicode.Arabic, r) {
			return "Arabic"
		}
	}

	lower := strings.ToLower(text)
	for _, cue := range spanishCues {
		if strings.Contains(lower, cue) {
			return "Spanish"
		}
	}

	return "English"
}
