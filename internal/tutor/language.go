package tutor

import (
	"github.com/studyhall/studyhall/internal/graph"
	"github.com/studyhall/studyhall/internal/language"
)

// DetectLanguage identifies the language of a piece of text. It never fails:
// empty or unrecognizable input is English.
func DetectLanguage(text string) string {
	return language.Detect(text)
}

// ResolveLanguage picks the response language for a tutoring request.
//
// Precedence: a guest profile's inferred language, then document metadata,
// then detection on the query itself. Every branch produces a value, so the
// result is always a usable language name.
func ResolveLanguage(guest *GuestProfile, docs []graph.Document, query string) string {
	if guest != nil && guest.Language != "" {
		return guest.Language
	}
	for _, doc := range docs {
		if lang := doc.Language(); lang != "" {
			return lang
		}
	}
	return DetectLanguage(query)
}
