package cpa

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// indicatorCategory groups tutoring vocabulary by intent. Strong categories
// signal tutoring on a single match; weak ones only in combination.
type indicatorCategory struct {
	name   string
	strong bool
	terms  []string
}

// tutoringIndicators is the full detection table. Terms match on word
// boundaries over the lowercased query, so "learn" never fires inside
// "learning". The scorer below is pure, so the same query always produces
// the same decision.
//
// Generic question openers are weak on purpose: a bare factual question like
// "what is machine learning?" is answered in place, not delegated.
var tutoringIndicators = []indicatorCategory{
	{
		name:   "learning",
		strong: true,
		terms: []string{
			"explain", "teach", "learn", "understand",
			"help me with", "can you help",
		},
	},
	{
		name: "questions",
		terms: []string{
			"what is", "how to", "why does",
		},
	},
	{
		name: "subjects",
		terms: []string{
			"math", "mathematics", "algebra", "calculus", "geometry",
			"physics", "chemistry", "biology", "science", "history",
			"english", "literature", "grammar",
		},
	},
	{
		name: "practice",
		terms: []string{
			"practice", "exercise", "quiz", "test", "homework",
			"solve", "calculate", "find the answer",
		},
	},
	{
		name: "interaction",
		terms: []string{
			"step by step", "break down", "simplify", "make it easier",
			"i don't understand", "confused", "struggling",
		},
	},
	{
		name:   "personalization",
		strong: true,
		terms: []string{
			"adapt", "personalize", "my level", "difficulty",
			"visual", "examples", "practice problems",
			"show me", "picture", "pictures", "diagram",
		},
	},
}

// IsTutoringRequest reports whether a query asks for tutoring rather than
// plain content processing. A single match in a strong category is enough;
// weak categories need matches in at least two distinct categories.
func IsTutoringRequest(query string) bool {
	strong, categories := scoreTutoringSignals(query)
	return strong >= 1 || categories >= 2
}

// scoreTutoringSignals counts matched strong categories and matched
// categories overall. A category counts once no matter how many of its terms
// appear.
func scoreTutoringSignals(query string) (strong, categories int) {
	q := strings.ToLower(query)
	for _, cat := range tutoringIndicators {
		for _, term := range cat.terms {
			if containsTerm(q, term) {
				categories++
				if cat.strong {
					strong++
				}
				break
			}
		}
	}
	return strong, categories
}

// containsTerm reports whether term occurs in q on word boundaries. Plain
// substring matching would let short stems fire inside longer words.
func containsTerm(q, term string) bool {
	for from := 0; ; {
		i := strings.Index(q[from:], term)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(term)
		if boundaryBefore(q, start) && boundaryAfter(q, end) {
			return true
		}
		from = start + 1
	}
}

func boundaryBefore(q string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(q[:i])
	return !isWordRune(r)
}

func boundaryAfter(q string, i int) bool {
	if i == len(q) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(q[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
