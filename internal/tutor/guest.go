package tutor

import (
	"regexp"
	"strings"

	"github.com/studyhall/studyhall/internal/learner"
)

// GuestProfile is the in-memory profile for an unregistered learner. It is
// inferred from the query text alone, lives for one request, and is never
// persisted.
type GuestProfile struct {
	GradeLevel      int
	LearningStyle   learner.Style
	Difficulty      learner.Difficulty
	Language        string
	AvgResponseTime float64
	AccuracyRate    float64
	CompletionRate  float64
}

// InferGuestProfile builds a guest profile from query text. Inference is
// deterministic: the same query always yields the same profile.
func InferGuestProfile(query string) GuestProfile {
	q := strings.ToLower(query)
	grade := inferGradeLevel(q)
	return GuestProfile{
		GradeLevel:      grade,
		LearningStyle:   inferLearningStyle(q),
		Difficulty:      inferDifficulty(q, grade),
		Language:        DetectLanguage(query),
		AvgResponseTime: 15.0,
		AccuracyRate:    0.7,
		CompletionRate:  0.8,
	}
}

var (
	gradeRe = regexp.MustCompile(`(\d+)\s*(?:st|nd|rd|th)?\s*grade`)
	apRe    = regexp.MustCompile(`\bap\b`)
)

// gradeSignals maps topic vocabulary to a grade level. Checked in order, so
// the more specific tiers come before the broad middle-school bucket.
var gradeSignals = []struct {
	grade int
	terms []string
}{
	{1, []string{"kindergarten", "preschool", "abc", "counting"}},
	{4, []string{"elementary", "addition", "subtraction"}},
	{11, []string{"high school", "trigonometry", "calculus", "chemistry", "physics"}},
	{16, []string{"college", "university", "theoretical", "complex analysis"}},
	{8, []string{"middle school", "algebra"}},
}

// inferGradeLevel estimates a grade from the query. An explicit "7th grade"
// style mention wins outright; otherwise topic vocabulary decides, and an
// unknown topic defaults to grade 8.
func inferGradeLevel(q string) int {
	if m := gradeRe.FindStringSubmatch(q); m != nil {
		grade := 0
		for _, r := range m[1] {
			grade = grade*10 + int(r-'0')
		}
		if grade >= 1 && grade <= 16 {
			return grade
		}
	}

	// Fractions span elementary through middle school; surrounding cues
	// decide which.
	if strings.Contains(q, "fraction") {
		for _, cue := range []string{"3rd", "4th", "elementary", "simple"} {
			if strings.Contains(q, cue) {
				return 4
			}
		}
		return 8
	}

	for _, sig := range gradeSignals {
		for _, term := range sig.terms {
			if strings.Contains(q, term) {
				return sig.grade
			}
		}
	}
	if apRe.MatchString(q) {
		return 11
	}
	return 8
}

// styleSignals pairs each learning style with its query vocabulary.
// First match wins, in this order.
var styleSignals = []struct {
	style learner.Style
	terms []string
}{
	{learner.StyleVisual, []string{"show me", "diagram", "picture", "visual", "see", "draw", "chart"}},
	{learner.StyleAuditory, []string{"explain", "tell me", "talk", "listen", "hear", "discuss"}},
	{learner.StyleKinesthetic, []string{"hands-on", "practice", "do", "try", "interactive", "game"}},
	{learner.StyleAnalytical, []string{"analyze", "prove", "theory", "logic", "detailed"}},
	{learner.StyleCreative, []string{"creative", "imagine", "design", "artistic"}},
}

func inferLearningStyle(q string) learner.Style {
	for _, sig := range styleSignals {
		for _, term := range sig.terms {
			if strings.Contains(q, term) {
				return sig.style
			}
		}
	}
	return learner.StyleMixed
}

var (
	easyTerms = []string{
		"simple", "easy", "basic", "confused", "confusing",
		"don't understand", "hard for me", "help me", "struggling",
	}
	challengingTerms = []string{
		"challenging", "advanced", "complex", "difficult",
		"in-depth", "theoretical", "rigorous",
	}
)

// inferDifficulty picks a difficulty from explicit cues in the query, falling
// back to the inferred grade when there are none. Elementary learners start
// easy rather than medium.
func inferDifficulty(q string, grade int) learner.Difficulty {
	for _, term := range easyTerms {
		if strings.Contains(q, term) {
			return learner.DifficultyEasy
		}
	}
	for _, term := range challengingTerms {
		if strings.Contains(q, term) {
			return learner.DifficultyChallenging
		}
	}
	if grade <= 5 {
		return learner.DifficultyEasy
	}
	return learner.DifficultyMedium
}
