package tutor

import (
	"fmt"
	"strings"

	"github.com/studyhall/studyhall/internal/learner"
)

// PracticeType names a kind of practice material the generator can produce.
type PracticeType string

// Practice material types.
const (
	PracticeProblems   PracticeType = "problems"
	PracticeQuiz       PracticeType = "quiz"
	PracticeExercises  PracticeType = "exercises"
	PracticeAssessment PracticeType = "assessment"
	PracticeFlashcards PracticeType = "flashcards"
)

// practiceTypeSignals pairs each practice type with its query vocabulary.
// First match wins; an unmarked request gets plain problems.
var practiceTypeSignals = []struct {
	ptype PracticeType
	terms []string
}{
	{PracticeQuiz, []string{"quiz"}},
	{PracticeFlashcards, []string{"flashcard", "flash card"}},
	{PracticeAssessment, []string{"assessment", "test me", "test my"}},
	{PracticeExercises, []string{"exercise", "drill"}},
}

// practiceTypeFor picks the practice material type from query text.
func practiceTypeFor(query string) PracticeType {
	q := strings.ToLower(query)
	for _, sig := range practiceTypeSignals {
		for _, term := range sig.terms {
			if strings.Contains(q, term) {
				return sig.ptype
			}
		}
	}
	return PracticeProblems
}

// difficultyTraits describes what problems at each difficulty look like.
var difficultyTraits = map[learner.Difficulty]string{
	learner.DifficultyEasy:        "1-2 steps per problem, testing basic recall and recognition",
	learner.DifficultyMedium:      "3-4 steps per problem, requiring application and analysis",
	learner.DifficultyChallenging: "5 or more steps per problem, requiring synthesis across concepts",
}

// practiceRequested reports whether the query asks for practice material
// rather than an explanation.
func practiceRequested(query string) bool {
	q := strings.ToLower(query)
	for _, term := range []string{
		"practice", "quiz", "exercise", "drill", "flashcard",
		"flash card", "problems to solve", "test me", "test my",
		"worksheet", "assessment",
	} {
		if strings.Contains(q, term) {
			return true
		}
	}
	return false
}

// practicePrompt builds the model prompt for generating practice material.
// The adaptation hint, when present, is passed through to the model verbatim.
func practicePrompt(query string, resolved Resolved, language string, adaptation string) string {
	grade, style, difficulty := profileTraits(resolved)
	ptype := practiceTypeFor(query)

	var b strings.Builder
	fmt.Fprintf(&b, "You are a tutor creating %s for a grade %d learner.\n", ptype, grade)
	fmt.Fprintf(&b, "Difficulty: %s (%s).\n", difficulty, difficultyTraits[difficulty])
	fmt.Fprintf(&b, "Learning style: %s. Favor that modality in how problems are framed.\n", style)
	fmt.Fprintf(&b, "Respond in %s.\n", language)
	if adaptation != "" {
		fmt.Fprintf(&b, "Apply this adaptation to the material: %s.\n", adaptation)
	}
	b.WriteString("Include an answer key at the end, separated from the problems.\n\n")
	fmt.Fprintf(&b, "Learner's request: %s\n\nPractice material:", query)
	return b.String()
}
