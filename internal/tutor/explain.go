package tutor

import (
	"fmt"
	"strings"

	"github.com/studyhall/studyhall/internal/learner"
)

// ExplanationStyle names a way of presenting an explanation.
type ExplanationStyle string

// Explanation styles the engine can produce.
const (
	StyleSimplified  ExplanationStyle = "simplified"
	StyleDetailed    ExplanationStyle = "detailed"
	StyleAnalogy     ExplanationStyle = "analogy"
	StyleStepByStep  ExplanationStyle = "step-by-step"
	StyleVisualDesc  ExplanationStyle = "visual"
	StyleInteractive ExplanationStyle = "interactive"
	StylePractical   ExplanationStyle = "practical"
)

// styleInstructions tells the model how to render each explanation style.
var styleInstructions = map[ExplanationStyle]string{
	StyleSimplified:  "Use short sentences and everyday words. Avoid jargon. Explain one idea at a time.",
	StyleDetailed:    "Give a thorough explanation with precise terminology, underlying principles, and edge cases.",
	StyleAnalogy:     "Build the explanation around a vivid analogy from everyday life, then connect it back to the concept.",
	StyleStepByStep:  "Break the explanation into small numbered steps, each building on the previous one.",
	StyleVisualDesc:  "Describe diagrams, charts, and visual arrangements the learner can picture or sketch.",
	StyleInteractive: "Weave in small questions and try-it-yourself moments so the learner participates.",
	StylePractical:   "Anchor the explanation in concrete real-world examples and applications.",
}

// explanationStyleFor picks the presentation style from a learner's profile.
// Easy difficulty always simplifies; otherwise the learning style decides.
func explanationStyleFor(style learner.Style, difficulty learner.Difficulty) ExplanationStyle {
	if difficulty == learner.DifficultyEasy {
		return StyleSimplified
	}

	switch style {
	case learner.StyleVisual:
		return StyleVisualDesc
	case learner.StyleKinesthetic:
		return StyleInteractive
	case learner.StyleAnalytical:
		return StyleDetailed
	case learner.StyleCreative:
		return StyleAnalogy
	case learner.StyleAuditory:
		return StylePractical
	case learner.StyleMethodical, learner.StyleMixed:
		return StyleStepByStep
	default:
		return StyleStepByStep
	}
}

// explanationPrompt builds the model prompt for a personalized explanation.
// The adaptation hint, when present, is passed through to the model verbatim.
func explanationPrompt(query string, resolved Resolved, language string, docs []string, adaptation string) string {
	grade, style, difficulty := profileTraits(resolved)
	explStyle := explanationStyleFor(style, difficulty)

	var b strings.Builder
	fmt.Fprintf(&b, "You are a patient personal tutor for a grade %d learner.\n", grade)
	fmt.Fprintf(&b, "Presentation style: %s. %s\n", explStyle, styleInstructions[explStyle])
	fmt.Fprintf(&b, "Difficulty level: %s.\n", difficulty)
	fmt.Fprintf(&b, "Respond in %s.\n", language)
	if adaptation != "" {
		fmt.Fprintf(&b, "Apply this adaptation to the response: %s.\n", adaptation)
	}
	b.WriteString("\n")

	if len(docs) > 0 {
		b.WriteString("Use the following study material as context:\n")
		for _, doc := range docs {
			b.WriteString(doc)
			b.WriteString("\n---\n")
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Learner's question: %s\n\nExplanation:", query)
	return b.String()
}

// profileTraits extracts the adaptation inputs from either identity branch.
func profileTraits(r Resolved) (grade int, style learner.Style, difficulty learner.Difficulty) {
	if r.Registered != nil {
		p := r.Registered.Profile
		return p.GradeLevel, p.LearningStyle, p.Difficulty
	}
	g := r.Guest
	return g.GradeLevel, g.LearningStyle, g.Difficulty
}
