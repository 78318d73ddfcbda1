package language

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"arabic script", "اشرح لي الكسور", "Arabic"},
		{"arabic wins over spanish cues", "gracias اشرح", "Arabic"},
		{"spanish inverted punctuation", "¿Qué es esto?", "Spanish"},
		{"spanish cue word", "muchas gracias", "Spanish"},
		{"english", "explain fractions", "English"},
		{"empty defaults to english", "", "English"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.text); got != tt.want {
				t.Errorf("Detect(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
