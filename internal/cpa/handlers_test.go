package cpa

import (
	"testing"

	"github.com/studyhall/studyhall/internal/graph"
)

func TestSelectHandler(t *testing.T) {
	docs := []graph.Document{{Content: "cell biology chapter"}}

	tests := []struct {
		name  string
		state graph.State
		want  string
	}{
		{
			name:  "learning unit vocabulary",
			state: graph.State{Query: "build a lesson plan about volcanoes"},
			want:  "learning_units",
		},
		{
			name:  "document analysis with documents",
			state: graph.State{Query: "analyze this for the key points", Documents: docs},
			want:  "document_analysis",
		},
		{
			name:  "analysis vocabulary without documents falls to chat",
			state: graph.State{Query: "analyze this for the key points"},
			want:  "chat",
		},
		{
			name:  "plain chat",
			state: graph.State{Query: "summarize the meeting notes"},
			want:  "chat",
		},
		{
			name:  "learning unit wins over analysis",
			state: graph.State{Query: "analyze this and build a curriculum", Documents: docs},
			want:  "learning_units",
		},
		{
			name:  "adaptation instruction selects learning unit",
			state: graph.State{Query: "fractions for my kid", Adaptation: "use soccer analogies"},
			want:  "learning_units",
		},
	}

	a := &Agent{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.state
			if got := a.selectHandler(&s); got.name != tt.want {
				t.Errorf("selectHandler() = %q, want %q", got.name, tt.want)
			}
		})
	}
}

func TestFallbackResponseLocalized(t *testing.T) {
	if got := fallbackResponse("Arabic"); got != fallbackResponseAR {
		t.Errorf("fallbackResponse(Arabic) = %q", got)
	}
	if got := fallbackResponse("English"); got != fallbackResponseEN {
		t.Errorf("fallbackResponse(English) = %q", got)
	}
	if got := fallbackResponse("Spanish"); got != fallbackResponseEN {
		t.Errorf("fallbackResponse(Spanish) = %q, want the English fallback", got)
	}
}
