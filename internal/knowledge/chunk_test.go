package knowledge

import (
	"strings"
	"testing"
)

func TestChunkTextEmpty(t *testing.T) {
	if got := ChunkText("", 100, 10); got != nil {
		t.Errorf("ChunkText(\"\") = %v, want nil", got)
	}
	if got := ChunkText("   \n\t  ", 100, 10); got != nil {
		t.Errorf("ChunkText(whitespace) = %v, want nil", got)
	}
}

func TestChunkTextShortTextSingleChunk(t *testing.T) {
	text := "A short paragraph that fits in one chunk."
	got := ChunkText(text, 100, 10)
	if len(got) != 1 || got[0] != text {
		t.Errorf("ChunkText() = %v, want single chunk with full text", got)
	}
}

func TestChunkTextRespectsSize(t *testing.T) {
	text := strings.Repeat("word ", 500)
	chunks := ChunkText(text, 200, 20)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if n := len([]rune(c)); n > 200 {
			t.Errorf("chunk %d has %d runes, want <= 200", i, n)
		}
	}
}

func TestChunkTextPrefersSentenceBoundaries(t *testing.T) {
	text := strings.Repeat("This is a sentence. ", 30)
	chunks := ChunkText(text, 100, 0)

	for i, c := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(c, ".") {
			t.Errorf("chunk %d does not end at a sentence boundary: %q", i, c)
		}
	}
}

func TestChunkTextOverlapSharesContent(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta. ", 40)
	chunks := ChunkText(text, 120, 30)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// The tail of each chunk should reappear at the head of the next.
	first := []rune(chunks[0])
	tail := strings.TrimSpace(string(first[len(first)-15:]))
	if !strings.Contains(chunks[1], tail[:5]) {
		t.Errorf("chunk 1 does not overlap with chunk 0's tail %q:\n%q", tail, chunks[1])
	}
}

func TestChunkTextCoversAllContent(t *testing.T) {
	text := strings.Repeat("abcdefghij ", 100)
	chunks := ChunkText(text, 150, 0)

	var total int
	for _, c := range chunks {
		total += len([]rune(c))
	}
	// With zero overlap the chunks, whitespace aside, should cover the text.
	if total < len([]rune(strings.ReplaceAll(text, " ", "")))-len(chunks) {
		t.Errorf("chunks cover %d runes, original has %d", total, len([]rune(text)))
	}
}
