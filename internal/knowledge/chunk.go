package knowledge

import "strings"

// Chunking defaults, in runes. Overlap keeps sentence fragments shared
// between neighboring chunks so retrieval does not lose context at
// boundaries.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 150
)

// ChunkText splits text into chunks of at most size runes with the given
// overlap. It prefers to break at paragraph, then sentence, then word
// boundaries, and only splits mid-word when a single token exceeds the chunk
// size. Empty or whitespace-only text yields no chunks.
func ChunkText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			chunk := strings.TrimSpace(string(runes[start:]))
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		cut := breakPoint(runes, start, end)
		chunk := strings.TrimSpace(string(runes[start:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	return chunks
}

// breakPoint finds the best split position in runes[start:end], scanning
// backward from end. Paragraph breaks beat sentence ends beat spaces; a
// window with none of those splits hard at end.
func breakPoint(runes []rune, start, end int) int {
	// Do not search the entire window, or tiny trailing fragments would
	// produce degenerate chunks.
	limit := start + (end-start)/2

	for i := end; i > limit; i-- {
		if i < len(runes)-1 && runes[i] == '\n' && runes[i+1] == '\n' {
			return i
		}
	}
	for i := end; i > limit; i-- {
		switch runes[i-1] {
		case '.', '!', '?', '。', '؟':
			return i
		}
	}
	for i := end; i > limit; i-- {
		if runes[i-1] == ' ' || runes[i-1] == '\n' {
			return i
		}
	}
	return end
}
