// Package knowledge stores document chunks with vector embeddings and serves
// similarity search over them, backed by PostgreSQL with pgvector.
package knowledge

import "time"

// Chunk is one embedded piece of an ingested document.
type Chunk struct {
	ID       string
	Content  string
	Metadata map[string]string
	CreateAt time.Time
}

// Result is a chunk with its similarity to a search query, in [0, 1].
type Result struct {
	Chunk
	Similarity float64
}
