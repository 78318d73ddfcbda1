package knowledge

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"
)

// UpsertChunkParams are the inputs for storing one chunk.
type UpsertChunkParams struct {
	ID        string
	Content   string
	Embedding pgvector.Vector
	Metadata  []byte
	CreatedAt pgtype.Timestamptz
}

// ChunkRow is one search or listing result straight from the database.
type ChunkRow struct {
	ID         string
	Content    string
	Metadata   []byte
	CreatedAt  pgtype.Timestamptz
	Similarity float64
}

// Querier defines the interface for database operations on knowledge chunks.
// Following Go best practices: interfaces are defined by the consumer, not
// the provider. Store depends on this abstraction so tests can swap in a
// mock without a database.
type Querier interface {
	// UpsertChunk inserts or replaces a chunk by ID.
	UpsertChunk(ctx context.Context, arg UpsertChunkParams) error

	// SearchChunks performs metadata-filtered vector search.
	SearchChunks(ctx context.Context, embedding pgvector.Vector, filter []byte, limit int32) ([]ChunkRow, error)

	// SearchChunksAll performs unfiltered vector search.
	SearchChunksAll(ctx context.Context, embedding pgvector.Vector, limit int32) ([]ChunkRow, error)

	// CountChunks counts all stored chunks.
	CountChunks(ctx context.Context) (int64, error)

	// DeleteChunksByDocument removes every chunk of one source document and
	// reports how many were removed.
	DeleteChunksByDocument(ctx context.Context, documentID string) (int64, error)
}
