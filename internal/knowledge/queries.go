package knowledge

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

// DBTX is the subset of pgx connection behavior the queries need.
// Both *pgxpool.Pool and pgx.Tx satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGQuerier implements Querier against PostgreSQL with pgvector.
type PGQuerier struct {
	db DBTX
}

// NewPGQuerier creates a PGQuerier over the given connection or pool.
func NewPGQuerier(db DBTX) *PGQuerier {
	return &PGQuerier{db: db}
}

const upsertChunkSQL = `
INSERT INTO knowledge_chunks (id, content, embedding, metadata, created_at)
VALUES ($1, $2, $3, $4, COALESCE($5, now()))
ON CONFLICT (id) DO UPDATE SET
    content = EXCLUDED.content,
    embedding = EXCLUDED.embedding,
    metadata = EXCLUDED.metadata`

// UpsertChunk inserts or replaces a chunk by ID.
func (q *PGQuerier) UpsertChunk(ctx context.Context, arg UpsertChunkParams) error {
	var createdAt any
	if arg.CreatedAt.Valid {
		createdAt = arg.CreatedAt
	}

	_, err := q.db.Exec(ctx, upsertChunkSQL,
		arg.ID, arg.Content, arg.Embedding, arg.Metadata, createdAt)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk %q: %w", arg.ID, err)
	}
	return nil
}

const searchChunksSQL = `
SELECT id, content, metadata, created_at,
       1 - (embedding <=> $1) AS similarity
FROM knowledge_chunks
WHERE metadata @> $2
ORDER BY embedding <=> $1
LIMIT $3`

// SearchChunks performs metadata-filtered vector search ordered by cosine
// distance.
func (q *PGQuerier) SearchChunks(ctx context.Context, embedding pgvector.Vector, filter []byte, limit int32) ([]ChunkRow, error) {
	rows, err := q.db.Query(ctx, searchChunksSQL, embedding, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("filtered search failed: %w", err)
	}
	defer rows.Close()
	return scanChunkRows(rows)
}

const searchChunksAllSQL = `
SELECT id, content, metadata, created_at,
       1 - (embedding <=> $1) AS similarity
FROM knowledge_chunks
ORDER BY embedding <=> $1
LIMIT $2`

// SearchChunksAll performs unfiltered vector search ordered by cosine
// distance.
func (q *PGQuerier) SearchChunksAll(ctx context.Context, embedding pgvector.Vector, limit int32) ([]ChunkRow, error) {
	rows, err := q.db.Query(ctx, searchChunksAllSQL, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()
	return scanChunkRows(rows)
}

// CountChunks counts all stored chunks.
func (q *PGQuerier) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM knowledge_chunks`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return count, nil
}

const deleteChunksByDocumentSQL = `
DELETE FROM knowledge_chunks
WHERE metadata->>'document_id' = $1`

// DeleteChunksByDocument removes every chunk of one source document.
func (q *PGQuerier) DeleteChunksByDocument(ctx context.Context, documentID string) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteChunksByDocumentSQL, documentID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks for document %q: %w", documentID, err)
	}
	return tag.RowsAffected(), nil
}

func scanChunkRows(rows pgx.Rows) ([]ChunkRow, error) {
	var out []ChunkRow
	for rows.Next() {
		var r ChunkRow
		if err := rows.Scan(&r.ID, &r.Content, &r.Metadata, &r.CreatedAt, &r.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunk rows: %w", err)
	}
	return out, nil
}
