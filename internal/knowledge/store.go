package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"
)

// Store manages knowledge chunks with vector search. It owns embedding
// generation on both the ingest and query paths.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	queries  Querier
	embedder ai.Embedder
	logger   *slog.Logger
}

// NewStore creates a Store.
//
// Example (production):
//
//	store := knowledge.NewStore(knowledge.NewPGQuerier(dbPool), embedder, logger)
//
// Example (testing with mocks):
//
//	store := knowledge.NewStore(mockQuerier, mockEmbedder, slog.Default())
func NewStore(queries Querier, embedder ai.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{queries: queries, embedder: embedder, logger: logger}
}

// IngestDocument chunks a document, embeds each chunk, and stores them.
// Chunks are keyed "<documentID>:<index>", so re-ingesting a document
// replaces its chunks in place. An empty documentID gets a generated UUID.
// Returns the document ID and the number of chunks stored.
func (s *Store) IngestDocument(ctx context.Context, documentID, content string, metadata map[string]string) (string, int, error) {
	if documentID == "" {
		documentID = uuid.NewString()
	}

	chunks := ChunkText(content, DefaultChunkSize, DefaultChunkOverlap)
	if len(chunks) == 0 {
		return documentID, 0, errors.New("document has no content to ingest")
	}

	for i, chunkContent := range chunks {
		meta := make(map[string]string, len(metadata)+2)
		for k, v := range metadata {
			meta[k] = v
		}
		meta["document_id"] = documentID
		meta["chunk_index"] = fmt.Sprintf("%d", i)

		err := s.Add(ctx, Chunk{
			ID:       fmt.Sprintf("%s:%d", documentID, i),
			Content:  chunkContent,
			Metadata: meta,
		})
		if err != nil {
			return documentID, i, fmt.Errorf("failed to ingest chunk %d of document %q: %w", i, documentID, err)
		}
	}

	s.logger.Debug("ingested document", "document_id", documentID, "chunks", len(chunks))
	return documentID, len(chunks), nil
}

// Add embeds and stores a single chunk.
func (s *Store) Add(ctx context.Context, chunk Chunk) error {
	embedding, err := s.embed(ctx, chunk.Content)
	if err != nil {
		return fmt.Errorf("failed to embed chunk %q: %w", chunk.ID, err)
	}

	metadataJSON, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	return s.queries.UpsertChunk(ctx, UpsertChunkParams{
		ID:        chunk.ID,
		Content:   chunk.Content,
		Embedding: embedding,
		Metadata:  metadataJSON,
		CreatedAt: pgtype.Timestamptz{Time: chunk.CreateAt, Valid: !chunk.CreateAt.IsZero()},
	})
}

// Search returns the chunks most similar to the query, best first.
//
// Example:
//
//	results, err := store.Search(ctx, "photosynthesis",
//	    knowledge.WithTopK(10),
//	    knowledge.WithFilter("language", "English"))
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	cfg := buildSearchConfig(opts)

	queryCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	embedding, err := s.embed(queryCtx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("query embedding timeout: %w", err)
		}
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var rows []ChunkRow
	if len(cfg.filter) > 0 {
		filterJSON, marshalErr := json.Marshal(cfg.filter)
		if marshalErr != nil {
			return nil, fmt.Errorf("failed to marshal filter: %w", marshalErr)
		}
		rows, err = s.queries.SearchChunks(queryCtx, embedding, filterJSON, cfg.topK)
	} else {
		rows, err = s.queries.SearchChunksAll(queryCtx, embedding, cfg.topK)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search timeout: %w", err)
		}
		return nil, err
	}

	return s.rowsToResults(rows), nil
}

// Count returns the total number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	count, err := s.queries.CountChunks(ctx)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// DeleteDocument removes all chunks of one source document.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) (int64, error) {
	deleted, err := s.queries.DeleteChunksByDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("deleted document chunks", "document_id", documentID, "count", deleted)
	return deleted, nil
}

func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{Content: []*ai.Part{ai.NewTextPart(text)}},
		},
	})
	if err != nil {
		return pgvector.Vector{}, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, errors.New("embedder returned an empty embedding")
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}

func (s *Store) rowsToResults(rows []ChunkRow) []Result {
	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		var metadata map[string]string
		if err := json.Unmarshal(row.Metadata, &metadata); err != nil {
			s.logger.Warn("failed to parse chunk metadata", "chunk_id", row.ID, "error", err)
			metadata = make(map[string]string)
		}

		var createAt time.Time
		if row.CreatedAt.Valid {
			createAt = row.CreatedAt.Time
		}

		results = append(results, Result{
			Chunk: Chunk{
				ID:       row.ID,
				Content:  row.Content,
				Metadata: metadata,
				CreateAt: createAt,
			},
			Similarity: row.Similarity,
		})
	}
	return results
}
