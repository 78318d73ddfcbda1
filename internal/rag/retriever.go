// Package rag bridges the knowledge store to the agents and to Genkit's
// retriever interface.
package rag

import (
	"context"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/studyhall/studyhall/internal/graph"
	"github.com/studyhall/studyhall/internal/knowledge"
)

// RetrieverName is the Genkit registry name for the knowledge retriever.
const RetrieverName = "studyhall/knowledge"

// Searcher is the slice of knowledge.Store the retriever needs.
type Searcher interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// Retriever adapts the knowledge store to the handlers' retrieval interface,
// converting store results into graph documents.
type Retriever struct {
	store Searcher
}

// New creates a Retriever over the given store.
func New(store Searcher) *Retriever {
	return &Retriever{store: store}
}

// Retrieve returns the topK most relevant chunks as graph documents.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]graph.Document, error) {
	results, err := r.store.Search(ctx, query, knowledge.WithTopK(topK))
	if err != nil {
		return nil, err
	}

	docs := make([]graph.Document, 0, len(results))
	for _, res := range results {
		docs = append(docs, graph.Document{
			Content:  res.Content,
			Metadata: res.Metadata,
		})
	}
	return docs, nil
}

// Define registers the knowledge store as a Genkit retriever, so flows and
// the developer UI can query it directly.
func (r *Retriever) Define(g *genkit.Genkit) ai.Retriever {
	return genkit.DefineRetriever(
		g, RetrieverName, nil,
		func(ctx context.Context, req *ai.RetrieverRequest) (*ai.RetrieverResponse, error) {
			queryText := extractQueryText(req)
			topK := extractTopK(req, 5)

			results, err := r.store.Search(ctx, queryText, knowledge.WithTopK(topK))
			if err != nil {
				return nil, err
			}

			docs := make([]*ai.Document, 0, len(results))
			for _, res := range results {
				metadata := make(map[string]any, len(res.Metadata)+1)
				for k, v := range res.Metadata {
					metadata[k] = v
				}
				metadata["similarity"] = res.Similarity
				docs = append(docs, ai.DocumentFromText(res.Content, metadata))
			}

			return &ai.RetrieverResponse{Documents: docs}, nil
		},
	)
}

// extractQueryText pulls the query text out of a retriever request.
func extractQueryText(req *ai.RetrieverRequest) string {
	if req.Query == nil {
		return ""
	}
	var text string
	for _, part := range req.Query.Content {
		if part.Kind == ai.PartText {
			text += part.Text
		}
	}
	return text
}

// extractTopK reads a "k" option from the request, falling back to def.
func extractTopK(req *ai.RetrieverRequest, def int) int {
	opts, ok := req.Options.(map[string]any)
	if !ok {
		return def
	}
	switch k := opts["k"].(type) {
	case int:
		return k
	case float64:
		return int(k)
	default:
		return def
	}
}
