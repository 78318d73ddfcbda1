// Package app assembles the application: configuration, Genkit, the
// database pool, the stores, and the agent graph. Setup builds everything
// once at startup; the resulting App is shared across requests.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studyhall/studyhall/internal/config"
	"github.com/studyhall/studyhall/internal/graph"
	"github.com/studyhall/studyhall/internal/knowledge"
	"github.com/studyhall/studyhall/internal/learner"
)

// App is the application container. Fields are populated by Setup and
// read-only afterwards.
type App struct {
	Config *config.Config

	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool

	Knowledge *knowledge.Store
	Learners  *learner.Store
	Graph     *graph.Driver

	otelShutdown func(context.Context) error
}

// Close releases resources in reverse construction order. The tracer
// shutdown flushes pending spans, so it runs before process exit but after
// the last request has completed.
func (a *App) Close() error {
	slog.Info("shutting down application")

	if a.DBPool != nil {
		a.DBPool.Close()
		slog.Debug("database pool closed")
	}

	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil {
			slog.Warn("shutting down tracer provider", "error", err)
		}
	}

	return nil
}
