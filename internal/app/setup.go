package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studyhall/studyhall/db"
	"github.com/studyhall/studyhall/internal/config"
	"github.com/studyhall/studyhall/internal/cpa"
	"github.com/studyhall/studyhall/internal/graph"
	"github.com/studyhall/studyhall/internal/knowledge"
	"github.com/studyhall/studyhall/internal/learner"
	"github.com/studyhall/studyhall/internal/nodes"
	"github.com/studyhall/studyhall/internal/observability"
	"github.com/studyhall/studyhall/internal/rag"
	"github.com/studyhall/studyhall/internal/tutor"
)

// Setup creates and initializes the application. On failure, everything
// already initialized is released before returning.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{Config: cfg}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	// Tracing first: Genkit captures the TracerProvider at Init.
	if cfg.Otel.Enabled {
		shutdown, err := observability.Setup(ctx, observability.Config{
			Endpoint:    cfg.Otel.Endpoint,
			ServiceName: cfg.Otel.ServiceName,
			Environment: cfg.Otel.Environment,
		})
		if err != nil {
			return nil, fmt.Errorf("setting up tracing: %w", err)
		}
		a.otelShutdown = shutdown
	}

	pool, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool

	g, err := provideGenkit(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	a.Knowledge = knowledge.NewStore(knowledge.NewPGQuerier(pool), embedder, logger.With("component", "knowledge"))
	a.Learners = learner.NewStore(learner.NewPGQuerier(pool), logger.With("component", "learner"))

	// Registering the retriever makes the knowledge store queryable from
	// Genkit flows and the developer UI, alongside the graph's own use.
	retriever := rag.New(a.Knowledge)
	retriever.Define(g)

	driver, err := provideGraph(g, cfg, retriever, a.Learners, logger)
	if err != nil {
		return nil, err
	}
	a.Graph = driver

	return a, nil
}

// provideGenkit initializes Genkit with the configured AI provider plugin.
// Supports gemini (default), ollama, and openai.
func provideGenkit(ctx context.Context, cfg *config.Config) (*genkit.Genkit, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = config.ProviderGemini
	}

	promptDir := cfg.PromptDir
	if promptDir == "" {
		promptDir = "prompts"
	}

	var g *genkit.Genkit

	switch provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx,
			genkit.WithPlugins(ollamaPlugin),
			genkit.WithPromptDir(promptDir),
		)
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama has no auto-discovery; models and embedders are registered
		// explicitly.
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		slog.Info("initialized Genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)

	case config.ProviderOpenAI:
		g = genkit.Init(ctx,
			genkit.WithPlugins(&openai.OpenAI{}),
			genkit.WithPromptDir(promptDir),
		)
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		slog.Info("initialized Genkit with openai provider", "model", cfg.ModelName)

	default:
		g = genkit.Init(ctx,
			genkit.WithPlugins(&googlegenai.GoogleAI{}),
			genkit.WithPromptDir(promptDir),
		)
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		slog.Info("initialized Genkit with gemini provider", "model", cfg.ModelName)
	}

	return g, nil
}

// provideEmbedder looks up the embedder registered by the provider plugin.
// Each provider registers embedders differently:
//   - gemini: GoogleAIEmbedder(g, modelName)
//   - ollama: registered in provideGenkit, keyed by server address
//   - openai: auto-registered in Init, looked up by model name
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.Embedder(g, cfg.OllamaHost)
	case config.ProviderOpenAI:
		return genkit.LookupEmbedder(g, api.NewName("openai", cfg.EmbedderModel))
	default:
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}

// provideDBPool runs migrations and creates the PostgreSQL connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// provideGraph builds the handlers and wires them into a Driver.
func provideGraph(g *genkit.Genkit, cfg *config.Config, retriever *rag.Retriever, learners *learner.Store, logger *slog.Logger) (*graph.Driver, error) {
	modelName := cfg.FullModelName()
	topK := cfg.RetrievalTopK

	qa, err := nodes.NewQA(g, modelName, retriever, topK, logger.With("handler", "qa"))
	if err != nil {
		return nil, fmt.Errorf("creating qa handler: %w", err)
	}

	summarize, err := nodes.NewSummarize(g, modelName, logger.With("handler", "summarization"))
	if err != nil {
		return nil, fmt.Errorf("creating summarization handler: %w", err)
	}

	processor, err := cpa.New(cpa.Config{
		Genkit:    g,
		ModelName: modelName,
		Retriever: retriever,
		TopK:      topK,
		Logger:    logger.With("handler", "content_processor"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating content processor: %w", err)
	}

	tutorAgent, err := tutor.New(tutor.Config{
		Genkit:    g,
		ModelName: modelName,
		Store:     learners,
		Logger:    logger.With("handler", "tutor"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating tutor: %w", err)
	}

	driver, err := graph.NewDriver(graph.Config{
		Router:           graph.NewRouter(g, modelName, logger.With("component", "router")),
		QA:               qa,
		Summarize:        summarize,
		ContentProcessor: processor,
		Tutor:            tutorAgent,
		Logger:           logger.With("component", "graph"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating graph driver: %w", err)
	}

	return driver, nil
}
