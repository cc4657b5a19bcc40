package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-rag/internal/config"
	"portfolio-rag/internal/http"
	"portfolio-rag/internal/indexer"
	"portfolio-rag/internal/intent"
	"portfolio-rag/internal/llm"
	"portfolio-rag/internal/rag"
	"portfolio-rag/internal/retrieval"
	"portfolio-rag/internal/service"
	"portfolio-rag/internal/storage"
	"portfolio-rag/internal/vectorstore"
)

const (
	probeTimeout    = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	slog.SetDefault(cfg.NewLogger())
	slog.Debug("Logging configured", "level", cfg.LogLevel, "format", cfg.LogFormat)

	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		log.Fatalf("Failed to load tuning: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	passageRepo := storage.NewPassageRepo(db)
	eventRepo := storage.NewEventRepo(db)

	embedder, err := llm.NewEmbedder(ctx, cfg.EmbedderConfig())
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	generator, err := llm.NewGenerator(ctx, cfg.GeneratorConfig())
	if err != nil {
		log.Fatalf("Failed to create generator: %v", err)
	}

	// Validate embedding vector size (fail-fast)
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	if _, err := embedder.EmbedTexts(probeCtx, []string{"test"}); err != nil {
		cancel()
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	cancel()
	slog.Info("Embedding client validated", "provider", cfg.EmbeddingProvider, "dim", cfg.EmbeddingDim)

	var (
		store   vectorstore.Store
		sink    indexer.PassageSink
		mirrors []vectorstore.Writer
	)
	switch cfg.StoreBackend {
	case config.BackendQdrant:
		qdrantStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantCollection)
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}
		defer func() {
			_ = qdrantStore.Close()
		}()
		if err := qdrantStore.EnsureCollection(ctx, cfg.EmbeddingDim); err != nil {
			log.Fatalf("Failed to ensure Qdrant collection: %v", err)
		}
		qdrantStore.Tune(tuning.Store)
		slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "dim", cfg.EmbeddingDim)
		store = qdrantStore
		mirrors = append(mirrors, qdrantStore)
	default:
		passages, err := passageRepo.ListAll(ctx)
		if err != nil {
			log.Fatalf("Failed to load passages: %v", err)
		}
		memoryStore := vectorstore.NewMemoryStore(passages)
		memoryStore.Tune(tuning.Store)
		slog.Info("In-memory store loaded", "passages", len(passages))
		store = memoryStore
		// Files become searchable as they are indexed; the sink reload
		// afterwards reconciles with the durable store.
		mirrors = append(mirrors, memoryStore)
		sink = memoryStore
	}

	chunker := indexer.NewGoldmarkChunker(tuning.Chunker)
	pipeline := indexer.NewPipeline(passageRepo, embedder, chunker, indexer.PipelineConfig{
		Root:           cfg.CorpusDir,
		BatchSize:      indexer.DefaultBatchSize,
		EmbeddingModel: cfg.EmbeddingModel,
	}, mirrors...)
	syncer := indexer.NewSyncer(pipeline, passageRepo, sink)

	intentIndex := intent.NewCachedIndex(embedder, intent.DefaultExamples())
	classifier := intent.NewClassifier(intentIndex, tuning.Intent)
	var adjudicator rag.Adjudicator
	if cfg.IntentRerankEnabled {
		adjudicator = intent.NewAdjudicator(generator, tuning.Adjudicator)
	}

	var lexical vectorstore.LexicalSearcher
	if ls, ok := store.(vectorstore.LexicalSearcher); ok {
		lexical = ls
	}

	engine := rag.NewEngine(rag.Deps{
		Store:       store,
		Generator:   generator,
		Classifier:  classifier,
		Adjudicator: adjudicator,
		Expander:    retrieval.NewExpander(tuning.Expander, lexical),
		Retriever:   retrieval.NewRetriever(embedder, store, tuning.Retriever),
		Booster:     retrieval.NewBooster(tuning.Booster),
		Selector:    retrieval.NewSelector(tuning.Selector),
	}, rag.Config{
		TopK:        cfg.RAGTopK,
		TokenBudget: cfg.RAGTokenBudget,
		Temperature: cfg.LLMTemperature,
	})
	slog.Info("RAG engine initialized", "backend", cfg.StoreBackend, "top_k", cfg.RAGTopK, "rerank", cfg.IntentRerankEnabled)

	router := http.NewRouter(&http.Deps{
		QueryService:  service.NewQueryService(engine, eventRepo),
		IntentService: service.NewIntentService(classifier, adjudicator, intentIndex),
		EventService:  service.NewEventService(eventRepo),
		Store:         store,
		Reindexer:     syncer,
	})

	// Start API server
	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", server.Addr)
		slog.Debug("LLM configuration", "provider", cfg.LLMProvider, "base_url", cfg.LLMBaseURL, "model", cfg.LLMModel)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed: %v", err)
		}
	case <-ctx.Done():
		slog.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}
}
