package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"portfolio-rag/internal/config"
	"portfolio-rag/internal/indexer"
	"portfolio-rag/internal/llm"
	"portfolio-rag/internal/storage"
	"portfolio-rag/internal/vectorstore"
)

type cliOptions struct {
	dir   string
	force bool
}

func main() {
	opts := parseFlags()
	if err := run(opts); err != nil {
		log.Fatalf("ingest: %v", err)
	}
}

func parseFlags() cliOptions {
	var opts cliOptions
	flag.StringVar(&opts.dir, "dir", "", "Corpus directory of .md files (default: CORPUS_DIR)")
	flag.BoolVar(&opts.force, "force", false, "Re-embed files whose content has not changed")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options]\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	opts.dir = strings.TrimSpace(opts.dir)
	return opts
}

func run(opts cliOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(cfg.NewLogger())

	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		return fmt.Errorf("load tuning: %w", err)
	}

	root := cfg.CorpusDir
	if opts.dir != "" {
		root = opts.dir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()
	if err := storage.Migrate(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	embedder, err := llm.NewEmbedder(ctx, cfg.EmbedderConfig())
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}

	var mirrors []vectorstore.Writer
	if cfg.StoreBackend == config.BackendQdrant {
		qdrantStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantCollection)
		if err != nil {
			return fmt.Errorf("init qdrant: %w", err)
		}
		defer func() {
			_ = qdrantStore.Close()
		}()
		if err := qdrantStore.EnsureCollection(ctx, cfg.EmbeddingDim); err != nil {
			return fmt.Errorf("ensure qdrant collection: %w", err)
		}
		mirrors = append(mirrors, qdrantStore)
	}

	pipeline := indexer.NewPipeline(storage.NewPassageRepo(db), embedder, indexer.NewGoldmarkChunker(tuning.Chunker), indexer.PipelineConfig{
		Root:           root,
		BatchSize:      indexer.DefaultBatchSize,
		Force:          opts.force,
		EmbeddingModel: cfg.EmbeddingModel,
	}, mirrors...)

	slog.Info("Starting ingestion", "dir", root, "backend", cfg.StoreBackend, "force", opts.force)
	stats, runErr := pipeline.IndexAll(ctx)
	if stats != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(stats); err != nil {
			return errors.Join(runErr, fmt.Errorf("write stats: %w", err))
		}
	}
	return runErr
}
