package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"siteharvest/internal/chunker"
	"siteharvest/internal/config"
	"siteharvest/internal/crawler"
	"siteharvest/internal/extractor"
	"siteharvest/internal/fetcher"
	"siteharvest/internal/storage"
	"siteharvest/pkg/types"
)

func main() {
	cfgPath := flag.String("config", "", "Path to YAML configuration file")
	startURL := flag.String("url", "", "Start address (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = *loaded
	}
	if *startURL != "" {
		cfg.Crawl.StartAddress = strings.TrimSpace(*startURL)
	}
	if err := crawler.Validate(cfg.Crawl.StartAddress); err != nil {
		fmt.Fprintf(os.Stderr, "invalid start address: %v\n", err)
		os.Exit(1)
	}

	logger := buildLogger(cfg.Logging)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pipeline, err := buildPipeline(ctx, cfg.Storage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise storage: %v\n", err)
		os.Exit(1)
	}
	defer pipeline.Close()

	runID := uuid.NewString()
	engine := buildEngine(cfg, logger)

	logger.Info("crawl starting", "run_id", runID, "url", cfg.Crawl.StartAddress,
		"max_depth", cfg.Crawl.MaxDepth, "max_pages", cfg.Crawl.MaxPages)

	result, err := engine.Crawl(ctx, cfg.Crawl.StartAddress)
	if err != nil {
		fmt.Fprintf(os.Stderr, "crawl failed: %v\n", err)
		os.Exit(1)
	}

	for _, page := range result.Success {
		rec := storage.Record{
			RunID: runID,
			Page:  page,
			Chunks: chunker.Split(page.Content, chunker.Options{
				ChunkSize:   cfg.Storage.Chunk.Size,
				OverlapSize: cfg.Storage.Chunk.Overlap,
			}),
		}
		if err := pipeline.Persist(ctx, rec); err != nil {
			logger.Error("persist failed", "url", page.Address, "error", err)
		}
	}

	logger.Info("crawl finished", "run_id", runID,
		"success", len(result.Success), "failed", len(result.Failed),
		"visited", len(result.VisitedAddresses), "took", result.TotalTime)

	for _, failure := range result.Failed {
		logger.Warn("page failed", "url", failure.Address, "depth", failure.Depth,
			"strategies", strings.Join(failure.AttemptedStrategies, ","), "error", failure.Error)
	}
}

func buildEngine(cfg config.Config, logger *slog.Logger) *crawler.Engine {
	fetch := fetcher.New(fetcher.Options{
		Timeout:       cfg.Crawl.RequestTimeout.Duration,
		StrategyDelay: cfg.Crawl.StrategyDelay.Duration,
		UseFallback:   cfg.Crawl.UseFallbackStrategies,
		MaxBodyBytes:  cfg.Crawl.MaxBodyBytes,
		Logger:        logger,
	})

	extractOpts := extractor.Options{
		IncludeImages:    cfg.Extract.IncludeImages,
		MinContentLength: cfg.Extract.MinContentLength,
	}
	var extract extractor.ContentExtractor
	switch cfg.Extract.Engine {
	case config.EngineTrafilatura:
		extract = extractor.NewTrafilaturaExtractor(extractOpts)
	default:
		extract = extractor.NewDensityExtractor(extractOpts)
	}

	return crawler.NewEngine(crawler.Options{
		MaxDepth:             cfg.Crawl.MaxDepth,
		MaxPages:             cfg.Crawl.MaxPages,
		SameDomainOnly:       cfg.Crawl.SameDomainOnly,
		IncludePatterns:      cfg.Crawl.IncludePatterns,
		ExcludePatterns:      cfg.Crawl.ExcludePatterns,
		DelayBetweenRequests: cfg.Crawl.DelayBetweenRequests.Duration,
		OnProgress: func(p types.Progress) {
			logger.Debug("progress", "url", p.CurrentURL, "processed", p.Processed,
				"queue", p.QueueLength, "success", p.SuccessCount,
				"failed", p.FailedCount, "depth", p.Depth)
		},
	}, fetch, extract, logger)
}

func buildPipeline(ctx context.Context, cfg config.StorageConfig) (*storage.Pipeline, error) {
	switch cfg.Driver {
	case "postgres":
		store, err := storage.NewPostgresStore(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return storage.NewPipeline(store), nil
	case "jsonl":
		store, err := storage.NewJSONLStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return storage.NewPipeline(store), nil
	default:
		return nil, nil
	}
}

func buildLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Structured {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
