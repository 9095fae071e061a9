package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/jobmap-region/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/jobmap-region/internal/adapter/kafka"
	"github.com/couchcryptid/jobmap-region/internal/cluster"
	"github.com/couchcryptid/jobmap-region/internal/config"
	"github.com/couchcryptid/jobmap-region/internal/gazetteer"
	"github.com/couchcryptid/jobmap-region/internal/geo"
	"github.com/couchcryptid/jobmap-region/internal/observability"
	"github.com/couchcryptid/jobmap-region/internal/pipeline"
	"github.com/couchcryptid/jobmap-region/internal/region"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	tables, err := gazetteer.Load(cfg.Region.GazetteerPath)
	if err != nil {
		logger.Error("failed to load gazetteer", "error", err)
		os.Exit(1)
	}
	logger.Info("gazetteer loaded",
		"path", cfg.Region.GazetteerPath,
		"provinces", len(tables.Provinces()),
		"aliases", len(tables.AliasesByLength()),
		"compounds", len(tables.Compounds()),
	)
	for name, provinces := range tables.Ambiguities() {
		logger.Debug("ambiguous place name", "name", name, "provinces", provinces, "resolved_to", provinces[0])
	}

	extractor := region.NewCachedExtractor(
		region.NewCascade(tables),
		cfg.Region.ExtractCacheSize,
		region.WithLookupHook(metrics.CacheLookup),
	)
	resolver := geo.NewResolver(tables)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(extractor, resolver, metrics, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Ready:              p,
		Extractor:          extractor,
		Resolver:           resolver,
		Aggregator:         cluster.NewAggregator(extractor, resolver),
		Metrics:            metrics,
		MaxClusterPostings: cfg.Region.MaxClusterPostings,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start tagging pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
