package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/drivers-report-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/drivers-report-service/internal/adapter/kafka"
	"github.com/couchcryptid/drivers-report-service/internal/adapter/mapbox"
	"github.com/couchcryptid/drivers-report-service/internal/config"
	"github.com/couchcryptid/drivers-report-service/internal/observability"
	"github.com/couchcryptid/drivers-report-service/internal/pipeline"
	"github.com/couchcryptid/drivers-report-service/internal/rankings"
	"github.com/couchcryptid/drivers-report-service/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	cities, catalog, err := rankings.Load(cfg.RankingsDataset, cfg.RankingsCatalog)
	if err != nil {
		logger.Error("failed to load rankings", "error", err)
		os.Exit(1)
	}
	rankingSvc := rankings.NewService(cities, catalog, logger, rankings.WithObserver(metrics))

	registry := session.NewRegistry(
		session.Defaults{Locale: cfg.DefaultLocale, TimeZone: cfg.DefaultTimeZone},
		logger,
		session.WithClock(clock),
		session.WithObserver(metrics),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	if cfg.MapboxEnabled {
		metrics.GeocodeEnabled.Set(1)
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
		go func() {
			n := rankingSvc.Enrich(ctx, geocoder)
			logger.Info("ranking dataset geocoded", "enriched", n)
		}()
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	opts := []httpadapter.Option{
		httpadapter.WithMetrics(metrics),
		httpadapter.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		httpadapter.WithFields(registry),
		httpadapter.WithRankings(rankingSvc),
		httpadapter.WithTimeOptions(httpadapter.TimeDefaults{
			Locale:   cfg.DefaultLocale,
			TimeZone: cfg.DefaultTimeZone,
			Clock:    clock,
		}),
	}

	var (
		ready  sharedobs.ReadinessChecker = rankingSvc
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
		p      *pipeline.Pipeline
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(registry, logger)
		p = pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize, pipeline.WithClock(clock))
		opts = append(opts, httpadapter.WithPublisher(writer))
		ready = p
	} else {
		logger.Info("kafka pipeline disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, logger, opts...)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start event pipeline.
	if p != nil {
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete", "open_fields", registry.Len())
}
