package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/seismic-cluster-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/seismic-cluster-etl/internal/adapter/kafka"
	"github.com/couchcryptid/seismic-cluster-etl/internal/config"
	"github.com/couchcryptid/seismic-cluster-etl/internal/domain"
	"github.com/couchcryptid/seismic-cluster-etl/internal/observability"
	"github.com/couchcryptid/seismic-cluster-etl/internal/pipeline"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		slog.Warn("could not load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	stations, err := loadStations(cfg.StationsFile)
	if err != nil {
		logger.Error("failed to load stations", "error", err)
		os.Exit(1)
	}
	if dups := stations.Duplicates(); len(dups) > 0 {
		logger.Warn("duplicate station codes, last entry wins", "codes", dups)
	}
	logger.Info("stations loaded", "count", stations.Len(), "wave_type", cfg.WaveType.String())

	processor := pipeline.NewEventProcessor(stations, cfg.Grid, cfg.WaveType, logger, metrics)
	processor.SetSoleOriginFallback(cfg.SoleOriginFallback)
	guard := pipeline.NewReplayGuard(cfg.DedupCacheSize)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(processor, guard, logger, metrics)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	info := httpadapter.NewInfo(cfg.Grid, cfg.WaveType, stations)
	info.SourceTopic = cfg.KafkaSourceTopic
	info.SinkTopic = cfg.KafkaSinkTopic
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, info, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

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

func loadStations(path string) (*domain.StationTable, error) {
	if path == "" {
		return nil, errors.New("STATIONS_FILE is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stations, err := domain.ReadStations(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return stations, nil
}
