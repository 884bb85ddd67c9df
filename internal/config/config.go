package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/seismic-cluster-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Event processing.
	StationsFile   string
	WaveType       domain.WaveType
	Grid           domain.Grid
	DedupCacheSize int

	// SoleOriginFallback resolves events without a preferred origin ID to
	// their only origin.
	SoleOriginFallback bool
}

// Load reads configuration from environment variables, applying defaults where unset.
// A GRID_PROFILE file, when given, replaces the grid defaults; individual GRID_*
// variables still override it.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	waveType, err := domain.ParseWaveType(sharedcfg.EnvOrDefault("WAVE_TYPE", "P S"))
	if err != nil {
		return nil, fmt.Errorf("invalid WAVE_TYPE: %w", err)
	}

	grid, err := loadGrid()
	if err != nil {
		return nil, err
	}

	dedupSize, err := parsePositiveInt("DEDUP_CACHE_SIZE", 10000)
	if err != nil {
		return nil, err
	}

	soleOrigin, err := parseBool("SOLE_ORIGIN_FALLBACK", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "seismic-events"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "phase-arrivals"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "seismic-cluster-etl"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		StationsFile:   os.Getenv("STATIONS_FILE"),
		WaveType:       waveType,
		Grid:           grid,
		DedupCacheSize: dedupSize,

		SoleOriginFallback: soleOrigin,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

// DefaultGrid is the quarter-degree, 25 m grid used when nothing else is configured.
func DefaultGrid() domain.Grid {
	return domain.Grid{NX: 1440, NY: 720, DZ: 25, Policy: domain.RangeReject}
}

func loadGrid() (domain.Grid, error) {
	grid := DefaultGrid()
	if path := os.Getenv("GRID_PROFILE"); path != "" {
		g, err := LoadGridProfile(path)
		if err != nil {
			return domain.Grid{}, fmt.Errorf("invalid GRID_PROFILE: %w", err)
		}
		grid = g
	}

	var err error
	if grid.NX, err = parseInt64("GRID_NX", grid.NX); err != nil {
		return domain.Grid{}, err
	}
	if grid.NY, err = parseInt64("GRID_NY", grid.NY); err != nil {
		return domain.Grid{}, err
	}
	if grid.DZ, err = parseFloat("GRID_DZ", grid.DZ); err != nil {
		return domain.Grid{}, err
	}
	if grid.MaxDepth, err = parseFloat("GRID_MAX_DEPTH", grid.MaxDepth); err != nil {
		return domain.Grid{}, err
	}
	if v := os.Getenv("GRID_OUT_OF_RANGE"); v != "" {
		if grid.Policy, err = domain.ParseRangePolicy(v); err != nil {
			return domain.Grid{}, fmt.Errorf("invalid GRID_OUT_OF_RANGE: %w", err)
		}
	}

	if err := grid.Validate(); err != nil {
		return domain.Grid{}, err
	}
	return grid, nil
}

func parseInt64(key string, def int64) (int64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	n, err := parseInt64(key, int64(def))
	return int(n), err
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid %s: must be a non-negative number", key)
	}
	return f, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: must be true or false", key)
	}
	return b, nil
}
