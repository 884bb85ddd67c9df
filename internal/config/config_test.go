package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/seismic-cluster-etl/internal/domain"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "seismic-events", cfg.KafkaSourceTopic)
	assert.Equal(t, "phase-arrivals", cfg.KafkaSinkTopic)
	assert.Equal(t, "seismic-cluster-etl", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.Empty(t, cfg.StationsFile)
	assert.Equal(t, domain.WaveType{P: "P", S: "S"}, cfg.WaveType)
	assert.Equal(t, DefaultGrid(), cfg.Grid)
	assert.Equal(t, 10000, cfg.DedupCacheSize)
	assert.False(t, cfg.SoleOriginFallback)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("STATIONS_FILE", "/data/stations.csv")
	t.Setenv("WAVE_TYPE", "Pn Sn")
	t.Setenv("GRID_NX", "360")
	t.Setenv("GRID_NY", "180")
	t.Setenv("GRID_DZ", "1000")
	t.Setenv("GRID_MAX_DEPTH", "700000")
	t.Setenv("GRID_OUT_OF_RANGE", "clamp")
	t.Setenv("DEDUP_CACHE_SIZE", "500")
	t.Setenv("SOLE_ORIGIN_FALLBACK", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, "/data/stations.csv", cfg.StationsFile)
	assert.Equal(t, domain.WaveType{P: "Pn", S: "Sn"}, cfg.WaveType)
	assert.Equal(t, domain.Grid{NX: 360, NY: 180, DZ: 1000, MaxDepth: 700000, Policy: domain.RangeClamp}, cfg.Grid)
	assert.Equal(t, 500, cfg.DedupCacheSize)
	assert.True(t, cfg.SoleOriginFallback)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidWaveType(t *testing.T) {
	t.Setenv("WAVE_TYPE", "P")
	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidWaveType)
	assert.Contains(t, err.Error(), "WAVE_TYPE")
}

func TestLoad_InvalidGridEnv(t *testing.T) {
	cases := map[string]string{
		"GRID_NX":              "0",
		"GRID_NY":              "-4",
		"GRID_DZ":              "abc",
		"GRID_MAX_DEPTH":       "-1",
		"GRID_OUT_OF_RANGE":    "wrap",
		"DEDUP_CACHE_SIZE":     "0",
		"SOLE_ORIGIN_FALLBACK": "maybe",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_ZeroDZRejected(t *testing.T) {
	t.Setenv("GRID_DZ", "0")
	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidGrid)
}

func TestLoad_GridProfileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nx: 720\nny: 360\ndz: 50\nmax_depth: 700000\nout_of_range: clamp\n"), 0o600))

	t.Setenv("GRID_PROFILE", path)
	t.Setenv("GRID_DZ", "100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, domain.Grid{NX: 720, NY: 360, DZ: 100, MaxDepth: 700000, Policy: domain.RangeClamp}, cfg.Grid)
}

func TestLoad_MissingGridProfile(t *testing.T) {
	t.Setenv("GRID_PROFILE", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GRID_PROFILE")
}

func TestParseGridProfile(t *testing.T) {
	g, err := ParseGridProfile([]byte("nx: 36\nny: 18\ndz: 10\n"))
	require.NoError(t, err)
	assert.Equal(t, domain.Grid{NX: 36, NY: 18, DZ: 10, Policy: domain.RangeReject}, g)
}

func TestParseGridProfile_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing nx":   "ny: 18\ndz: 10\n",
		"negative dz":  "nx: 36\nny: 18\ndz: -1\n",
		"bad policy":   "nx: 36\nny: 18\ndz: 10\nout_of_range: wrap\n",
		"negative max": "nx: 36\nny: 18\ndz: 10\nmax_depth: -5\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseGridProfile([]byte(doc))
			require.Error(t, err)
			var verrs validator.ValidationErrors
			assert.ErrorAs(t, err, &verrs)
		})
	}

	_, err := ParseGridProfile([]byte("nx: [1, 2]"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode grid profile")
}
