//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/seismic-cluster-etl/internal/adapter/catalog"
	"github.com/couchcryptid/seismic-cluster-etl/internal/domain"
)

const kafkaImage = "confluentinc/confluent-local:7.5.0"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker for the test and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, kafkaImage, tckafka.WithClusterID("seismic-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func loadStations(t *testing.T) *domain.StationTable {
	t.Helper()
	f, err := os.Open(filepath.Join("..", "pipeline", "testdata", "stations.csv"))
	require.NoError(t, err)
	defer f.Close()
	stations, err := domain.ReadStations(f)
	require.NoError(t, err)
	return stations
}

// loadCatalogMessages returns one JSON payload per fixture event, keyed by event ID.
func loadCatalogMessages(t *testing.T) ([]string, map[string][]byte) {
	t.Helper()
	events, err := catalog.ReadFile(filepath.Join("..", "pipeline", "testdata", "catalog.json"))
	require.NoError(t, err)

	ids := make([]string, 0, len(events))
	payloads := make(map[string][]byte, len(events))
	for _, e := range events {
		data, err := json.Marshal(e)
		require.NoError(t, err)
		ids = append(ids, e.ID)
		payloads[e.ID] = data
	}
	return ids, payloads
}
