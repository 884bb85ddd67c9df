package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/seismic-cluster-etl/internal/config"
	"github.com/couchcryptid/seismic-cluster-etl/internal/domain"
)

// Writer produces phase row messages to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic. Rows are
// keyed by grid index, so rows of the same cell land on the same partition.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: cfg.BatchFlushInterval,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes rows to the sink topic in a single
// WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, rows []domain.OutputRow) error {
	if len(rows) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(rows))
	for i := range rows {
		msg, err := serializeToMessage(rows[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an OutputRow into a Kafka message.
func serializeToMessage(row domain.OutputRow) (kafkago.Message, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize phase row: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.FormatInt(row.GridIndex, 10)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "phase", Value: []byte(row.Phase)},
			{Key: "event_id", Value: []byte(row.EventID)},
		},
	}, nil
}
