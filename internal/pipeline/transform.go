package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/couchcryptid/seismic-cluster-etl/internal/adapter/catalog"
	"github.com/couchcryptid/seismic-cluster-etl/internal/domain"
	"github.com/couchcryptid/seismic-cluster-etl/internal/observability"
)

// EventTransformer implements Transformer: it decodes one catalog event per
// message and builds its phase rows.
type EventTransformer struct {
	processor *EventProcessor
	guard     *ReplayGuard
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu      sync.Mutex
	pending []guardKey // recorded in the guard since the last Settle
}

type guardKey struct {
	eventID     string
	fingerprint uint64
}

// NewTransformer creates an EventTransformer. Pass a nil guard to process
// every delivery, replays included. Logger and metrics may be nil.
func NewTransformer(processor *EventProcessor, guard *ReplayGuard, logger *slog.Logger, metrics *observability.Metrics) *EventTransformer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &EventTransformer{
		processor: processor,
		guard:     guard,
		logger:    logger,
		metrics:   metrics,
	}
}

// Transform returns P-type rows followed by S-type rows. A replayed message
// yields no rows and no error so it is committed without being republished.
func (t *EventTransformer) Transform(_ context.Context, raw domain.RawEvent) ([]domain.OutputRow, error) {
	event, err := catalog.DecodeEvent(raw.Value)
	if err != nil {
		return nil, err
	}

	if t.guard != nil {
		fp := Fingerprint(raw.Value)
		if t.guard.Seen(event.ID, fp) {
			t.countReplay("hit")
			t.logger.Debug("skipping replayed event", "event_id", event.ID, "offset", raw.Offset)
			return nil, nil
		}
		t.countReplay("miss")
		t.mu.Lock()
		t.pending = append(t.pending, guardKey{eventID: event.ID, fingerprint: fp})
		t.mu.Unlock()
	}

	res, err := t.processor.Build(event)
	if err != nil {
		t.processor.ObserveFailure(event.ID, err)
		return nil, err
	}
	t.processor.Observe(res)

	rows := make([]domain.OutputRow, 0, res.Rows())
	rows = append(rows, res.P...)
	rows = append(rows, res.S...)
	return rows, nil
}

// Settle ends a batch. When its rows were not published, the events recorded
// during the batch are forgotten so their redelivery is not taken for a replay.
func (t *EventTransformer) Settle(published bool) {
	t.mu.Lock()
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()

	if published || t.guard == nil {
		return
	}
	for _, k := range pending {
		t.guard.Forget(k.eventID, k.fingerprint)
	}
	t.logger.Debug("forgot unpublished events", "count", len(pending))
}

func (t *EventTransformer) countReplay(result string) {
	if t.metrics == nil {
		return
	}
	t.metrics.ReplayCache.WithLabelValues(result).Inc()
}
