package pipeline_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/seismic-cluster-etl/internal/domain"
	"github.com/couchcryptid/seismic-cluster-etl/internal/pipeline"
)

func rawEvent(t *testing.T, id string) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(eventByID(t, id))
	require.NoError(t, err)
	return domain.RawEvent{Value: data}
}

func TestEventTransformer_NilLoggerAndMetrics(t *testing.T) {
	proc := pipeline.NewEventProcessor(loadStations(t), testGrid, testWaveType, nil, nil)
	tfm := pipeline.NewTransformer(proc, pipeline.NewReplayGuard(4), nil, nil)
	raw := rawEvent(t, "evt-2")

	rows, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	tfm.Settle(true)

	rows, err = tfm.Transform(context.Background(), raw)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEventTransformer_SettleUnpublishedForgets(t *testing.T) {
	guard := pipeline.NewReplayGuard(4)
	proc := pipeline.NewEventProcessor(loadStations(t), testGrid, testWaveType, nil, nil)
	tfm := pipeline.NewTransformer(proc, guard, nil, nil)
	raw := rawEvent(t, "evt-1")

	_, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)
	tfm.Settle(false)
	assert.Equal(t, 0, guard.Len())

	rows, err := tfm.Transform(context.Background(), raw)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestEventTransformer_DecodeError(t *testing.T) {
	proc := pipeline.NewEventProcessor(loadStations(t), testGrid, testWaveType, nil, nil)
	tfm := pipeline.NewTransformer(proc, nil, nil, nil)

	_, err := tfm.Transform(context.Background(), domain.RawEvent{Value: []byte("{")})
	assert.Error(t, err)
}
