package kafka

import (
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/seismic-cluster-etl/internal/domain"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("evt-1"),
		Value:     []byte(`{"id":"evt-1"}`),
		Topic:     "seismic-events",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "agency", Value: []byte("ga")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("evt-1"), raw.Key)
	assert.JSONEq(t, `{"id":"evt-1"}`, string(raw.Value))
	assert.Equal(t, "seismic-events", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "ga", raw.Headers["agency"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	origin := time.Date(2017, 8, 27, 11, 20, 5, 250000000, time.UTC)
	row := domain.OutputRow{
		EventID:     "evt-1",
		Phase:       "Pn",
		Station:     "ARMA",
		StationLat:  -30.4198,
		StationLon:  151.6283,
		PickTime:    origin.Add(30 * time.Second),
		OriginTime:  origin,
		EventLat:    -31.5,
		EventLon:    117.25,
		EventDepthM: 10000,
		GridIndex:   415058149,
		DepthBin:    400,
	}

	msg, err := serializeToMessage(row)
	require.NoError(t, err)

	assert.Equal(t, []byte("415058149"), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "phase", msg.Headers[0].Key)
	assert.Equal(t, []byte("Pn"), msg.Headers[0].Value)
	assert.Equal(t, "event_id", msg.Headers[1].Key)
	assert.Equal(t, []byte("evt-1"), msg.Headers[1].Value)

	var decoded domain.OutputRow
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, row.Station, decoded.Station)
	assert.Equal(t, row.GridIndex, decoded.GridIndex)
	assert.True(t, row.PickTime.Equal(decoded.PickTime))
}
