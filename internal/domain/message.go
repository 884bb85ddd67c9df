package domain

import (
	"context"
	"time"
)

// RawEvent is a catalog message as read from the source topic, before it is
// decoded into an Event.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Headers   map[string]string

	// Commit acknowledges the message. Nil when the source has nothing to commit.
	Commit func(ctx context.Context) error
}
