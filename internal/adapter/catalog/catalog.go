// Package catalog reads and writes earthquake catalogs in their JSON form.
//
// A catalog document is either {"events": [...]} or a bare array of events.
// Times are RFC 3339.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/seismic-cluster-etl/internal/domain"
)

// ErrMissingEventID is returned by DecodeEvent for an event without an id.
var ErrMissingEventID = errors.New("catalog event has no id")

// Document is the wrapped catalog form.
type Document struct {
	Events []domain.Event `json:"events"`
}

// Decode reads a whole catalog document from r.
func Decode(r io.Reader) ([]domain.Event, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty catalog")
	}

	if data[0] == '[' {
		var events []domain.Event
		if err := json.Unmarshal(data, &events); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
		return events, nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return doc.Events, nil
}

// ReadFile decodes the catalog stored at path.
func ReadFile(path string) ([]domain.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// DecodeEvent decodes a single event, as carried by one stream message.
func DecodeEvent(data []byte) (domain.Event, error) {
	var event domain.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.Event{}, fmt.Errorf("decode catalog event: %w", err)
	}
	if event.ID == "" {
		return domain.Event{}, ErrMissingEventID
	}
	return event, nil
}

// Encode writes events to w as an indented {"events": [...]} document.
func Encode(w io.Writer, events []domain.Event) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if events == nil {
		events = []domain.Event{}
	}
	return enc.Encode(Document{Events: events})
}
