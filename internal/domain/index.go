package domain

import (
	"sort"
	"strconv"
	"time"
)

// IndexEntry is one arrival in the grid-ordered index built from the phase
// files: which station saw which phase for an event located in GridIndex.
type IndexEntry struct {
	GridIndex  int64
	DepthBin   int64
	Phase      string
	Station    string
	PickTime   time.Time
	OriginTime time.Time
}

// EntryFromRow projects an output row onto the index.
func EntryFromRow(r OutputRow) IndexEntry {
	return IndexEntry{
		GridIndex:  r.GridIndex,
		DepthBin:   r.DepthBin,
		Phase:      r.Phase,
		Station:    r.Station,
		PickTime:   r.PickTime,
		OriginTime: r.OriginTime,
	}
}

// Record renders the entry as grid index, depth bin, phase, station, pick
// time, origin time.
func (e IndexEntry) Record() []string {
	return []string{
		strconv.FormatInt(e.GridIndex, 10),
		strconv.FormatInt(e.DepthBin, 10),
		e.Phase,
		e.Station,
		FormatTime(e.PickTime),
		FormatTime(e.OriginTime),
	}
}

func (e IndexEntry) less(o IndexEntry) bool {
	if e.GridIndex != o.GridIndex {
		return e.GridIndex < o.GridIndex
	}
	if e.Phase != o.Phase {
		return e.Phase < o.Phase
	}
	if e.Station != o.Station {
		return e.Station < o.Station
	}
	if !e.PickTime.Equal(o.PickTime) {
		return e.PickTime.Before(o.PickTime)
	}
	return e.OriginTime.Before(o.OriginTime)
}

func (e IndexEntry) same(o IndexEntry) bool {
	return e.GridIndex == o.GridIndex &&
		e.DepthBin == o.DepthBin &&
		e.Phase == o.Phase &&
		e.Station == o.Station &&
		e.PickTime.Equal(o.PickTime) &&
		e.OriginTime.Equal(o.OriginTime)
}

// SortIndex orders entries by grid index, phase, station, pick time and
// origin time, and drops exact duplicates. The input slice is not modified.
func SortIndex(entries []IndexEntry) []IndexEntry {
	sorted := append([]IndexEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].less(sorted[j]) })

	out := sorted[:0]
	for i, e := range sorted {
		if i > 0 && e.same(out[len(out)-1]) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// MatchedPair is a PhasePair flattened for output.
type MatchedPair struct {
	Waveform  WaveformID
	PTime     time.Time
	STime     time.Time
	GridIndex int64
}

// NewMatchedPair flattens pair for an event located in gridIndex.
func NewMatchedPair(pair PhasePair, gridIndex int64) MatchedPair {
	return MatchedPair{
		Waveform:  pair.Waveform,
		PTime:     pair.P.Pick.Time,
		STime:     pair.S.Pick.Time,
		GridIndex: gridIndex,
	}
}

// Lag returns the S minus P delay.
func (m MatchedPair) Lag() time.Duration { return m.STime.Sub(m.PTime) }

// Record renders network, station, channel, location, P time, S time, S-P
// seconds and grid index.
func (m MatchedPair) Record() []string {
	return []string{
		m.Waveform.Network,
		m.Waveform.Station,
		m.Waveform.Channel,
		m.Waveform.Location,
		FormatTime(m.PTime),
		FormatTime(m.STime),
		FormatFloat(m.Lag().Seconds()),
		strconv.FormatInt(m.GridIndex, 10),
	}
}
