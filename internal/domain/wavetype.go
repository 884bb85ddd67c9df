package domain

import (
	"fmt"
	"strings"
)

// WaveType is the pair of phase labels that classify arrivals as P-type or
// S-type, e.g. {P: "Pn", S: "Sn"}.
type WaveType struct {
	P string
	S string
}

// ParseWaveType splits s on whitespace into exactly two distinct phase
// labels. Labels are kept verbatim; matching against arrivals is
// case-sensitive.
func ParseWaveType(s string) (WaveType, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return WaveType{}, fmt.Errorf("%w: %q", ErrInvalidWaveType, s)
	}
	if fields[0] == fields[1] {
		return WaveType{}, fmt.Errorf("%w: %q names the same phase twice", ErrInvalidWaveType, s)
	}
	return WaveType{P: fields[0], S: fields[1]}, nil
}

// String renders the pair in the form ParseWaveType accepts.
func (w WaveType) String() string {
	return w.P + " " + w.S
}

// Classify returns the label class of a phase: "P", "S" or "" when the phase
// matches neither label.
func (w WaveType) Classify(phase string) string {
	switch phase {
	case w.P:
		return "P"
	case w.S:
		return "S"
	default:
		return ""
	}
}
