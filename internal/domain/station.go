package domain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// minStationFields is code, latitude, longitude, elevation.
const minStationFields = 4

// Station is a seismometer site. Elevation is in meters.
type Station struct {
	Code      string
	Latitude  float64
	Longitude float64
	Elevation float64
}

// StationTable maps station codes to stations. It is built once by
// ReadStations and is read-only afterwards, so it is safe to share.
type StationTable struct {
	byCode     map[string]Station
	duplicates []string
}

// NewStationTable builds a table from stations. Later entries replace earlier
// ones with the same code.
func NewStationTable(stations ...Station) *StationTable {
	t := &StationTable{byCode: make(map[string]Station, len(stations))}
	for _, s := range stations {
		t.add(s)
	}
	return t
}

func (t *StationTable) add(s Station) {
	if _, exists := t.byCode[s.Code]; exists {
		t.duplicates = append(t.duplicates, s.Code)
	}
	t.byCode[s.Code] = s
}

// Lookup returns the station registered under code.
func (t *StationTable) Lookup(code string) (Station, bool) {
	s, ok := t.byCode[code]
	return s, ok
}

// Len returns the number of distinct station codes.
func (t *StationTable) Len() int { return len(t.byCode) }

// Codes returns all station codes in ascending order.
func (t *StationTable) Codes() []string {
	codes := make([]string, 0, len(t.byCode))
	for c := range t.byCode {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Duplicates returns codes that appeared more than once while building the
// table, in the order the repeats were seen.
func (t *StationTable) Duplicates() []string {
	return append([]string(nil), t.duplicates...)
}

// ReadStations parses a comma-separated station list into a StationTable.
//
// Each record needs at least code, latitude, longitude and elevation; extra
// columns are ignored. Blank lines and '#' comments are skipped, and a leading
// header row is recognized by its first column name. Any other malformed
// record yields a *FormatError. The reader is consumed to EOF.
func ReadStations(r io.Reader) (*StationTable, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	table := NewStationTable()
	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, &FormatError{Line: perr.StartLine, Err: perr.Err}
			}
			return nil, fmt.Errorf("read station list: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if first {
			first = false
			if isStationHeader(rec) {
				continue
			}
		}
		st, err := parseStationRecord(rec, line)
		if err != nil {
			return nil, err
		}
		table.add(st)
	}
	return table, nil
}

func isStationHeader(rec []string) bool {
	switch strings.ToLower(strings.TrimSpace(rec[0])) {
	case "code", "station", "sta", "station_code":
		return true
	}
	return false
}

func parseStationRecord(rec []string, line int) (Station, error) {
	if len(rec) < minStationFields {
		return Station{}, &FormatError{
			Line: line,
			Err:  fmt.Errorf("expected at least %d fields, got %d", minStationFields, len(rec)),
		}
	}

	code := strings.TrimSpace(rec[0])
	if code == "" {
		return Station{}, &FormatError{Line: line, Field: "code", Err: errors.New("empty station code")}
	}

	lat, err := parseCoordinate(rec[1], "latitude", 90, line)
	if err != nil {
		return Station{}, err
	}
	lon, err := parseCoordinate(rec[2], "longitude", 180, line)
	if err != nil {
		return Station{}, err
	}
	elev, err := parseCoordinate(rec[3], "elevation", math.Inf(1), line)
	if err != nil {
		return Station{}, err
	}

	return Station{Code: code, Latitude: lat, Longitude: lon, Elevation: elev}, nil
}

// parseCoordinate parses a finite float whose magnitude does not exceed limit.
func parseCoordinate(raw, field string, limit float64, line int) (float64, error) {
	s := strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &FormatError{Line: line, Field: field, Value: s, Err: errors.New("not a number")}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &FormatError{Line: line, Field: field, Value: s, Err: errors.New("not finite")}
	}
	if math.Abs(v) > limit {
		return 0, &FormatError{Line: line, Field: field, Value: s, Err: fmt.Errorf("outside ±%g", limit)}
	}
	return v, nil
}
