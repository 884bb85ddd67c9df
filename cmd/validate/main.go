// Command validate checks a clustering run's phase files against the inputs
// that produced them. It rebuilds the expected rows from the station list and
// catalog, then verifies row counts, column formats, grid indices and station
// coordinates.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -stations data/stations.csv \
//	  -catalog data/catalog.json \
//	  -out data/clusters \
//	  -wave-type "P S"
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/couchcryptid/seismic-cluster-etl/internal/adapter/catalog"
	"github.com/couchcryptid/seismic-cluster-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/seismic-cluster-etl/internal/config"
	"github.com/couchcryptid/seismic-cluster-etl/internal/domain"
	"github.com/couchcryptid/seismic-cluster-etl/internal/pipeline"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// phaseFile is one headerless output file and the rows it should contain.
type phaseFile struct {
	label    string
	path     string
	records  [][]string
	rows     []domain.OutputRow
	expected []domain.OutputRow
}

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "WARN: load .env: %v\n", err)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}
	os.Exit(run(cfg, os.Args[1:], os.Stdout))
}

func run(cfg *config.Config, args []string, out io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(out)
	stationsPath := fs.String("stations", cfg.StationsFile, "station list CSV")
	catalogPath := fs.String("catalog", "", "catalog JSON file")
	base := fs.String("out", "", "output path prefix the run wrote to")
	waveType := fs.String("wave-type", cfg.WaveType.String(), "phase label pair used for the run")
	soleOrigin := fs.Bool("sole-origin", cfg.SoleOriginFallback, "the run resolved events without a preferred origin to their only origin")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *stationsPath == "" || *catalogPath == "" || *base == "" {
		fs.Usage()
		return 2
	}

	wt, err := domain.ParseWaveType(*waveType)
	if err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return 1
	}

	fmt.Fprintln(out, "=== Seismic Cluster Integrity Validation ===")
	fmt.Fprintln(out)

	stations, err := loadStations(*stationsPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load stations: %v\n", err)
		return 1
	}
	events, err := catalog.ReadFile(*catalogPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load catalog: %v\n", err)
		return 1
	}

	files := []*phaseFile{
		{label: wt.P, path: csvfile.PhasePath(*base, wt.P)},
		{label: wt.S, path: csvfile.PhasePath(*base, wt.S)},
	}
	for _, f := range files {
		if f.records, err = readRecords(f.path); err != nil {
			fmt.Fprintf(out, "FATAL: load %s: %v\n", f.path, err)
			return 1
		}
	}

	proc := pipeline.NewEventProcessor(stations, cfg.Grid, wt, nil, nil)
	proc.SetSoleOriginFallback(*soleOrigin)
	skipped := expectRows(events, proc, files[0], files[1])

	phases := []*phase{
		validateFormat(files),
		validateCounts(files),
		validateContent(files),
		validateGrid(files, cfg.Grid),
		validateStations(files, stations),
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-32s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Inputs: %d stations, %d events (%d not clusterable)\n", stations.Len(), len(events), skipped)
	for _, f := range files {
		fmt.Fprintf(out, "%s rows: %d written, %d expected\n", f.label, len(f.records), len(f.expected))
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func loadStations(path string) (*domain.StationTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return domain.ReadStations(f)
}

func readRecords(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// expectRows rebuilds the rows each phase file should hold, in catalog order.
// Events that cannot be clustered are counted and skipped, matching a run with
// failures skipped.
func expectRows(events []domain.Event, proc *pipeline.EventProcessor, p, s *phaseFile) int {
	skipped := 0
	for _, ev := range events {
		res, err := proc.Build(ev)
		if err != nil {
			skipped++
			continue
		}
		p.expected = append(p.expected, res.P...)
		s.expected = append(s.expected, res.S...)
	}
	return skipped
}

// ── Phase 1: column formats ──

func validateFormat(files []*phaseFile) *phase {
	p := &phase{name: "Column formats"}
	for _, f := range files {
		for i, rec := range f.records {
			row, err := parseRecord(rec)
			if err != nil {
				p.errorf("%s line %d: %v", f.path, i+1, err)
				continue
			}
			f.rows = append(f.rows, row)
		}
	}
	return p
}

func parseRecord(rec []string) (domain.OutputRow, error) {
	var row domain.OutputRow
	if len(rec) != len(domain.RowHeader) {
		return row, fmt.Errorf("expected %d columns, got %d", len(domain.RowHeader), len(rec))
	}
	row.Station = rec[0]
	floats := []struct {
		col int
		dst *float64
	}{
		{1, &row.StationLat}, {2, &row.StationLon},
		{5, &row.EventLat}, {6, &row.EventLon}, {7, &row.EventDepthM},
	}
	for _, fl := range floats {
		v, err := strconv.ParseFloat(rec[fl.col], 64)
		if err != nil {
			return row, fmt.Errorf("%s: %q is not a number", domain.RowHeader[fl.col], rec[fl.col])
		}
		*fl.dst = v
	}
	for col, dst := range map[int]*time.Time{3: &row.PickTime, 4: &row.OriginTime} {
		t, err := time.Parse(domain.TimeLayout, rec[col])
		if err != nil {
			return row, fmt.Errorf("%s: %q is not a %s time", domain.RowHeader[col], rec[col], domain.TimeLayout)
		}
		*dst = t
	}
	for col, dst := range map[int]*int64{8: &row.GridIndex, 9: &row.DepthBin} {
		v, err := strconv.ParseInt(rec[col], 10, 64)
		if err != nil {
			return row, fmt.Errorf("%s: %q is not an integer", domain.RowHeader[col], rec[col])
		}
		*dst = v
	}
	return row, nil
}

// ── Phase 2: row counts ──

func validateCounts(files []*phaseFile) *phase {
	p := &phase{name: "Row counts"}
	for _, f := range files {
		if len(f.records) != len(f.expected) {
			p.errorf("%s: %d rows, expected %d", f.path, len(f.records), len(f.expected))
		}
	}
	return p
}

// ── Phase 3: row content ──

func validateContent(files []*phaseFile) *phase {
	p := &phase{name: "Row content"}
	for _, f := range files {
		n := min(len(f.records), len(f.expected))
		for i := range n {
			want := f.expected[i].Record()
			if !slices.Equal(f.records[i], want) {
				p.errorf("%s line %d (event %s): got %v, want %v", f.path, i+1, f.expected[i].EventID, f.records[i], want)
			}
		}
	}
	return p
}

// ── Phase 4: grid indices ──

func validateGrid(files []*phaseFile, grid domain.Grid) *phase {
	p := &phase{name: "Grid indices"}
	for _, f := range files {
		for i, row := range f.rows {
			idx, cell, err := grid.Index(row.EventLat, row.EventLon, row.EventDepthM)
			if err != nil {
				p.errorf("%s row %d: %v", f.path, i+1, err)
				continue
			}
			if idx != row.GridIndex {
				p.errorf("%s row %d: grid_index %d, recomputed %d", f.path, i+1, row.GridIndex, idx)
			}
			if cell.Depth != row.DepthBin {
				p.errorf("%s row %d: depth_bin %d, recomputed %d", f.path, i+1, row.DepthBin, cell.Depth)
			}
		}
	}
	return p
}

// ── Phase 5: station coordinates ──

func validateStations(files []*phaseFile, stations *domain.StationTable) *phase {
	p := &phase{name: "Station coordinates"}
	for _, f := range files {
		for i, row := range f.rows {
			st, ok := stations.Lookup(row.Station)
			if !ok {
				p.errorf("%s row %d: unknown station %q", f.path, i+1, row.Station)
				continue
			}
			if st.Latitude != row.StationLat || st.Longitude != row.StationLon {
				p.errorf("%s row %d: %s at (%g, %g), station list has (%g, %g)",
					f.path, i+1, row.Station, row.StationLat, row.StationLon, st.Latitude, st.Longitude)
			}
		}
	}
	return p
}
