// Package csvfile owns the CSV files written by a batch run.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"

	"github.com/couchcryptid/seismic-cluster-etl/internal/domain"
)

// PhasePath returns the per-phase output path, e.g. "out_Pn.csv".
func PhasePath(base, phase string) string {
	return base + "_" + phase + ".csv"
}

// SidecarPath returns the path of a derived output such as "out_sorted.csv".
func SidecarPath(base, name, ext string) string {
	return base + "_" + name + "." + ext
}

// file is a created output file with a CSV writer on top.
type file struct {
	path string
	f    *os.File
	w    *csv.Writer
}

func create(path string) (*file, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &file{path: path, f: f, w: csv.NewWriter(f)}, nil
}

func (f *file) close() error {
	var result *multierror.Error
	f.w.Flush()
	if err := f.w.Error(); err != nil {
		result = multierror.Append(result, fmt.Errorf("flush %s: %w", f.path, err))
	}
	if err := f.f.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close %s: %w", f.path, err))
	}
	return result.ErrorOrNil()
}

// PhaseFiles is the pair of headerless CSV sinks that receive P-type and
// S-type rows. Both files exist from OpenPhaseFiles until Close, even when no
// rows are written.
type PhaseFiles struct {
	p, s   *file
	closed bool
}

// OpenPhaseFiles creates (truncating) <base>_<P>.csv and <base>_<S>.csv.
func OpenPhaseFiles(base string, wt domain.WaveType) (*PhaseFiles, error) {
	p, err := create(PhasePath(base, wt.P))
	if err != nil {
		return nil, fmt.Errorf("open %s output: %w", wt.P, err)
	}
	s, err := create(PhasePath(base, wt.S))
	if err != nil {
		_ = p.close()
		return nil, fmt.Errorf("open %s output: %w", wt.S, err)
	}
	return &PhaseFiles{p: p, s: s}, nil
}

// P returns the writer for P-type rows.
func (pf *PhaseFiles) P() *csv.Writer { return pf.p.w }

// S returns the writer for S-type rows.
func (pf *PhaseFiles) S() *csv.Writer { return pf.s.w }

// Paths returns the P and S file paths in that order.
func (pf *PhaseFiles) Paths() []string { return []string{pf.p.path, pf.s.path} }

// Close flushes and closes both files, attempting both even if the first
// fails. Calling Close again is a no-op.
func (pf *PhaseFiles) Close() error {
	if pf.closed {
		return nil
	}
	pf.closed = true
	var result *multierror.Error
	if err := pf.p.close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := pf.s.close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// WriteRecords writes records to a new headerless CSV file at path.
func WriteRecords(path string, records [][]string) (err error) {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()
	for _, rec := range records {
		if err := f.w.Write(rec); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}
