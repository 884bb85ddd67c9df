package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/couchcryptid/seismic-cluster-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/seismic-cluster-etl/internal/domain"
	"github.com/couchcryptid/seismic-cluster-etl/internal/observability"
)

// Options tunes a batch run. The zero value writes only the two phase files
// and aborts on the first failing event.
type Options struct {
	// SkipFailed logs and skips events that fail instead of aborting. Their
	// errors are returned together after the run completes.
	SkipFailed bool
	// Sorted writes <out>_sorted.csv, the deduplicated grid-ordered index.
	Sorted bool
	// Parquet writes the same index to <out>_sorted.parquet.
	Parquet bool
	// Matched writes <out>_matched.csv with per-channel P/S pairs.
	Matched bool
	// SoleOrigin lets an event with no preferred origin ID fall back to its
	// only origin.
	SoleOrigin bool

	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Summary reports what a batch run did.
type Summary struct {
	RunID      string
	FinishedAt time.Time

	Events     int
	Processed  int
	Failed     int
	PRows      int
	SRows      int
	Unresolved int
	Unmatched  int
	OtherPhase int

	IndexEntries int
	MatchedPairs int
	Files        []string
}

// Rows returns the total number of phase rows written.
func (s Summary) Rows() int { return s.PRows + s.SRows }

// ProcessManyEvents processes events in order into <outputFile>_<P>.csv and
// <outputFile>_<S>.csv. Both files are created up front, truncating earlier
// runs, and are flushed and closed on every return path.
//
// Without Options.SkipFailed the first failing event aborts the run and its
// error is returned. With it, failures are counted and returned as a
// *multierror.Error alongside the summary of the completed run.
func ProcessManyEvents(ctx context.Context, events []domain.Event, stations *domain.StationTable, grid domain.Grid, wt domain.WaveType, outputFile string, opts Options) (sum Summary, err error) {
	sum.RunID = uuid.NewString()

	if err := grid.Validate(); err != nil {
		return sum, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("run_id", sum.RunID)
	proc := NewEventProcessor(stations, grid, wt, logger, opts.Metrics)
	proc.SetSoleOriginFallback(opts.SoleOrigin)

	files, err := csvfile.OpenPhaseFiles(outputFile, wt)
	if err != nil {
		return sum, err
	}
	sum.Files = files.Paths()
	defer func() {
		if cerr := files.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	var (
		failures *multierror.Error
		entries  []domain.IndexEntry
		pairs    []domain.MatchedPair
	)
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Events++

		res, perr := proc.Process(event, files.P(), files.S())
		if perr != nil {
			if !opts.SkipFailed || isWriteError(perr) {
				return sum, perr
			}
			sum.Failed++
			failures = multierror.Append(failures, perr)
			continue
		}

		sum.Processed++
		sum.PRows += len(res.P)
		sum.SRows += len(res.S)
		sum.Unresolved += res.Unresolved
		sum.Unmatched += res.Unmatched
		sum.OtherPhase += res.OtherPhase

		if opts.Sorted || opts.Parquet {
			for _, r := range res.P {
				entries = append(entries, domain.EntryFromRow(r))
			}
			for _, r := range res.S {
				entries = append(entries, domain.EntryFromRow(r))
			}
		}
		if opts.Matched {
			for _, pair := range domain.MatchPairs(res.Origin, stations, wt) {
				pairs = append(pairs, domain.NewMatchedPair(pair, res.GridIndex))
			}
		}
	}

	if err := writeSidecars(outputFile, entries, pairs, opts, &sum); err != nil {
		return sum, err
	}

	sum.FinishedAt = domain.Now()
	logger.Info("batch complete",
		"events", sum.Events,
		"failed", sum.Failed,
		"p_rows", sum.PRows,
		"s_rows", sum.SRows,
	)
	return sum, failures.ErrorOrNil()
}

// isWriteError reports whether err came from a sink rather than the event
// itself. Sink failures always abort.
func isWriteError(err error) bool {
	var missing *domain.MissingOriginError
	var outside *domain.OutOfRangeError
	return !errors.As(err, &missing) && !errors.As(err, &outside)
}
