// Command cluster groups the phase arrivals of an earthquake catalog by the
// grid cell of each event's preferred origin.
//
// It writes one headerless CSV per phase label, <out>_<P>.csv and
// <out>_<S>.csv, and optionally a sorted index, its Parquet twin and matched
// P/S pairs.
//
// Usage:
//
//	go run ./cmd/cluster \
//	  -stations data/stations.csv \
//	  -catalog data/catalog.json \
//	  -out data/clusters \
//	  -wave-type "Pn Sn" -sorted -matched
//
// Grid and wave type defaults come from the environment (see internal/config).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/seismic-cluster-etl/internal/adapter/catalog"
	"github.com/couchcryptid/seismic-cluster-etl/internal/config"
	"github.com/couchcryptid/seismic-cluster-etl/internal/domain"
	"github.com/couchcryptid/seismic-cluster-etl/internal/observability"
	"github.com/couchcryptid/seismic-cluster-etl/internal/pipeline"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		slog.Warn("could not load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.Error("cluster failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	stations string
	catalog  string
	out      string
	waveType string
	grid     domain.Grid
	batch    pipeline.Options
}

func parseFlags(cfg *config.Config, args []string) (options, error) {
	o := options{grid: cfg.Grid}
	var policy string

	fs := flag.NewFlagSet("cluster", flag.ContinueOnError)
	fs.StringVar(&o.stations, "stations", cfg.StationsFile, "station list CSV (code,latitude,longitude,elevation)")
	fs.StringVar(&o.catalog, "catalog", "", "catalog JSON file")
	fs.StringVar(&o.out, "out", "", "output path prefix")
	fs.StringVar(&o.waveType, "wave-type", cfg.WaveType.String(), `phase label pair, e.g. "P S" or "Pn Sn"`)
	fs.Int64Var(&o.grid.NX, "nx", cfg.Grid.NX, "longitude bins")
	fs.Int64Var(&o.grid.NY, "ny", cfg.Grid.NY, "latitude bins")
	fs.Float64Var(&o.grid.DZ, "dz", cfg.Grid.DZ, "depth bin size in meters")
	fs.Float64Var(&o.grid.MaxDepth, "max-depth", cfg.Grid.MaxDepth, "deepest gridded depth in meters, 0 for unbounded")
	fs.StringVar(&policy, "out-of-range", string(cfg.Grid.Policy), "reject or clamp coordinates outside the grid")
	fs.BoolVar(&o.batch.SoleOrigin, "sole-origin", cfg.SoleOriginFallback, "use an event's only origin when it names no preferred origin")
	fs.BoolVar(&o.batch.SkipFailed, "skip-failed", false, "skip events that cannot be processed instead of aborting")
	fs.BoolVar(&o.batch.Sorted, "sorted", false, "also write <out>_sorted.csv")
	fs.BoolVar(&o.batch.Parquet, "parquet", false, "also write <out>_sorted.parquet")
	fs.BoolVar(&o.batch.Matched, "matched", false, "also write <out>_matched.csv")
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	if o.stations == "" || o.catalog == "" || o.out == "" {
		fs.Usage()
		return o, errors.New("missing required flags: -stations, -catalog, -out")
	}
	p, err := domain.ParseRangePolicy(policy)
	if err != nil {
		return o, err
	}
	o.grid.Policy = p
	return o, nil
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	o, err := parseFlags(cfg, args)
	if err != nil {
		return err
	}
	wt, err := domain.ParseWaveType(o.waveType)
	if err != nil {
		return err
	}

	stations, err := readStations(o.stations)
	if err != nil {
		return err
	}
	if dups := stations.Duplicates(); len(dups) > 0 {
		logger.Warn("duplicate station codes, last entry wins", "codes", dups)
	}

	events, err := catalog.ReadFile(o.catalog)
	if err != nil {
		return err
	}
	logger.Info("inputs loaded", "stations", stations.Len(), "events", len(events), "wave_type", wt.String())

	o.batch.Logger = logger
	sum, err := pipeline.ProcessManyEvents(ctx, events, stations, o.grid, wt, o.out, o.batch)
	logger.Info("run summary",
		"run_id", sum.RunID,
		"events", sum.Events,
		"processed", sum.Processed,
		"failed", sum.Failed,
		"p_rows", sum.PRows,
		"s_rows", sum.SRows,
		"unmatched", sum.Unmatched,
		"unresolved", sum.Unresolved,
		"files", sum.Files,
	)
	return err
}

func readStations(path string) (*domain.StationTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stations, err := domain.ReadStations(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return stations, nil
}
