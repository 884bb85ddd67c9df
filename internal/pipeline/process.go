package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/seismic-cluster-etl/internal/domain"
	"github.com/couchcryptid/seismic-cluster-etl/internal/observability"
)

// RowWriter receives one CSV record per call. *csv.Writer satisfies it.
type RowWriter interface {
	Write(record []string) error
}

// Result describes what one event produced.
type Result struct {
	EventID   string
	Origin    domain.Origin
	GridIndex int64
	Cell      domain.Cell
	P         []domain.OutputRow
	S         []domain.OutputRow

	Unresolved int
	Unmatched  int
	OtherPhase int
}

// Rows returns the number of rows emitted for the event.
func (r Result) Rows() int { return len(r.P) + len(r.S) }

// EventProcessor turns events into phase rows against a fixed station table,
// grid and wave type. It is safe for concurrent use.
type EventProcessor struct {
	stations *domain.StationTable
	grid     domain.Grid
	waveType domain.WaveType
	logger   *slog.Logger
	metrics  *observability.Metrics

	soleOrigin bool
}

// NewEventProcessor creates an EventProcessor. A nil logger discards output and
// nil metrics disables instrumentation.
func NewEventProcessor(stations *domain.StationTable, grid domain.Grid, wt domain.WaveType, logger *slog.Logger, metrics *observability.Metrics) *EventProcessor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &EventProcessor{
		stations: stations,
		grid:     grid,
		waveType: wt,
		logger:   logger,
		metrics:  metrics,
	}
}

// SetSoleOriginFallback lets events without a preferred origin ID use their
// only origin. Call it before the processor is shared.
func (p *EventProcessor) SetSoleOriginFallback(on bool) { p.soleOrigin = on }

// ProcessEvent writes a row for every qualifying arrival of event's preferred
// origin: P-type rows to pW and S-type rows to sW, each in catalog order.
// Nothing is written when the grid is unusable or the origin is missing or
// falls outside the grid.
func ProcessEvent(event domain.Event, stations *domain.StationTable, pW, sW RowWriter, grid domain.Grid, wt domain.WaveType) error {
	if err := grid.Validate(); err != nil {
		return err
	}
	_, err := NewEventProcessor(stations, grid, wt, nil, nil).Process(event, pW, sW)
	return err
}

// Build computes the rows for event without writing them.
func (p *EventProcessor) Build(event domain.Event) (Result, error) {
	res := Result{EventID: event.ID}

	origin, ok := event.ResolveOrigin(p.soleOrigin)
	if !ok {
		return res, &domain.MissingOriginError{EventID: event.ID}
	}
	res.Origin = origin

	idx, cell, err := p.grid.Index(origin.Latitude, origin.Longitude, origin.DepthMeters())
	if err != nil {
		return res, fmt.Errorf("event %s: %w", event.ID, err)
	}
	res.GridIndex, res.Cell = idx, cell

	sel := domain.SelectArrivals(origin, p.stations, p.waveType)
	res.Unresolved, res.Unmatched, res.OtherPhase = sel.Unresolved, sel.Unmatched, sel.OtherPhase
	res.P = p.rows(event.ID, origin, sel.P, idx, cell)
	res.S = p.rows(event.ID, origin, sel.S, idx, cell)
	return res, nil
}

func (p *EventProcessor) rows(eventID string, origin domain.Origin, arrivals []domain.Arrival, idx int64, cell domain.Cell) []domain.OutputRow {
	rows := make([]domain.OutputRow, 0, len(arrivals))
	for _, arr := range arrivals {
		// Selection only keeps arrivals whose station resolves.
		st, _ := p.stations.Lookup(arr.Pick.Waveform.Station)
		rows = append(rows, domain.NewOutputRow(eventID, arr, st, origin, idx, cell))
	}
	return rows
}

// Process builds the rows for event and writes them to pW and sW.
func (p *EventProcessor) Process(event domain.Event, pW, sW RowWriter) (Result, error) {
	res, err := p.Build(event)
	if err != nil {
		p.observeFailure(event.ID, err)
		return res, err
	}
	if err := writeRows(event.ID, pW, res.P); err != nil {
		p.observeFailure(event.ID, err)
		return res, err
	}
	if err := writeRows(event.ID, sW, res.S); err != nil {
		p.observeFailure(event.ID, err)
		return res, err
	}
	p.observe(res)
	return res, nil
}

// Observe records a successfully built result in logs and metrics. Callers
// that publish rows themselves use it in place of Process.
func (p *EventProcessor) Observe(res Result) { p.observe(res) }

// ObserveFailure records a failed event in logs and metrics.
func (p *EventProcessor) ObserveFailure(eventID string, err error) { p.observeFailure(eventID, err) }

func writeRows(eventID string, w RowWriter, rows []domain.OutputRow) error {
	for _, r := range rows {
		if err := w.Write(r.Record()); err != nil {
			return fmt.Errorf("event %s: station %s: write %s row: %w", eventID, r.Station, r.Phase, err)
		}
	}
	return nil
}

func (p *EventProcessor) observe(res Result) {
	p.logger.Debug("event processed",
		"event_id", res.EventID,
		"grid_index", res.GridIndex,
		"p_rows", len(res.P),
		"s_rows", len(res.S),
		"unmatched", res.Unmatched,
	)
	if p.metrics == nil {
		return
	}
	p.metrics.EventsProcessed.Inc()
	p.metrics.RowsWritten.WithLabelValues("P").Add(float64(len(res.P)))
	p.metrics.RowsWritten.WithLabelValues("S").Add(float64(len(res.S)))
	p.metrics.ArrivalsSkipped.WithLabelValues("unresolved").Add(float64(res.Unresolved))
	p.metrics.ArrivalsSkipped.WithLabelValues("unmatched").Add(float64(res.Unmatched))
	p.metrics.ArrivalsSkipped.WithLabelValues("other_phase").Add(float64(res.OtherPhase))
}

func (p *EventProcessor) observeFailure(eventID string, err error) {
	p.logger.Warn("event failed", "event_id", eventID, "error", err)
	if p.metrics != nil {
		p.metrics.EventsFailed.Inc()
	}
}
