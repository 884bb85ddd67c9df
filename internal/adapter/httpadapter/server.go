package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/seismic-cluster-etl/internal/domain"
)

// Info describes the clustering setup the service runs with.
type Info struct {
	WaveType    string  `json:"wave_type"`
	NX          int64   `json:"nx"`
	NY          int64   `json:"ny"`
	DZ          float64 `json:"dz_m"`
	MaxDepth    float64 `json:"max_depth_m"`
	OutOfRange  string  `json:"out_of_range"`
	Stations    int     `json:"stations"`
	SourceTopic string  `json:"source_topic,omitempty"`
	SinkTopic   string  `json:"sink_topic,omitempty"`
}

// NewInfo summarizes a grid, wave type and station table.
func NewInfo(grid domain.Grid, wt domain.WaveType, stations *domain.StationTable) Info {
	return Info{
		WaveType:   wt.String(),
		NX:         grid.NX,
		NY:         grid.NY,
		DZ:         grid.DZ,
		MaxDepth:   grid.MaxDepth,
		OutOfRange: string(grid.Policy),
		Stations:   stations.Len(),
	}
}

// Server exposes health, readiness, metrics and setup endpoints for the
// streaming service.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /info routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, info Info, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /info", handleInfo(info))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func handleInfo(info Info) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(info) //nolint:errcheck // best-effort response
	}
}
