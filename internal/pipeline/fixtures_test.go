package pipeline_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/seismic-cluster-etl/internal/adapter/catalog"
	"github.com/couchcryptid/seismic-cluster-etl/internal/domain"
)

var (
	testGrid     = domain.Grid{NX: 1440, NY: 720, DZ: 25, Policy: domain.RangeReject}
	testWaveType = domain.WaveType{P: "P", S: "S"}
)

func loadStations(t *testing.T) *domain.StationTable {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", "stations.csv"))
	require.NoError(t, err)
	defer f.Close()

	stations, err := domain.ReadStations(f)
	require.NoError(t, err)
	return stations
}

func loadCatalog(t *testing.T) []domain.Event {
	t.Helper()
	events, err := catalog.ReadFile(filepath.Join("testdata", "catalog.json"))
	require.NoError(t, err)
	require.Len(t, events, 4)
	return events
}

func eventByID(t *testing.T, id string) domain.Event {
	t.Helper()
	for _, e := range loadCatalog(t) {
		if e.ID == id {
			return e
		}
	}
	t.Fatalf("event %s not in catalog", id)
	return domain.Event{}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func golden(t *testing.T, name string) string {
	t.Helper()
	return readFile(t, filepath.Join("testdata", name))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

// recordingWriter captures records and can fail after a number of writes.
type recordingWriter struct {
	records [][]string
	failAt  int
	err     error
}

func (w *recordingWriter) Write(rec []string) error {
	if w.err != nil && len(w.records) == w.failAt {
		return w.err
	}
	w.records = append(w.records, rec)
	return nil
}

func stationsOf(records [][]string) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r[0])
	}
	return out
}
