package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/seismic-cluster-etl/internal/domain"
	"github.com/couchcryptid/seismic-cluster-etl/internal/pipeline"
)

func runBatch(t *testing.T, events []domain.Event, opts pipeline.Options) (string, pipeline.Summary, error) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "clusters")
	sum, err := pipeline.ProcessManyEvents(context.Background(), events, loadStations(t), testGrid, testWaveType, out, opts)
	return out, sum, err
}

func TestProcessManyEvents_Golden(t *testing.T) {
	finished := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(finished))
	t.Cleanup(func() { domain.SetClock(clockwork.NewRealClock()) })

	out, sum, err := runBatch(t, loadCatalog(t), pipeline.Options{SkipFailed: true, Sorted: true, Matched: true})

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)

	assert.Equal(t, golden(t, "golden_P.csv"), readFile(t, out+"_P.csv"))
	assert.Equal(t, golden(t, "golden_S.csv"), readFile(t, out+"_S.csv"))
	assert.Equal(t, golden(t, "golden_sorted.csv"), readFile(t, out+"_sorted.csv"))
	assert.Equal(t, golden(t, "golden_matched.csv"), readFile(t, out+"_matched.csv"))

	assert.Equal(t, 4, sum.Events)
	assert.Equal(t, 2, sum.Processed)
	assert.Equal(t, 2, sum.Failed)
	assert.Equal(t, 4, sum.PRows)
	assert.Equal(t, 3, sum.SRows)
	assert.Equal(t, 1, sum.Unresolved)
	assert.Equal(t, 1, sum.Unmatched)
	assert.Equal(t, 1, sum.OtherPhase)
	assert.Equal(t, 7, sum.IndexEntries)
	assert.Equal(t, 3, sum.MatchedPairs)
	assert.Equal(t, finished, sum.FinishedAt)
	_, perr := uuid.Parse(sum.RunID)
	assert.NoError(t, perr)
	assert.Equal(t, []string{out + "_P.csv", out + "_S.csv", out + "_sorted.csv", out + "_matched.csv"}, sum.Files)
}

func TestProcessManyEvents_RowCountMatchesQualifyingArrivals(t *testing.T) {
	events := loadCatalog(t)[:2]
	out, sum, err := runBatch(t, events, pipeline.Options{})
	require.NoError(t, err)

	lines := strings.Count(readFile(t, out+"_P.csv"), "\n") + strings.Count(readFile(t, out+"_S.csv"), "\n")
	assert.Equal(t, sum.Rows(), lines)

	stations := loadStations(t)
	qualifying := 0
	for _, e := range events {
		origin, ok := e.PreferredOrigin()
		require.True(t, ok)
		qualifying += domain.SelectArrivals(origin, stations, testWaveType).Total()
	}
	assert.Equal(t, qualifying, lines)
}

func TestProcessManyEvents_ByteIdenticalReruns(t *testing.T) {
	events := loadCatalog(t)[:2]
	first, _, err := runBatch(t, events, pipeline.Options{Sorted: true, Matched: true})
	require.NoError(t, err)
	second, _, err := runBatch(t, events, pipeline.Options{Sorted: true, Matched: true})
	require.NoError(t, err)

	for _, suffix := range []string{"_P.csv", "_S.csv", "_sorted.csv", "_matched.csv"} {
		assert.Equal(t, readFile(t, first+suffix), readFile(t, second+suffix), suffix)
	}
}

func TestProcessManyEvents_AbortsOnFirstFailure(t *testing.T) {
	out, sum, err := runBatch(t, loadCatalog(t), pipeline.Options{})

	var missing *domain.MissingOriginError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "evt-3", missing.EventID)
	assert.Equal(t, 3, sum.Events)
	assert.Equal(t, 2, sum.Processed)

	// Rows from events before the failure are flushed.
	assert.Equal(t, golden(t, "golden_P.csv"), readFile(t, out+"_P.csv"))
	_, statErr := os.Stat(out + "_sorted.csv")
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestProcessManyEvents_EmptyInputCreatesEmptyFiles(t *testing.T) {
	out, sum, err := runBatch(t, nil, pipeline.Options{})
	require.NoError(t, err)

	assert.Zero(t, sum.Rows())
	assert.Empty(t, readFile(t, out+"_P.csv"))
	assert.Empty(t, readFile(t, out+"_S.csv"))
}

func TestProcessManyEvents_PhaseLabelsNameFiles(t *testing.T) {
	out := filepath.Join(t.TempDir(), "regional")
	_, err := pipeline.ProcessManyEvents(context.Background(), loadCatalog(t)[:1], loadStations(t), testGrid,
		domain.WaveType{P: "Pn", S: "Sn"}, out, pipeline.Options{})
	require.NoError(t, err)

	assert.Equal(t, strings.Count(readFile(t, out+"_Pn.csv"), "\n"), 1)
	assert.Empty(t, readFile(t, out+"_Sn.csv"))
}

func TestProcessManyEvents_Parquet(t *testing.T) {
	out, sum, err := runBatch(t, loadCatalog(t)[:2], pipeline.Options{Parquet: true})
	require.NoError(t, err)

	data, err := os.ReadFile(out + "_sorted.parquet")
	require.NoError(t, err)
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, 7, sum.IndexEntries)
	assert.NotContains(t, sum.Files, out+"_sorted.csv")
}

func TestProcessManyEvents_InvalidGrid(t *testing.T) {
	out := filepath.Join(t.TempDir(), "never")
	_, err := pipeline.ProcessManyEvents(context.Background(), loadCatalog(t), loadStations(t),
		domain.Grid{NX: 0, NY: 720, DZ: 25}, testWaveType, out, pipeline.Options{})

	require.ErrorIs(t, err, domain.ErrInvalidGrid)
	_, statErr := os.Stat(out + "_P.csv")
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestProcessManyEvents_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := filepath.Join(t.TempDir(), "cancelled")

	_, err := pipeline.ProcessManyEvents(ctx, loadCatalog(t), loadStations(t), testGrid, testWaveType, out, pipeline.Options{})

	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, readFile(t, out+"_P.csv"))
}
