package telemetry

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/datazip-inc/rowsync/constants"
	"github.com/datazip-inc/rowsync/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackSyncResult(t *testing.T) {
	tracker := NewTracker(t.TempDir(), true)
	tracker.now = func() time.Time { return time.Date(2023, time.October, 25, 12, 0, 0, 0, time.UTC) }

	_, err := tracker.TrackSyncResult("abc", true)
	require.NoError(t, err)
	_, err = tracker.TrackSyncResult("abc", false)
	require.NoError(t, err)
	metrics, err := tracker.TrackSyncResult("abc", true)
	require.NoError(t, err)

	assert.Equal(t, 3, metrics.Total)
	assert.Equal(t, 2, metrics.Success)
	assert.Equal(t, 1, metrics.Failed)
	assert.Equal(t, map[string]int{"2023-W43": 3}, metrics.Weeks)

	// state survives a new tracker on the same dir
	other := NewTracker(filepath.Dir(tracker.Path()), true)
	other.now = tracker.now
	metrics, err = other.TrackSyncResult("abc", false)
	require.NoError(t, err)
	assert.Equal(t, 4, metrics.Total)
}

func TestTrackSyncResultDisabled(t *testing.T) {
	tracker := NewTracker(t.TempDir(), false)
	metrics, err := tracker.TrackSyncResult("abc", true)
	assert.NoError(t, err)
	assert.Nil(t, metrics)
	assert.NoFileExists(t, tracker.Path())
}

func TestComputeConfigHash(t *testing.T) {
	cfg := &types.Config{
		Source: types.ConnectionConfig{URL: "postgres://db/app", Password: "one"},
		Job:    types.SyncJobConfig{SelectQuery: "SELECT id, name FROM users", BatchSize: 10},
	}

	hash := ComputeConfigHash(cfg)
	assert.Len(t, hash, 16)

	rotated := *cfg
	rotated.Source.Password = "two"
	assert.Equal(t, hash, ComputeConfigHash(&rotated))

	resized := *cfg
	resized.Job.BatchSize = 20
	assert.NotEqual(t, hash, ComputeConfigHash(&resized))

	assert.Empty(t, ComputeConfigHash(nil))
}

func TestOutcome(t *testing.T) {
	testCases := []struct {
		err      error
		expected string
	}{
		{nil, OutcomeSuccess},
		{fmt.Errorf("%w: bad", constants.ErrConfig), "config"},
		{fmt.Errorf("%w: down", constants.ErrConnection), "connection"},
		{&types.SyncError{Err: errors.New("constraint")}, "sync"},
		{fmt.Errorf("%w: declined", constants.ErrTruncateNotConfirmed), "not_confirmed"},
		{fmt.Errorf("%w: failed", constants.ErrTruncate), "truncate"},
		{errors.New("other"), "error"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Outcome(tc.err))
	}
}

func TestMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveCycle(types.SyncResult{RowsCommitted: 3, Commits: 2}, time.Second, nil)
	metrics.ObserveCycle(types.SyncResult{RowsCommitted: 1, Commits: 1}, time.Second, &types.SyncError{Err: errors.New("x")})
	metrics.ObserveSkipped()

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Cycles.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Cycles.WithLabelValues("sync")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Cycles.WithLabelValues(OutcomeSkipped)))
	assert.Equal(t, float64(4), testutil.ToFloat64(metrics.RowsCommitted))
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.Commits))

	recorder := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(recorder.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "rowsync_rows_committed_total 4")

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.ObserveCycle(types.SyncResult{}, 0, nil) })
}
