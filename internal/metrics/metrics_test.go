package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counts(t *testing.T) {
	// --- Arrange ---
	reg := prometheus.NewRegistry()
	rec := New(reg)

	// --- Act ---
	rec.Candidate("accepted")
	rec.Candidate("accepted")
	rec.Candidate("rejected")
	rec.Trace(ResultFinalized)
	rec.Trace(ResultConverged)
	rec.Trace(ResultConverged)
	rec.Route(5)
	rec.Finish(3, 250*time.Millisecond)

	// --- Assert ---
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.candidates.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.candidates.WithLabelValues("rejected")))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.paths.WithLabelValues(ResultConverged)))
	assert.Equal(t, 3.0, testutil.ToFloat64(rec.criticalPaths))

	n, err := testutil.GatherAndCount(reg, "floodpath_analysis_route_cells", "floodpath_analysis_run_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() {
		rec.Candidate("accepted")
		rec.Route(1)
		rec.Trace(ResultFinalized)
		rec.Finish(0, time.Second)
	})
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
