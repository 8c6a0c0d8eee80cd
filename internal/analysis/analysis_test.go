package analysis

import (
	"context"
	"math/rand"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/floodpath/internal/candidate"
	"github.com/vk/floodpath/internal/flow"
	"github.com/vk/floodpath/internal/grid"
	"github.com/vk/floodpath/internal/metrics"
	"github.com/vk/floodpath/internal/registry"
)

func cell(r, c int) grid.Cell { return grid.Cell{Row: r, Col: c} }

func weighted(id int64, start grid.Cell, w float64) candidate.Candidate {
	return candidate.Candidate{ID: id, Start: start, Weight: w, Weighted: true}
}

// southGrid returns a 5x5 grid flowing south with a stream at (4,2).
func southGrid(t *testing.T, dirs map[grid.Cell]int32, classes map[grid.Cell]grid.Class) *grid.Grid {
	t.Helper()
	d := make([][]int32, 5)
	c := make([][]grid.Class, 5)
	for r := range d {
		d[r] = []int32{4, 4, 4, 4, 4}
		c[r] = make([]grid.Class, 5)
	}
	c[4][2] = grid.TerminalStream
	for k, v := range dirs {
		d[k.Row][k.Col] = v
	}
	for k, v := range classes {
		c[k.Row][k.Col] = v
	}
	g, err := grid.New(d, c, grid.Identity())
	require.NoError(t, err)
	return g
}

func run(t *testing.T, g *grid.Grid, opts Options, cands ...candidate.Candidate) *Result {
	t.Helper()
	res, err := New(g, opts, nil).Run(context.Background(), cands)
	require.NoError(t, err)
	return res
}

func TestRun_NonCriticalTraceIsDiscarded(t *testing.T) {
	// --- Arrange ---
	g := southGrid(t, nil, nil)

	// --- Act ---
	res := run(t, g, Options{}, weighted(1, cell(0, 2), 10))

	// --- Assert ---
	assert.Empty(t, res.Records)
	assert.Zero(t, res.Critical)
	assert.Equal(t, 1, res.Stats.Discarded)
}

func TestRun_CriticalTraceIsExported(t *testing.T) {
	g := southGrid(t, nil, map[grid.Cell]grid.Class{cell(2, 2): grid.HazardA})

	res := run(t, g, Options{}, weighted(1, cell(0, 2), 10))

	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, []grid.Cell{cell(0, 2), cell(1, 2), cell(2, 2), cell(3, 2), cell(4, 2)}, rec.Cells)
	assert.Equal(t, []grid.Cell{cell(2, 2)}, rec.Hits)
	assert.Equal(t, 1, res.Critical)
}

func TestRun_ConvergingCandidatesUnderPriorityMerge(t *testing.T) {
	// --- Arrange ---
	g := southGrid(t,
		map[grid.Cell]int32{cell(1, 1): flow.SouthEast, cell(1, 3): flow.SouthWest},
		map[grid.Cell]grid.Class{cell(1, 1): grid.HazardA, cell(3, 2): grid.HazardB},
	)

	// --- Act ---
	// Given out of order on purpose: the run must still commit 1 before 2.
	res := run(t, g, Options{Policy: registry.PriorityMerge},
		weighted(2, cell(0, 3), 20),
		weighted(1, cell(0, 1), 80),
	)

	// --- Assert ---
	require.Len(t, res.Records, 2)
	first, second := res.Records[0], res.Records[1]

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, []grid.Cell{cell(0, 1), cell(1, 1), cell(2, 2)}, first.Cells)
	assert.Equal(t, []grid.Cell{cell(1, 1)}, first.Hits)

	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, []grid.Cell{cell(0, 3), cell(1, 3), cell(2, 2), cell(3, 2), cell(4, 2)}, second.Cells)
	assert.Equal(t, []grid.Cell{cell(3, 2)}, second.Hits)
	assert.Equal(t, 20.0, second.Weight)
	assert.Equal(t, int64(1), second.InheritedFrom)
}

func TestRun_SentinelHazardStart(t *testing.T) {
	g := southGrid(t, map[grid.Cell]int32{cell(1, 1): -1}, map[grid.Cell]grid.Class{cell(1, 1): grid.HazardA})

	res := run(t, g, Options{}, weighted(7, cell(1, 1), 5))

	require.Len(t, res.Records, 1)
	assert.Equal(t, []grid.Cell{cell(1, 1)}, res.Records[0].Cells)
	assert.Equal(t, []grid.Cell{cell(1, 1)}, res.Records[0].Hits)
}

func TestRun_EmptyCandidateSet(t *testing.T) {
	g := southGrid(t, nil, nil)

	res := run(t, g, Options{})

	assert.Empty(t, res.Records)
	assert.Zero(t, res.Candidates)
}

func TestRun_MissingWeight(t *testing.T) {
	g := southGrid(t, nil, map[grid.Cell]grid.Class{cell(2, 2): grid.HazardA})
	unweighted := candidate.Candidate{ID: 3, Start: cell(0, 2)}

	t.Run("fatal under priority merge", func(t *testing.T) {
		_, err := New(g, Options{Policy: registry.PriorityMerge}, nil).Run(context.Background(), []candidate.Candidate{unweighted})
		require.ErrorIs(t, err, ErrMissingWeight)
	})

	t.Run("defaults to zero otherwise", func(t *testing.T) {
		res := run(t, g, Options{Policy: registry.FirstClaim}, unweighted)
		require.Len(t, res.Records, 1)
		assert.Zero(t, res.Records[0].Weight)
		require.Len(t, res.Diagnostics, 1)
		assert.ErrorIs(t, res.Diagnostics[0].Err, ErrMissingWeight)
	})
}

func TestRun_DuplicateID(t *testing.T) {
	g := southGrid(t, nil, nil)
	_, err := New(g, Options{}, nil).Run(context.Background(), []candidate.Candidate{
		weighted(1, cell(0, 0), 1),
		weighted(1, cell(0, 1), 2),
	})
	require.ErrorIs(t, err, candidate.ErrDuplicateID)
}

func TestRun_StartOutsideGridIsSkipped(t *testing.T) {
	g := southGrid(t, nil, map[grid.Cell]grid.Class{cell(2, 2): grid.HazardA})

	res := run(t, g, Options{},
		weighted(1, cell(9, 9), 50),
		weighted(2, cell(0, 2), 10),
	)

	require.Len(t, res.Records, 1)
	assert.Equal(t, int64(2), res.Records[0].ID)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, int64(1), res.Diagnostics[0].CandidateID)
	assert.ErrorIs(t, res.Diagnostics[0].Err, flow.ErrStartOutside)
}

func TestRun_LoopIsDiagnosed(t *testing.T) {
	g := southGrid(t, map[grid.Cell]int32{
		cell(0, 0): flow.East,
		cell(0, 1): flow.South,
		cell(1, 1): flow.West,
		cell(1, 0): flow.North,
	}, map[grid.Cell]grid.Class{cell(1, 1): grid.HazardA})

	res := run(t, g, Options{}, weighted(1, cell(0, 0), 1))

	require.Len(t, res.Records, 1)
	assert.Len(t, res.Records[0].Cells, 4)
	require.Len(t, res.Diagnostics, 1)
	assert.ErrorIs(t, res.Diagnostics[0].Err, ErrLooped)
}

func TestRun_CancelledContext(t *testing.T) {
	g := southGrid(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(g, Options{}, nil).Run(ctx, []candidate.Candidate{weighted(1, cell(0, 0), 1)})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_RecordsMetrics(t *testing.T) {
	g := southGrid(t, nil, map[grid.Cell]grid.Class{cell(2, 2): grid.HazardA})
	reg := prometheus.NewRegistry()

	_, err := New(g, Options{}, metrics.New(reg)).Run(context.Background(), []candidate.Candidate{
		weighted(1, cell(0, 2), 10),
		weighted(2, cell(0, 0), 10),
	})
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "floodpath_analysis_traces_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "one series: both traces finalized")
}

// randomCase builds a random grid and candidate set for property tests.
func randomCase(t *testing.T, seed int64) (*grid.Grid, []candidate.Candidate) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	codes := []int32{1, 2, 4, 8, 16, 32, 64, 128, 0}
	rows, cols := 15, 20

	d := make([][]int32, rows)
	c := make([][]grid.Class, rows)
	for r := range d {
		d[r] = make([]int32, cols)
		c[r] = make([]grid.Class, cols)
		for col := range d[r] {
			if rng.Intn(4) == 0 {
				d[r][col] = codes[rng.Intn(len(codes))]
			} else {
				d[r][col] = []int32{2, 4, 8}[rng.Intn(3)]
			}
			switch n := rng.Intn(25); {
			case n < 4:
				c[r][col] = grid.HazardA
			case n < 5:
				c[r][col] = grid.HazardB
			case n < 6:
				c[r][col] = grid.TerminalStream
			}
		}
	}
	g, err := grid.New(d, c, grid.Identity())
	require.NoError(t, err)

	var cands []candidate.Candidate
	for id := int64(1); id <= 80; id++ {
		cands = append(cands, weighted(id, cell(rng.Intn(rows), rng.Intn(cols)), float64(rng.Intn(100))))
	}
	return g, cands
}

func TestRun_Idempotent(t *testing.T) {
	g, cands := randomCase(t, 7)

	for _, policy := range []registry.Policy{registry.PriorityMerge, registry.FirstClaim, registry.AllowDuplicates} {
		a := run(t, g, Options{Policy: policy}, cands...)
		b := run(t, g, Options{Policy: policy}, cands...)
		assert.Equal(t, a, b, policy.String())
	}
}

func TestRun_WorkerCountDoesNotChangeResult(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		g, cands := randomCase(t, seed)
		single := run(t, g, Options{Workers: 1}, cands...)
		many := run(t, g, Options{Workers: 8}, cands...)
		assert.Equal(t, single.Records, many.Records, "seed %d", seed)
	}
}

func TestRun_AllowDuplicatesKeepsEveryCriticalRoute(t *testing.T) {
	g, cands := randomCase(t, 11)
	tracer := flow.NewTracer(g)

	want := 0
	for _, c := range cands {
		r, err := tracer.Walk(c.Start)
		require.NoError(t, err)
		if r.Critical() {
			want++
		}
	}

	res := run(t, g, Options{Policy: registry.AllowDuplicates}, cands...)
	assert.Equal(t, want, res.Critical)
	assert.Equal(t, want, res.HazardRoutes)
	assert.Zero(t, res.Stats.Truncated)
	assert.Zero(t, res.Stats.Removed)
}

func TestRun_PathsStayWithinGridSize(t *testing.T) {
	g, cands := randomCase(t, 3)
	for _, policy := range []registry.Policy{registry.PriorityMerge, registry.FirstClaim, registry.AllowDuplicates} {
		res := run(t, g, Options{Policy: policy}, cands...)
		for _, rec := range res.Records {
			assert.LessOrEqual(t, len(rec.Cells), g.Size())
		}
	}
}
