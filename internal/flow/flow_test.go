package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/floodpath/internal/candidate"
	"github.com/vk/floodpath/internal/grid"
)

// uniformGrid builds a rows x cols grid where every direction is dir and
// every class is Normal, then applies the overrides.
func uniformGrid(t *testing.T, rows, cols int, dir int32, dirs map[grid.Cell]int32, classes map[grid.Cell]grid.Class) *grid.Grid {
	t.Helper()
	d := make([][]int32, rows)
	c := make([][]grid.Class, rows)
	for r := range d {
		d[r] = make([]int32, cols)
		c[r] = make([]grid.Class, cols)
		for col := range d[r] {
			d[r][col] = dir
		}
	}
	for cell, v := range dirs {
		d[cell.Row][cell.Col] = v
	}
	for cell, v := range classes {
		c[cell.Row][cell.Col] = v
	}
	g, err := grid.New(d, c, grid.Identity())
	require.NoError(t, err)
	return g
}

func TestOffset_Table(t *testing.T) {
	want := map[int32][2]int{
		1:   {0, 1},
		2:   {1, 1},
		4:   {1, 0},
		8:   {1, -1},
		16:  {0, -1},
		32:  {-1, -1},
		64:  {-1, 0},
		128: {-1, 1},
	}
	for dir, delta := range want {
		dr, dc, ok := Offset(dir)
		require.True(t, ok, "direction %d", dir)
		assert.Equal(t, delta, [2]int{dr, dc}, "direction %d", dir)
	}
}

func TestStep_DefinedDirections(t *testing.T) {
	g := uniformGrid(t, 3, 3, South, nil, map[grid.Cell]grid.Class{{Row: 0, Col: 2}: grid.HazardB})
	center := grid.Cell{Row: 1, Col: 1}

	for _, dir := range []int32{East, SouthEast, South, SouthWest, West, NorthWest, North, NorthEast} {
		dr, dc, _ := Offset(dir)
		mv := Step(g, center, dir)
		assert.Equal(t, Moved, mv.Kind)
		assert.Equal(t, grid.Cell{Row: 1 + dr, Col: 1 + dc}, mv.To)
	}

	mv := Step(g, center, NorthEast)
	assert.Equal(t, grid.HazardB, mv.Class)
}

func TestStep_SentinelValues(t *testing.T) {
	g := uniformGrid(t, 3, 3, South, nil, map[grid.Cell]grid.Class{{Row: 1, Col: 1}: grid.HazardA})
	at := grid.Cell{Row: 1, Col: 1}

	for v := int32(-300); v <= 300; v++ {
		if _, _, ok := Offset(v); ok {
			continue
		}
		mv := Step(g, at, v)
		require.Equal(t, Stalled, mv.Kind, "value %d", v)
		require.Equal(t, at, mv.To, "value %d", v)
		require.Equal(t, grid.TerminalEdge, mv.Class, "value %d", v)
	}
	for _, v := range []int32{-9999, 255, 256, 1 << 20} {
		mv := Step(g, at, v)
		assert.Equal(t, Stalled, mv.Kind, "value %d", v)
	}
}

func TestStep_OffGrid(t *testing.T) {
	g := uniformGrid(t, 2, 2, South, nil, nil)

	mv := Step(g, grid.Cell{Row: 1, Col: 0}, South)
	assert.Equal(t, OffGrid, mv.Kind)
	assert.Equal(t, grid.TerminalEdge, mv.Class)
	assert.Equal(t, grid.Cell{Row: 2, Col: 0}, mv.To)

	mv = Step(g, grid.Cell{Row: 0, Col: 0}, NorthWest)
	assert.Equal(t, OffGrid, mv.Kind)
}

func TestWalk_ReachesStream(t *testing.T) {
	g := uniformGrid(t, 5, 5, South, nil, map[grid.Cell]grid.Class{
		{Row: 2, Col: 2}: grid.HazardA,
		{Row: 4, Col: 2}: grid.TerminalStream,
	})

	r, err := NewTracer(g).Walk(grid.Cell{Row: 0, Col: 2})
	require.NoError(t, err)

	assert.Equal(t, ReachedStream, r.End)
	assert.Equal(t, []grid.Cell{{Row: 0, Col: 2}, {Row: 1, Col: 2}, {Row: 2, Col: 2}, {Row: 3, Col: 2}, {Row: 4, Col: 2}}, r.Cells)
	assert.True(t, r.Critical())
}

func TestWalk_SentinelStart(t *testing.T) {
	start := grid.Cell{Row: 1, Col: 1}
	g := uniformGrid(t, 3, 3, South,
		map[grid.Cell]int32{start: 0},
		map[grid.Cell]grid.Class{start: grid.HazardA})

	r, err := NewTracer(g).Walk(start)
	require.NoError(t, err)
	assert.Equal(t, SentinelDirection, r.End)
	assert.Equal(t, []grid.Cell{start}, r.Cells)
}

func TestWalk_LeavesGrid(t *testing.T) {
	g := uniformGrid(t, 3, 3, East, nil, nil)

	r, err := NewTracer(g).Walk(grid.Cell{Row: 1, Col: 0})
	require.NoError(t, err)
	assert.Equal(t, LeftGrid, r.End)
	assert.Equal(t, []grid.Cell{{Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 2}}, r.Cells)
}

func TestWalk_TerminatesOnLoop(t *testing.T) {
	// Every cell points at a neighbour in a 2x2 cycle.
	g := uniformGrid(t, 2, 2, East, map[grid.Cell]int32{
		{Row: 0, Col: 0}: East,
		{Row: 0, Col: 1}: South,
		{Row: 1, Col: 1}: West,
		{Row: 1, Col: 0}: North,
	}, nil)

	r, err := NewTracer(g).Walk(grid.Cell{Row: 0, Col: 0})
	require.NoError(t, err)
	assert.Equal(t, Looped, r.End)
	assert.Len(t, r.Cells, 4)
	assert.LessOrEqual(t, r.Len(), g.Size())
}

func TestWalk_StartOutside(t *testing.T) {
	g := uniformGrid(t, 2, 2, South, nil, nil)
	_, err := NewTracer(g).Walk(grid.Cell{Row: 5, Col: 0})
	require.ErrorIs(t, err, ErrStartOutside)
}

func TestWalk_BoundedOnEveryStart(t *testing.T) {
	// A spiral-ish field of mixed directions: every walk must stop within
	// rows*cols cells.
	codes := []int32{East, SouthEast, South, SouthWest, West, NorthWest, North, NorthEast, 0}
	rows, cols := 7, 9
	dirs := make(map[grid.Cell]int32)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			dirs[grid.Cell{Row: r, Col: c}] = codes[(r*31+c*17)%len(codes)]
		}
	}
	g := uniformGrid(t, rows, cols, South, dirs, nil)
	tr := NewTracer(g)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			route, err := tr.Walk(grid.Cell{Row: r, Col: c})
			require.NoError(t, err)
			assert.LessOrEqual(t, route.Len(), g.Size())
		}
	}
}

// recordingArbiter stops the trace once the tail reaches stopAt.
type recordingArbiter struct {
	stopAt    *grid.Cell
	consulted []grid.Cell
	finalized *Path
}

func (a *recordingArbiter) Converge(_ candidate.Candidate, p *Path) bool {
	a.consulted = append(a.consulted, p.Tail())
	return a.stopAt != nil && p.Tail() == *a.stopAt
}

func (a *recordingArbiter) Finalize(_ candidate.Candidate, p *Path) {
	a.finalized = p
}

func TestTrace_FinalizesAtTerminal(t *testing.T) {
	route := &Route{
		Cells:   []grid.Cell{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 2, Col: 0}},
		Classes: []grid.Class{grid.Normal, grid.HazardB, grid.TerminalStream},
		End:     ReachedStream,
	}
	arb := &recordingArbiter{}

	outcome, p := Trace(candidate.Candidate{ID: 1}, route, arb)

	assert.Equal(t, Finalized, outcome)
	assert.Equal(t, route.Cells, arb.consulted, "the arbiter is consulted at every cell, terminal included")
	require.NotNil(t, arb.finalized)
	assert.Equal(t, []grid.Cell{{Row: 1, Col: 0}}, p.Hits)
	assert.True(t, p.Critical())
}

func TestTrace_StopsOnConvergence(t *testing.T) {
	route := &Route{
		Cells:   []grid.Cell{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 2, Col: 0}},
		Classes: []grid.Class{grid.HazardA, grid.Normal, grid.TerminalEdge},
	}
	stop := grid.Cell{Row: 1, Col: 0}
	arb := &recordingArbiter{stopAt: &stop}

	outcome, p := Trace(candidate.Candidate{ID: 1}, route, arb)

	assert.Equal(t, Converged, outcome)
	assert.Nil(t, arb.finalized)
	assert.Equal(t, []grid.Cell{{Row: 0, Col: 0}, {Row: 1, Col: 0}}, p.Cells)
	assert.Equal(t, []grid.Cell{{Row: 0, Col: 0}}, p.Hits)
}
