package flow

import (
	"errors"
	"fmt"

	"github.com/vk/floodpath/internal/grid"
)

// ErrStartOutside is returned when a candidate's start cell is not inside
// the grid.
var ErrStartOutside = errors.New("flow: start cell outside grid")

// Termination records why a route ended.
type Termination int

const (
	// ReachedStream means the last cell is TerminalStream.
	ReachedStream Termination = iota
	// ReachedEdge means the last cell is TerminalEdge.
	ReachedEdge
	// SentinelDirection means the last cell carries an undefined direction.
	SentinelDirection
	// LeftGrid means the next step would leave the grid.
	LeftGrid
	// Looped means the next step would revisit a cell of the route.
	Looped
)

func (t Termination) String() string {
	switch t {
	case ReachedStream:
		return "stream"
	case ReachedEdge:
		return "edge"
	case SentinelDirection:
		return "sentinel"
	case LeftGrid:
		return "off_grid"
	case Looped:
		return "loop"
	}
	return "unknown"
}

// Route is the natural downstream path of one start cell, ignoring every
// other candidate. Classes[i] is the classification of Cells[i].
type Route struct {
	Cells   []grid.Cell
	Classes []grid.Class
	End     Termination
}

// Len returns the number of cells on the route.
func (r *Route) Len() int { return len(r.Cells) }

// Critical reports whether any cell of the route is a hazard.
func (r *Route) Critical() bool {
	for _, c := range r.Classes {
		if c.Hazard() {
			return true
		}
	}
	return false
}

// Tracer walks routes over a grid. It holds no mutable state and may be
// used from several goroutines.
type Tracer struct {
	grid *grid.Grid
}

// NewTracer creates a Tracer for g.
func NewTracer(g *grid.Grid) *Tracer {
	return &Tracer{grid: g}
}

// Walk follows the flow directions from start. The returned route never
// holds more than Grid.Size() cells: a sentinel, off-grid or looping step
// ends the route without appending a cell.
func (t *Tracer) Walk(start grid.Cell) (*Route, error) {
	cls, ok := t.grid.Class(start)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %dx%d grid", ErrStartOutside, start, t.grid.Rows(), t.grid.Cols())
	}

	r := &Route{
		Cells:   []grid.Cell{start},
		Classes: []grid.Class{cls},
	}
	visited := map[grid.Cell]struct{}{start: {}}
	cur := start

	for {
		switch cls {
		case grid.TerminalStream:
			r.End = ReachedStream
			return r, nil
		case grid.TerminalEdge:
			r.End = ReachedEdge
			return r, nil
		}

		dir, _ := t.grid.Direction(cur)
		mv := Step(t.grid, cur, dir)
		switch mv.Kind {
		case Stalled:
			r.End = SentinelDirection
			return r, nil
		case OffGrid:
			r.End = LeftGrid
			return r, nil
		}
		if _, seen := visited[mv.To]; seen {
			r.End = Looped
			return r, nil
		}

		visited[mv.To] = struct{}{}
		r.Cells = append(r.Cells, mv.To)
		r.Classes = append(r.Classes, mv.Class)
		cur, cls = mv.To, mv.Class
	}
}
