package flow

import (
	"github.com/vk/floodpath/internal/candidate"
	"github.com/vk/floodpath/internal/grid"
)

// Path is a candidate's path so far: the visited cells and, in order, the
// hazard cells among them.
type Path struct {
	Cells []grid.Cell
	Hits  []grid.Cell
}

// Tail returns the last visited cell.
func (p *Path) Tail() grid.Cell {
	return p.Cells[len(p.Cells)-1]
}

// Critical reports whether the path has passed through a hazard.
func (p *Path) Critical() bool {
	return len(p.Hits) > 0
}

// Arbiter decides what happens to a trace as it grows.
type Arbiter interface {
	// Converge is consulted with the path so far before each terminal
	// check. Returning true stops the trace at its current tail.
	Converge(c candidate.Candidate, p *Path) bool
	// Finalize is called once when the trace reaches its terminal cell
	// without converging.
	Finalize(c candidate.Candidate, p *Path)
}

// Outcome tells how a trace stopped.
type Outcome int

const (
	// Finalized means the trace reached its terminal cell.
	Finalized Outcome = iota
	// Converged means the Arbiter stopped the trace early.
	Converged
)

func (o Outcome) String() string {
	if o == Converged {
		return "converged"
	}
	return "finalized"
}

// Trace replays r for candidate c through a. It returns how the trace
// stopped and the path at that moment.
func Trace(c candidate.Candidate, r *Route, a Arbiter) (Outcome, *Path) {
	p := &Path{Cells: make([]grid.Cell, 0, len(r.Cells))}
	last := len(r.Cells) - 1

	for i, cell := range r.Cells {
		p.Cells = append(p.Cells, cell)
		if r.Classes[i].Hazard() {
			p.Hits = append(p.Hits, cell)
		}
		if a.Converge(c, p) {
			return Converged, p
		}
		if i == last {
			a.Finalize(c, p)
			return Finalized, p
		}
	}
	return Finalized, p
}
