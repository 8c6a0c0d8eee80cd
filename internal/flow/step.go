package flow

import "github.com/vk/floodpath/internal/grid"

// D8 direction codes.
const (
	East      int32 = 1
	SouthEast int32 = 2
	South     int32 = 4
	SouthWest int32 = 8
	West      int32 = 16
	NorthWest int32 = 32
	North     int32 = 64
	NorthEast int32 = 128
)

// MoveKind tells how a step ended.
type MoveKind int

const (
	// Moved means the step reached a neighbouring cell inside the grid.
	Moved MoveKind = iota
	// Stalled means the direction was a sentinel and the position did not change.
	Stalled
	// OffGrid means the neighbouring cell lies outside the grid.
	OffGrid
)

func (k MoveKind) String() string {
	switch k {
	case Moved:
		return "moved"
	case Stalled:
		return "stalled"
	case OffGrid:
		return "off_grid"
	}
	return "unknown"
}

// Move is the result of a single step.
type Move struct {
	To    grid.Cell
	Class grid.Class
	Kind  MoveKind
}

// Offset returns the (row, column) delta of a D8 code. ok is false for any
// value outside the eight codes.
func Offset(dir int32) (dRow, dCol int, ok bool) {
	switch dir {
	case East:
		return 0, 1, true
	case SouthEast:
		return 1, 1, true
	case South:
		return 1, 0, true
	case SouthWest:
		return 1, -1, true
	case West:
		return 0, -1, true
	case NorthWest:
		return -1, -1, true
	case North:
		return -1, 0, true
	case NorthEast:
		return -1, 1, true
	}
	return 0, 0, false
}

// Step moves one cell downstream of at following dir. A sentinel direction
// leaves the position unchanged and forces TerminalEdge. A neighbour outside
// the grid is reported as OffGrid with TerminalEdge and is never looked up.
func Step(g *grid.Grid, at grid.Cell, dir int32) Move {
	dr, dc, ok := Offset(dir)
	if !ok {
		return Move{To: at, Class: grid.TerminalEdge, Kind: Stalled}
	}
	next := grid.Cell{Row: at.Row + dr, Col: at.Col + dc}
	cls, inside := g.Class(next)
	if !inside {
		return Move{To: next, Class: grid.TerminalEdge, Kind: OffGrid}
	}
	return Move{To: next, Class: cls, Kind: Moved}
}
