package grid

import "fmt"

// Class is the classification code of a single cell.
type Class int

const (
	// Normal cells are passable and carry no special meaning.
	Normal Class = 0
	// HazardA marks a building footprint.
	HazardA Class = 1
	// HazardB marks a road footprint.
	HazardB Class = 2
	// TerminalStream ends a trace where water re-enters the stream.
	TerminalStream Class = 3
	// TerminalEdge ends a trace at the map edge or an undefined direction.
	TerminalEdge Class = 4
)

// ParseClass converts a raw raster value into a Class.
func ParseClass(v int) (Class, bool) {
	c := Class(v)
	switch c {
	case Normal, HazardA, HazardB, TerminalStream, TerminalEdge:
		return c, true
	}
	return 0, false
}

// Hazard reports whether the cell flags a path as critical. Both hazard
// codes are treated identically.
func (c Class) Hazard() bool {
	return c == HazardA || c == HazardB
}

// Terminal reports whether reaching the cell ends a trace.
func (c Class) Terminal() bool {
	return c == TerminalStream || c == TerminalEdge
}

func (c Class) String() string {
	switch c {
	case Normal:
		return "normal"
	case HazardA:
		return "hazard_a"
	case HazardB:
		return "hazard_b"
	case TerminalStream:
		return "terminal_stream"
	case TerminalEdge:
		return "terminal_edge"
	}
	return fmt.Sprintf("class(%d)", int(c))
}
