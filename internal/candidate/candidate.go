// Package candidate models the riverbank points whose downstream paths are
// evaluated, and loads them from CSV tables.
package candidate

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/vk/floodpath/internal/grid"
)

var (
	// ErrDuplicateID is returned when two points share an id.
	ErrDuplicateID = errors.New("candidate: duplicate id")
	// ErrBadCoordinate marks a point whose coordinate cannot be converted
	// to a cell.
	ErrBadCoordinate = errors.New("candidate: malformed coordinate")
	// ErrBadWeight marks a point whose weight is not a finite number.
	ErrBadWeight = errors.New("candidate: malformed weight")
)

// Candidate is a start point with its criticality weight. Weighted is false
// when no weight was supplied for it.
type Candidate struct {
	ID       int64
	Start    grid.Cell
	Weight   float64
	Weighted bool
}

// Point is a raw candidate row. Either (X, Y) in external coordinates or a
// Cell is set, as told by Indexed.
type Point struct {
	ID        int64
	X, Y      float64
	Cell      grid.Cell
	Indexed   bool
	Weight    float64
	HasWeight bool
}

// Rejection records a point that could not become a candidate.
type Rejection struct {
	ID  int64
	Err error
}

// Build resolves points into candidates sorted by ascending id. Weights
// from the weights table take precedence over weights carried by the
// points. With onlyWeighted, points absent from both are left out. Points
// with malformed coordinates are returned as rejections; duplicate ids fail
// the whole build.
func Build(points []Point, weights map[int64]float64, t grid.Transform, onlyWeighted bool) ([]Candidate, []Rejection, error) {
	seen := make(map[int64]struct{}, len(points))
	out := make([]Candidate, 0, len(points))
	var rejected []Rejection

	for _, p := range points {
		if _, dup := seen[p.ID]; dup {
			return nil, nil, fmt.Errorf("%w: %d", ErrDuplicateID, p.ID)
		}
		seen[p.ID] = struct{}{}

		c := Candidate{ID: p.ID, Weight: p.Weight, Weighted: p.HasWeight}
		if w, ok := weights[p.ID]; ok {
			c.Weight, c.Weighted = w, true
		}
		if onlyWeighted && !c.Weighted {
			continue
		}
		if c.Weighted && !finite(c.Weight) {
			rejected = append(rejected, Rejection{ID: p.ID, Err: fmt.Errorf("%w: %v is not finite", ErrBadWeight, c.Weight)})
			continue
		}

		if p.Indexed {
			c.Start = p.Cell
		} else {
			if !finite(p.X) || !finite(p.Y) {
				rejected = append(rejected, Rejection{ID: p.ID, Err: fmt.Errorf("%w: (%v, %v)", ErrBadCoordinate, p.X, p.Y)})
				continue
			}
			c.Start = t.Index(p.X, p.Y)
		}
		out = append(out, c)
	}

	SortByID(out)
	return out, rejected, nil
}

// SortByID orders candidates by ascending id, the canonical processing order.
func SortByID(cs []Candidate) {
	slices.SortFunc(cs, func(a, b Candidate) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
