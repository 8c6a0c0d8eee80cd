package grid

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch is returned when the direction and class layers
	// do not share the same shape.
	ErrDimensionMismatch = errors.New("grid: direction and class layers differ in shape")
	// ErrEmpty is returned for a layer with no cells.
	ErrEmpty = errors.New("grid: layer has no cells")
	// ErrRagged is returned when the rows of a layer differ in length.
	ErrRagged = errors.New("grid: layer rows differ in length")
)

// Cell addresses a single raster cell by row and column.
type Cell struct {
	Row int
	Col int
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Grid is a pair of co-registered layers. Values are stored row-major in
// flat slices.
type Grid struct {
	rows      int
	cols      int
	direction []int32
	class     []Class
	transform Transform
}

// New validates both layers and copies them into an immutable Grid.
func New(direction [][]int32, class [][]Class, t Transform) (*Grid, error) {
	rows, cols, err := shape(len(direction), func(i int) int { return len(direction[i]) })
	if err != nil {
		return nil, fmt.Errorf("direction layer: %w", err)
	}
	crows, ccols, err := shape(len(class), func(i int) int { return len(class[i]) })
	if err != nil {
		return nil, fmt.Errorf("class layer: %w", err)
	}
	if rows != crows || cols != ccols {
		return nil, fmt.Errorf("%w: direction %dx%d, class %dx%d", ErrDimensionMismatch, rows, cols, crows, ccols)
	}

	g := &Grid{
		rows:      rows,
		cols:      cols,
		direction: make([]int32, 0, rows*cols),
		class:     make([]Class, 0, rows*cols),
		transform: t,
	}
	for r := 0; r < rows; r++ {
		g.direction = append(g.direction, direction[r]...)
		g.class = append(g.class, class[r]...)
	}
	return g, nil
}

func shape(rows int, width func(int) int) (int, int, error) {
	if rows == 0 || width(0) == 0 {
		return 0, 0, ErrEmpty
	}
	cols := width(0)
	for r := 1; r < rows; r++ {
		if width(r) != cols {
			return 0, 0, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrRagged, r, width(r), cols)
		}
	}
	return rows, cols, nil
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// Size returns the total number of cells.
func (g *Grid) Size() int { return g.rows * g.cols }

// Transform returns the affine transform of the grid.
func (g *Grid) Transform() Transform { return g.transform }

// Contains reports whether c lies inside the grid.
func (g *Grid) Contains(c Cell) bool {
	return c.Row >= 0 && c.Row < g.rows && c.Col >= 0 && c.Col < g.cols
}

// Direction returns the raw direction code at c. ok is false when c lies
// outside the grid.
func (g *Grid) Direction(c Cell) (int32, bool) {
	if !g.Contains(c) {
		return 0, false
	}
	return g.direction[c.Row*g.cols+c.Col], true
}

// Class returns the classification at c. ok is false when c lies outside
// the grid.
func (g *Grid) Class(c Cell) (Class, bool) {
	if !g.Contains(c) {
		return 0, false
	}
	return g.class[c.Row*g.cols+c.Col], true
}
