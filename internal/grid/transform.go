package grid

import "math"

// Transform maps array indices to external coordinates for a north-up
// raster with square cells. OriginX is the left edge and OriginY the top
// edge of the raster.
type Transform struct {
	OriginX  float64
	OriginY  float64
	CellSize float64
}

// Index returns the cell containing the external point (x, y). The result
// may lie outside the grid; callers check it with Grid.Contains.
func (t Transform) Index(x, y float64) Cell {
	return Cell{
		Row: int(math.Floor((t.OriginY - y) / t.CellSize)),
		Col: int(math.Floor((x - t.OriginX) / t.CellSize)),
	}
}

// Center returns the external coordinate of the centre of c.
func (t Transform) Center(c Cell) (x, y float64) {
	x = t.OriginX + (float64(c.Col)+0.5)*t.CellSize
	y = t.OriginY - (float64(c.Row)+0.5)*t.CellSize
	return x, y
}

// Identity returns a transform whose cell centres sit at (col+0.5, -(row+0.5)).
// It is used when inputs are given directly as array indices.
func Identity() Transform {
	return Transform{CellSize: 1}
}
