package grid

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrHeader is returned for a missing or malformed ASCII grid header.
	ErrHeader = errors.New("grid: invalid ascii header")
	// ErrCellCount is returned when the number of values disagrees with the header.
	ErrCellCount = errors.New("grid: value count does not match header")
	// ErrMisregistered is returned when two layers do not share a transform.
	ErrMisregistered = errors.New("grid: layers are not co-registered")
	// ErrUnknownClass is returned for a class value outside the known codes.
	ErrUnknownClass = errors.New("grid: unknown class code")
	// ErrNotInteger is returned for a non-integral direction or class value.
	ErrNotInteger = errors.New("grid: value is not an integer")
)

// Header is the ESRI ASCII grid header.
type Header struct {
	NCols    int
	NRows    int
	XLL      float64
	YLL      float64
	CellSize float64
	// Centered is true when the lower-left reference is a cell centre
	// (xllcenter/yllcenter) rather than a corner.
	Centered bool
	NoData   *float64
}

// Transform derives the affine transform described by the header.
func (h Header) Transform() Transform {
	x, y := h.XLL, h.YLL
	if h.Centered {
		x -= h.CellSize / 2
		y -= h.CellSize / 2
	}
	return Transform{
		OriginX:  x,
		OriginY:  y + float64(h.NRows)*h.CellSize,
		CellSize: h.CellSize,
	}
}

// Raster is a decoded ESRI ASCII grid, values stored row-major.
type Raster struct {
	Header Header
	Values []float64
}

// At returns the raw value at (row, col).
func (r *Raster) At(row, col int) float64 {
	return r.Values[row*r.Header.NCols+col]
}

// IsNoData reports whether v equals the header's NODATA value.
func (r *Raster) IsNoData(v float64) bool {
	return r.Header.NoData != nil && v == *r.Header.NoData
}

// ReadASCII decodes an ESRI ASCII grid.
func ReadASCII(rd io.Reader) (*Raster, error) {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)

	var (
		h      Header
		seen   = make(map[string]bool)
		values []float64
		first  string
	)

	for sc.Scan() {
		key := strings.ToLower(sc.Text())
		if !isHeaderKey(key) {
			first = sc.Text()
			break
		}
		if !sc.Scan() {
			return nil, fmt.Errorf("%w: %s has no value", ErrHeader, key)
		}
		val := sc.Text()
		if err := h.set(key, val); err != nil {
			return nil, err
		}
		seen[key] = true
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := h.validate(seen); err != nil {
		return nil, err
	}

	values = make([]float64, 0, h.NCols*h.NRows)
	if first != "" {
		v, err := strconv.ParseFloat(first, 64)
		if err != nil {
			return nil, fmt.Errorf("grid: value %q: %w", first, err)
		}
		values = append(values, v)
	}
	for sc.Scan() {
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("grid: value %d %q: %w", len(values), sc.Text(), err)
		}
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(values) != h.NCols*h.NRows {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrCellCount, len(values), h.NCols*h.NRows)
	}
	return &Raster{Header: h, Values: values}, nil
}

func isHeaderKey(k string) bool {
	switch k {
	case "ncols", "nrows", "xllcorner", "yllcorner", "xllcenter", "yllcenter", "cellsize", "nodata_value":
		return true
	}
	return false
}

func (h *Header) set(key, val string) error {
	var err error
	switch key {
	case "ncols":
		h.NCols, err = strconv.Atoi(val)
	case "nrows":
		h.NRows, err = strconv.Atoi(val)
	case "xllcorner", "xllcenter":
		h.XLL, err = strconv.ParseFloat(val, 64)
		h.Centered = key == "xllcenter"
	case "yllcorner", "yllcenter":
		h.YLL, err = strconv.ParseFloat(val, 64)
	case "cellsize":
		h.CellSize, err = strconv.ParseFloat(val, 64)
	case "nodata_value":
		var nd float64
		nd, err = strconv.ParseFloat(val, 64)
		h.NoData = &nd
	}
	if err != nil {
		return fmt.Errorf("%w: %s=%q: %v", ErrHeader, key, val, err)
	}
	return nil
}

func (h Header) validate(seen map[string]bool) error {
	for _, k := range []string{"ncols", "nrows", "cellsize"} {
		if !seen[k] {
			return fmt.Errorf("%w: missing %s", ErrHeader, k)
		}
	}
	if !(seen["xllcorner"] || seen["xllcenter"]) || !(seen["yllcorner"] || seen["yllcenter"]) {
		return fmt.Errorf("%w: missing lower-left reference", ErrHeader)
	}
	if seen["xllcenter"] != seen["yllcenter"] {
		return fmt.Errorf("%w: mixed corner and centre references", ErrHeader)
	}
	if h.NCols <= 0 || h.NRows <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrHeader, h.NRows, h.NCols)
	}
	if h.CellSize <= 0 {
		return fmt.Errorf("%w: cellsize %v", ErrHeader, h.CellSize)
	}
	return nil
}

// NoDirection is the direction code stored for direction NODATA cells. It
// is not a D8 code, so a route stops there.
const NoDirection int32 = 0

// FromRasters builds a Grid from a direction raster and a class raster. The
// class raster's NODATA cells become TerminalEdge; direction NODATA cells
// get NoDirection.
func FromRasters(direction, class *Raster) (*Grid, error) {
	dh, ch := direction.Header, class.Header
	if dh.NRows != ch.NRows || dh.NCols != ch.NCols {
		return nil, fmt.Errorf("%w: direction %dx%d, class %dx%d", ErrDimensionMismatch, dh.NRows, dh.NCols, ch.NRows, ch.NCols)
	}
	if dh.Transform() != ch.Transform() {
		return nil, fmt.Errorf("%w: direction %+v, class %+v", ErrMisregistered, dh.Transform(), ch.Transform())
	}

	dirs := make([][]int32, dh.NRows)
	classes := make([][]Class, dh.NRows)
	for r := 0; r < dh.NRows; r++ {
		dirs[r] = make([]int32, dh.NCols)
		classes[r] = make([]Class, dh.NCols)
		for c := 0; c < dh.NCols; c++ {
			if raw := direction.At(r, c); direction.IsNoData(raw) {
				dirs[r][c] = NoDirection
			} else {
				d, ok := integral(raw)
				if !ok {
					return nil, fmt.Errorf("%w: direction %v at (%d,%d)", ErrNotInteger, raw, r, c)
				}
				dirs[r][c] = int32(d)
			}

			raw := class.At(r, c)
			if class.IsNoData(raw) {
				classes[r][c] = TerminalEdge
				continue
			}
			v, ok := integral(raw)
			if !ok {
				return nil, fmt.Errorf("%w: class %v at (%d,%d)", ErrNotInteger, raw, r, c)
			}
			cls, ok := ParseClass(v)
			if !ok {
				return nil, fmt.Errorf("%w: %d at (%d,%d)", ErrUnknownClass, v, r, c)
			}
			classes[r][c] = cls
		}
	}
	return New(dirs, classes, dh.Transform())
}

func integral(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
		return 0, false
	}
	return int(v), true
}
