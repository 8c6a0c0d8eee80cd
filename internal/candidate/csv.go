package candidate

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vk/floodpath/internal/grid"
)

// ErrColumns is returned when a table lacks the required columns.
var ErrColumns = errors.New("candidate: missing required columns")

var (
	idColumns     = []string{"id", "point_id", "objectid"}
	weightColumns = []string{"weight", "crit_percent"}
)

// ReadPoints decodes a points table. The header must name an id column and
// either x,y or row,col; a weight column is optional. Rows whose coordinate
// or weight does not parse are returned as rejections. A missing column or
// an unreadable id fails the whole table.
func ReadPoints(r io.Reader) ([]Point, []Rejection, error) {
	rows, cols, err := readTable(r)
	if err != nil {
		return nil, nil, err
	}

	idCol := column(cols, idColumns...)
	xCol, yCol := column(cols, "x"), column(cols, "y")
	rowCol, colCol := column(cols, "row"), column(cols, "col", "column")
	wCol := column(cols, weightColumns...)

	indexed := false
	switch {
	case idCol < 0:
		return nil, nil, fmt.Errorf("%w: id", ErrColumns)
	case xCol >= 0 && yCol >= 0:
	case rowCol >= 0 && colCol >= 0:
		indexed = true
	default:
		return nil, nil, fmt.Errorf("%w: x,y or row,col", ErrColumns)
	}

	points := make([]Point, 0, len(rows))
	var rejected []Rejection
	for i, rec := range rows {
		line := i + 2
		p := Point{Indexed: indexed}
		if p.ID, err = strconv.ParseInt(field(rec, idCol), 10, 64); err != nil {
			return nil, nil, fmt.Errorf("candidate: line %d: id: %w", line, err)
		}
		if err := parsePoint(&p, rec, xCol, yCol, rowCol, colCol, wCol); err != nil {
			rejected = append(rejected, Rejection{ID: p.ID, Err: fmt.Errorf("line %d: %w", line, err)})
			continue
		}
		points = append(points, p)
	}
	return points, rejected, nil
}

func parsePoint(p *Point, rec []string, xCol, yCol, rowCol, colCol, wCol int) error {
	var err error
	if p.Indexed {
		if p.Cell, err = parseCell(rec, rowCol, colCol); err != nil {
			return fmt.Errorf("%w: %w", ErrBadCoordinate, err)
		}
	} else {
		if p.X, err = strconv.ParseFloat(field(rec, xCol), 64); err != nil {
			return fmt.Errorf("%w: x: %w", ErrBadCoordinate, err)
		}
		if p.Y, err = strconv.ParseFloat(field(rec, yCol), 64); err != nil {
			return fmt.Errorf("%w: y: %w", ErrBadCoordinate, err)
		}
	}
	if raw := field(rec, wCol); raw != "" {
		if p.Weight, err = strconv.ParseFloat(raw, 64); err != nil {
			return fmt.Errorf("%w: %w", ErrBadWeight, err)
		}
		p.HasWeight = true
	}
	return nil
}

// ReadWeights decodes an id,weight table.
func ReadWeights(r io.Reader) (map[int64]float64, error) {
	rows, cols, err := readTable(r)
	if err != nil {
		return nil, err
	}
	idCol, wCol := column(cols, idColumns...), column(cols, weightColumns...)
	if idCol < 0 || wCol < 0 {
		return nil, fmt.Errorf("%w: id,weight", ErrColumns)
	}

	weights := make(map[int64]float64, len(rows))
	for i, rec := range rows {
		id, err := strconv.ParseInt(field(rec, idCol), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("candidate: weights line %d: id: %w", i+2, err)
		}
		w, err := strconv.ParseFloat(field(rec, wCol), 64)
		if err != nil {
			return nil, fmt.Errorf("candidate: weights line %d: weight: %w", i+2, err)
		}
		weights[id] = w
	}
	return weights, nil
}

func readTable(r io.Reader) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("%w: empty table", ErrColumns)
	}
	if err != nil {
		return nil, nil, err
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	return rows, cols, nil
}

func column(cols map[string]int, names ...string) int {
	for _, n := range names {
		if i, ok := cols[n]; ok {
			return i
		}
	}
	return -1
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseCell(rec []string, rowCol, colCol int) (grid.Cell, error) {
	row, err := strconv.Atoi(field(rec, rowCol))
	if err != nil {
		return grid.Cell{}, fmt.Errorf("row: %w", err)
	}
	col, err := strconv.Atoi(field(rec, colCol))
	if err != nil {
		return grid.Cell{}, fmt.Errorf("col: %w", err)
	}
	return grid.Cell{Row: row, Col: col}, nil
}
