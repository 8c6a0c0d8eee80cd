// Package export converts registered paths to external coordinates and
// encodes them as GeoJSON or plain JSON.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vk/floodpath/internal/grid"
	"github.com/vk/floodpath/internal/registry"
)

// Format selects the output encoding.
type Format int

const (
	GeoJSON Format = iota
	JSON
)

// ParseFormat parses "geojson" or "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "geojson":
		return GeoJSON, nil
	case "json":
		return JSON, nil
	}
	return 0, fmt.Errorf("export: unknown format %q", s)
}

func (f Format) String() string {
	if f == JSON {
		return "json"
	}
	return "geojson"
}

// Point is an (x, y) pair in external coordinates.
type Point [2]float64

// Line is one exported path.
type Line struct {
	ID              int64   `json:"point_id"`
	Weight          float64 `json:"crit_percent"`
	Points          []Point `json:"points"`
	Hazards         []Point `json:"hazards"`
	InheritedFrom   int64   `json:"inherited_from,omitempty"`
	InheritedWeight float64 `json:"inherited_weight,omitempty"`
}

// Lines converts records to lines using the centre of each cell. The order
// of records is kept.
func Lines(records []registry.Record, t grid.Transform) []Line {
	out := make([]Line, 0, len(records))
	for _, r := range records {
		out = append(out, Line{
			ID:              r.ID,
			Weight:          r.Weight,
			Points:          points(r.Cells, t),
			Hazards:         points(r.Hits, t),
			InheritedFrom:   r.InheritedFrom,
			InheritedWeight: r.InheritedWeight,
		})
	}
	return out
}

func points(cells []grid.Cell, t grid.Transform) []Point {
	out := make([]Point, len(cells))
	for i, c := range cells {
		x, y := t.Center(c)
		out[i] = Point{x, y}
	}
	return out
}

// Write encodes lines in the given format.
func Write(w io.Writer, f Format, lines []Line) error {
	if f == JSON {
		return WriteJSON(w, lines)
	}
	return WriteGeoJSON(w, lines)
}

// WriteJSON writes lines as an indented JSON array.
func WriteJSON(w io.Writer, lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(lines); err != nil {
		return fmt.Errorf("export: encoding json: %w", err)
	}
	return nil
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string     `json:"type"`
	Geometry   geometry   `json:"geometry"`
	Properties properties `json:"properties"`
}

type geometry struct {
	Type        string  `json:"type"`
	Coordinates []Point `json:"coordinates"`
}

type properties struct {
	PointID         int64    `json:"point_id"`
	CritPercent     float64  `json:"crit_percent"`
	Hazards         []Point  `json:"hazards"`
	InheritedFrom   *int64   `json:"inherited_from"`
	InheritedWeight *float64 `json:"inherited_weight"`
}

// WriteGeoJSON writes lines as a FeatureCollection of LineStrings. A path
// of a single cell is written with the point repeated, since a LineString
// needs two positions.
func WriteGeoJSON(w io.Writer, lines []Line) error {
	fc := featureCollection{Type: "FeatureCollection", Features: make([]feature, 0, len(lines))}
	for _, l := range lines {
		coords := l.Points
		if len(coords) == 1 {
			coords = []Point{coords[0], coords[0]}
		}
		props := properties{PointID: l.ID, CritPercent: l.Weight, Hazards: l.Hazards}
		if l.InheritedFrom != 0 {
			from, weight := l.InheritedFrom, l.InheritedWeight
			props.InheritedFrom = &from
			props.InheritedWeight = &weight
		}
		fc.Features = append(fc.Features, feature{
			Type:       "Feature",
			Geometry:   geometry{Type: "LineString", Coordinates: coords},
			Properties: props,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fc); err != nil {
		return fmt.Errorf("export: encoding geojson: %w", err)
	}
	return nil
}
