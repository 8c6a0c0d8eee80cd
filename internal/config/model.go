package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid configuration")

// DefaultProgressEvery is used when progress_every is not set.
const DefaultProgressEvery = 1000

// Model is the unified, format-agnostic representation of one run.
type Model struct {
	Analysis   Analysis
	Grid       Grid
	Candidates Candidates
	Output     Output
}

// Analysis holds the options of the analysis block.
type Analysis struct {
	DuplicatePaths bool
	FirstPoint     bool
	// Workers bounds concurrent route walks; 0 means one per CPU.
	Workers      int
	OnlyWeighted bool
	// ProgressEvery is nil when unset, so that 0 can disable progress logs.
	ProgressEvery *int
}

// Grid names the direction and classification rasters.
type Grid struct {
	Direction string
	Class     string
}

// Candidates names the start point table and the optional weight table.
type Candidates struct {
	Points  string
	Weights string
}

// Output names where and how the result is written. An empty Path writes
// to standard output.
type Output struct {
	Path   string
	Format string
}

// ApplyDefaults fills unset optional fields.
func (m *Model) ApplyDefaults() {
	if m.Analysis.ProgressEvery == nil {
		n := DefaultProgressEvery
		m.Analysis.ProgressEvery = &n
	}
	if strings.TrimSpace(m.Output.Format) == "" {
		m.Output.Format = "geojson"
	}
}

// Progress returns the effective progress interval.
func (a Analysis) Progress() int {
	if a.ProgressEvery == nil {
		return DefaultProgressEvery
	}
	return *a.ProgressEvery
}

// Validate checks that the model can drive a run.
func (m *Model) Validate() error {
	var errs []error
	require := func(v, name string) {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("%w: %s is required", ErrInvalid, name))
		}
	}
	require(m.Grid.Direction, "grid.direction")
	require(m.Grid.Class, "grid.class")
	require(m.Candidates.Points, "candidates.points")

	if m.Analysis.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: analysis.workers must not be negative, got %d", ErrInvalid, m.Analysis.Workers))
	}
	if m.Analysis.Progress() < 0 {
		errs = append(errs, fmt.Errorf("%w: analysis.progress_every must not be negative", ErrInvalid))
	}
	switch strings.ToLower(m.Output.Format) {
	case "", "geojson", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: output.format must be 'geojson' or 'json', got %q", ErrInvalid, m.Output.Format))
	}
	return errors.Join(errs...)
}

// ResolvePaths makes every relative local location in m relative to base.
// Absolute paths and s3:// URLs are left alone.
func (m *Model) ResolvePaths(base string) {
	for _, p := range []*string{
		&m.Grid.Direction,
		&m.Grid.Class,
		&m.Candidates.Points,
		&m.Candidates.Weights,
		&m.Output.Path,
	} {
		*p = Resolve(base, *p)
	}
}

// Resolve joins a relative local location onto base.
func Resolve(base, loc string) string {
	if loc == "" || base == "" || strings.HasPrefix(loc, "s3://") || filepath.IsAbs(loc) {
		return loc
	}
	return filepath.Join(base, loc)
}

// Merge copies every field set in other over m. Booleans are merged with
// OR, so a later file cannot switch a flag back off.
func (m *Model) Merge(other *Model) {
	a, o := &m.Analysis, other.Analysis
	a.DuplicatePaths = a.DuplicatePaths || o.DuplicatePaths
	a.FirstPoint = a.FirstPoint || o.FirstPoint
	a.OnlyWeighted = a.OnlyWeighted || o.OnlyWeighted
	if o.Workers != 0 {
		a.Workers = o.Workers
	}
	if o.ProgressEvery != nil {
		a.ProgressEvery = o.ProgressEvery
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&m.Grid.Direction, other.Grid.Direction)
	set(&m.Grid.Class, other.Grid.Class)
	set(&m.Candidates.Points, other.Candidates.Points)
	set(&m.Candidates.Weights, other.Candidates.Weights)
	set(&m.Output.Path, other.Output.Path)
	set(&m.Output.Format, other.Output.Format)
}
