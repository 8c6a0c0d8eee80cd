// Package yamlconfig provides the YAML implementation of config.Loader.
// The document mirrors the HCL blocks:
//
//	analysis:
//	  first_point: true
//	  workers: 8
//	grid:
//	  direction: data/d8.asc
//	  class: data/class.asc
//	candidates:
//	  points: data/points.csv
//	output:
//	  path: out/paths.geojson
package yamlconfig

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vk/floodpath/internal/config"
	"github.com/vk/floodpath/internal/ctxlog"
	"github.com/vk/floodpath/internal/fsutil"
)

// Extensions lists the file extensions of YAML run files.
var Extensions = []string{".yaml", ".yml"}

type document struct {
	Analysis struct {
		DuplicatePaths bool `yaml:"duplicate_paths"`
		FirstPoint     bool `yaml:"first_point"`
		Workers        int  `yaml:"workers"`
		OnlyWeighted   bool `yaml:"only_weighted"`
		ProgressEvery  *int `yaml:"progress_every"`
	} `yaml:"analysis"`
	Grid struct {
		Direction string `yaml:"direction"`
		Class     string `yaml:"class"`
	} `yaml:"grid"`
	Candidates struct {
		Points  string `yaml:"points"`
		Weights string `yaml:"weights"`
	} `yaml:"candidates"`
	Output struct {
		Path   string `yaml:"path"`
		Format string `yaml:"format"`
	} `yaml:"output"`
}

// Loader reads YAML run files.
type Loader struct{}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

// Load decodes every YAML file under paths, in order, and merges them into
// one model. Unknown keys are rejected.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, Extensions...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no YAML files found in %s", strings.Join(paths, ", "))
	}

	model := &config.Model{}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read YAML file %s: %w", file, err)
		}
		part, err := decode(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode YAML file %s: %w", file, err)
		}
		part.ResolvePaths(filepath.Dir(file))
		model.Merge(part)
		logger.Debug("YAML file merged.", "file", file)
	}

	model.ApplyDefaults()
	return model, nil
}

func decode(data []byte) (*config.Model, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	return &config.Model{
		Analysis: config.Analysis{
			DuplicatePaths: doc.Analysis.DuplicatePaths,
			FirstPoint:     doc.Analysis.FirstPoint,
			Workers:        doc.Analysis.Workers,
			OnlyWeighted:   doc.Analysis.OnlyWeighted,
			ProgressEvery:  doc.Analysis.ProgressEvery,
		},
		Grid:       config.Grid{Direction: doc.Grid.Direction, Class: doc.Grid.Class},
		Candidates: config.Candidates{Points: doc.Candidates.Points, Weights: doc.Candidates.Weights},
		Output:     config.Output{Path: doc.Output.Path, Format: doc.Output.Format},
	}, nil
}
