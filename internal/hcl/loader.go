package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/floodpath/internal/config"
	"github.com/vk/floodpath/internal/ctxlog"
	"github.com/vk/floodpath/internal/fsutil"
)

// Extension is the file extension of HCL run files.
const Extension = ".hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	environ func() []string
}

// NewLoader creates a new HCL configuration loader that exposes the
// process environment as env.
func NewLoader() *Loader {
	return &Loader{environ: os.Environ}
}

var _ config.Loader = (*Loader)(nil)

// Load parses every .hcl file found under paths, in order, and merges them
// into one model. Later files override earlier ones.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, Extension)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in %s", Extension, strings.Join(paths, ", "))
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	evalCtx := l.evalContext()
	model := &config.Model{}

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, evalCtx, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		part := translate(&root)
		part.ResolvePaths(filepath.Dir(file))
		model.Merge(part)
		logger.Debug("HCL file merged.", "file", file)
	}

	model.ApplyDefaults()
	logger.Debug("HCL loading complete.", "files", len(files))
	return model, nil
}

// evalContext exposes environment variables as the env object.
func (l *Loader) evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, e := range l.environ() {
		name, value, ok := strings.Cut(e, "=")
		if ok && name != "" {
			vars[name] = cty.StringVal(value)
		}
	}

	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{Variables: map[string]cty.Value{"env": env}}
}

// translate converts the HCL-specific schema into the agnostic model.
func translate(root *fileRoot) *config.Model {
	m := &config.Model{}
	if a := root.Analysis; a != nil {
		m.Analysis = config.Analysis{
			DuplicatePaths: a.DuplicatePaths,
			FirstPoint:     a.FirstPoint,
			Workers:        a.Workers,
			OnlyWeighted:   a.OnlyWeighted,
			ProgressEvery:  a.ProgressEvery,
		}
	}
	if g := root.Grid; g != nil {
		m.Grid = config.Grid{Direction: g.Direction, Class: g.Class}
	}
	if c := root.Candidates; c != nil {
		m.Candidates = config.Candidates{Points: c.Points, Weights: c.Weights}
	}
	if o := root.Output; o != nil {
		m.Output = config.Output{Path: o.Path, Format: o.Format}
	}
	return m
}
