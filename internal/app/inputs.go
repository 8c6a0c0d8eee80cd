package app

import (
	"context"
	"fmt"

	"github.com/vk/floodpath/internal/candidate"
	"github.com/vk/floodpath/internal/ctxlog"
	"github.com/vk/floodpath/internal/grid"
)

// loadRaster reads one ESRI ASCII raster from storage.
func (a *App) loadRaster(ctx context.Context, location string) (*grid.Raster, error) {
	rc, err := a.storage.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r, err := grid.ReadASCII(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read raster '%s': %w", location, err)
	}
	return r, nil
}

// loadGrid reads both rasters and checks that they are co-registered.
func (a *App) loadGrid(ctx context.Context) (*grid.Grid, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading grid...", "direction", a.model.Grid.Direction, "class", a.model.Grid.Class)

	dir, err := a.loadRaster(ctx, a.model.Grid.Direction)
	if err != nil {
		return nil, err
	}
	cls, err := a.loadRaster(ctx, a.model.Grid.Class)
	if err != nil {
		return nil, err
	}

	g, err := grid.FromRasters(dir, cls)
	if err != nil {
		return nil, fmt.Errorf("failed to build grid: %w", err)
	}
	logger.Info("Grid loaded successfully.", "rows", g.Rows(), "cols", g.Cols())
	return g, nil
}

// loadCandidates reads the point table and the optional weight table and
// resolves them against the grid transform.
func (a *App) loadCandidates(ctx context.Context, t grid.Transform) ([]candidate.Candidate, []candidate.Rejection, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading candidates...", "points", a.model.Candidates.Points, "weights", a.model.Candidates.Weights)

	rc, err := a.storage.Open(ctx, a.model.Candidates.Points)
	if err != nil {
		return nil, nil, err
	}
	points, unread, err := candidate.ReadPoints(rc)
	rc.Close()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read candidates '%s': %w", a.model.Candidates.Points, err)
	}

	var weights map[int64]float64
	if loc := a.model.Candidates.Weights; loc != "" {
		wrc, err := a.storage.Open(ctx, loc)
		if err != nil {
			return nil, nil, err
		}
		weights, err = candidate.ReadWeights(wrc)
		wrc.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read weights '%s': %w", loc, err)
		}
	}

	cands, rejected, err := candidate.Build(points, weights, t, a.model.Analysis.OnlyWeighted)
	if err != nil {
		return nil, nil, err
	}
	rejected = append(unread, rejected...)
	logger.Info("Candidates loaded successfully.", "points", len(points)+len(unread), "candidates", len(cands), "rejected", len(rejected))
	return cands, rejected, nil
}
