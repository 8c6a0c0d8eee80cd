// Package analysis runs the flood-path analysis over a set of candidates:
// it walks every candidate's route, commits the routes to a path registry
// in ascending candidate id, and collects the surviving critical paths.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vk/floodpath/internal/candidate"
	"github.com/vk/floodpath/internal/ctxlog"
	"github.com/vk/floodpath/internal/flow"
	"github.com/vk/floodpath/internal/grid"
	"github.com/vk/floodpath/internal/metrics"
	"github.com/vk/floodpath/internal/registry"
)

var (
	// ErrMissingWeight is returned under PriorityMerge when a candidate
	// carries no weight.
	ErrMissingWeight = errors.New("analysis: candidate has no weight")
	// ErrLooped is reported as a diagnostic when a route runs into itself.
	ErrLooped = errors.New("analysis: route loops back onto itself")
)

// Options tune one run.
type Options struct {
	Policy registry.Policy
	// Workers bounds concurrent route walks. Zero means GOMAXPROCS.
	Workers int
	// ProgressEvery logs progress every N committed candidates. Zero
	// disables progress logging.
	ProgressEvery int
}

// Diagnostic reports a problem with a single candidate that did not stop
// the run.
type Diagnostic struct {
	CandidateID int64
	Err         error
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("candidate %d: %v", d.CandidateID, d.Err)
}

// Result is the outcome of a run.
type Result struct {
	Policy     registry.Policy
	Candidates int
	Records    []registry.Record // ascending id
	Critical   int
	// HazardRoutes counts walked routes that cross a hazard, before any
	// conflict resolution.
	HazardRoutes int
	Stats        registry.Stats
	Diagnostics  []Diagnostic
}

// Analyzer runs analyses over one grid.
type Analyzer struct {
	grid    *grid.Grid
	tracer  *flow.Tracer
	opts    Options
	metrics *metrics.Recorder
}

// New creates an Analyzer. rec may be nil.
func New(g *grid.Grid, opts Options, rec *metrics.Recorder) *Analyzer {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Analyzer{
		grid:    g,
		tracer:  flow.NewTracer(g),
		opts:    opts,
		metrics: rec,
	}
}

// Run analyses cands. The input slice is not modified. Candidates are
// always committed in ascending id order, whatever order they arrive in.
// A fatal error leaves no partial result.
func (a *Analyzer) Run(ctx context.Context, cands []candidate.Candidate) (*Result, error) {
	started := time.Now()
	logger := ctxlog.FromContext(ctx).With("policy", a.opts.Policy.String())
	logger.Debug("Analysis started.",
		"candidates", len(cands),
		"workers", a.opts.Workers,
		"rows", a.grid.Rows(),
		"cols", a.grid.Cols(),
	)

	cs := slices.Clone(cands)
	candidate.SortByID(cs)

	res := &Result{Policy: a.opts.Policy, Candidates: len(cs)}
	if err := a.checkCandidates(cs, res); err != nil {
		return nil, err
	}

	if len(cs) == 0 {
		logger.Warn("No candidates to analyse.")
		a.metrics.Finish(0, time.Since(started))
		return res, nil
	}

	routes, walkErrs, err := a.walk(ctx, cs)
	if err != nil {
		return nil, err
	}
	for _, r := range routes {
		if r != nil && r.Critical() {
			res.HazardRoutes++
		}
	}
	logger.Debug("All routes walked.", "hazard_routes", res.HazardRoutes)

	reg := registry.New(a.opts.Policy, logger)
	for i, c := range cs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("analysis: %w", err)
		}
		if walkErrs[i] != nil {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{CandidateID: c.ID, Err: walkErrs[i]})
			a.metrics.Candidate("skipped")
			logger.Warn("Candidate skipped.", "candidate", c.ID, "error", walkErrs[i])
			continue
		}

		route := routes[i]
		if route.End == flow.Looped {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{CandidateID: c.ID, Err: ErrLooped})
			logger.Warn("Route loops, treated as reaching the edge.", "candidate", c.ID, "cells", route.Len())
		}
		a.metrics.Candidate("accepted")
		a.metrics.Route(route.Len())

		outcome, _ := flow.Trace(c, route, reg)
		a.metrics.Trace(outcome.String())

		if n := a.opts.ProgressEvery; n > 0 && (i+1)%n == 0 {
			logger.Info("Progress.", "committed", i+1, "total", len(cs), "registered", reg.Len())
		}
	}

	res.Records = reg.Records()
	res.Critical = len(res.Records)
	res.Stats = reg.Stats()

	a.metrics.Finish(res.Critical, time.Since(started))
	logger.Info("Analysis finished.",
		"candidates", len(cs),
		"critical", res.Critical,
		"diagnostics", len(res.Diagnostics),
		"elapsed", time.Since(started).String(),
	)
	return res, nil
}

// checkCandidates rejects duplicate ids and resolves missing weights.
// cs must be sorted.
func (a *Analyzer) checkCandidates(cs []candidate.Candidate, res *Result) error {
	for i := range cs {
		if i > 0 && cs[i].ID == cs[i-1].ID {
			return fmt.Errorf("analysis: %w: %d", candidate.ErrDuplicateID, cs[i].ID)
		}
		if cs[i].Weighted {
			continue
		}
		if a.opts.Policy == registry.PriorityMerge {
			return fmt.Errorf("%w: %d", ErrMissingWeight, cs[i].ID)
		}
		cs[i].Weight = 0
		res.Diagnostics = append(res.Diagnostics, Diagnostic{CandidateID: cs[i].ID, Err: ErrMissingWeight})
	}
	return nil
}

// walk computes every route concurrently. Per-candidate failures land in
// the second slice; the error is only set for fatal failures.
func (a *Analyzer) walk(ctx context.Context, cs []candidate.Candidate) ([]*flow.Route, []error, error) {
	routes := make([]*flow.Route, len(cs))
	errs := make([]error, len(cs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i := range cs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := a.tracer.Walk(cs[i].Start)
			if err != nil {
				if errors.Is(err, flow.ErrStartOutside) {
					errs[i] = err
					return nil
				}
				return err
			}
			routes[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("analysis: walking routes: %w", err)
	}
	return routes, errs, nil
}
