package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/floodpath/internal/analysis"
	"github.com/vk/floodpath/internal/candidate"
	"github.com/vk/floodpath/internal/ctxlog"
	"github.com/vk/floodpath/internal/export"
	"github.com/vk/floodpath/internal/grid"
	"github.com/vk/floodpath/internal/registry"
	"github.com/vk/floodpath/internal/report"
)

// Run executes one analysis: it loads the grid and candidates, traces every
// candidate, and writes the critical paths to the configured output.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	started := time.Now()
	a.logger.Debug("App.Run method started.")

	if a.appConfig.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.appConfig.HealthcheckPort)
		defer func() {
			if closeErr := a.closeHealthcheckServer(context.Background()); closeErr != nil {
				err = errors.Join(err, fmt.Errorf("failed to stop health check server: %w", closeErr))
			}
		}()
	}

	g, err := a.loadGrid(ctx)
	if err != nil {
		return err
	}
	cands, rejected, err := a.loadCandidates(ctx, g.Transform())
	if err != nil {
		return err
	}
	for _, r := range rejected {
		a.metrics.Candidate("rejected")
		a.logger.Warn("Candidate rejected.", "candidate", r.ID, "error", r.Err)
	}

	opts := analysis.Options{
		Policy:        registry.PolicyFromFlags(a.model.Analysis.DuplicatePaths, a.model.Analysis.FirstPoint),
		Workers:       a.model.Analysis.Workers,
		ProgressEvery: a.model.Analysis.Progress(),
	}
	a.logger.Info("🚀 Starting analysis...", "policy", opts.Policy.String(), "candidates", len(cands))
	res, err := analysis.New(g, opts, a.metrics).Run(ctx, cands)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if err := a.writeOutput(ctx, res, g.Transform()); err != nil {
		return err
	}
	a.logger.Info("🏁 Analysis finished.", "critical_paths", res.Critical, "elapsed", time.Since(started).String())

	if a.appConfig.Summary {
		fmt.Fprint(a.logW, report.Render(a.summary(res, rejected, time.Since(started))))
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) writeOutput(ctx context.Context, res *analysis.Result, t grid.Transform) error {
	format, err := export.ParseFormat(a.model.Output.Format)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, export.Lines(res.Records, t)); err != nil {
		return err
	}

	if a.model.Output.Path == "" {
		_, err := a.outW.Write(buf.Bytes())
		return err
	}
	if err := a.storage.Write(ctx, a.model.Output.Path, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	a.logger.Info("Output written.", "path", a.model.Output.Path, "format", format.String(), "bytes", buf.Len())
	return nil
}

func (a *App) summary(res *analysis.Result, rejected []candidate.Rejection, elapsed time.Duration) report.Summary {
	out := a.model.Output.Path
	if out == "" {
		out = "stdout"
	}
	s := report.Summary{
		RunID:      a.runID,
		Policy:     res.Policy.String(),
		Candidates: res.Candidates,
		Critical:   res.Critical,
		Discarded:  res.Stats.Discarded,
		Dropped:    res.Stats.Dropped,
		Inherited:  res.Stats.Inherited,
		Truncated:  res.Stats.Truncated,
		Removed:    res.Stats.Removed,
		Output:     out,
		Elapsed:    elapsed,
	}
	for _, r := range rejected {
		s.Diagnostics = append(s.Diagnostics, fmt.Sprintf("candidate %d: %v", r.ID, r.Err))
	}
	for _, d := range res.Diagnostics {
		s.Diagnostics = append(s.Diagnostics, d.Error())
	}
	return s
}
