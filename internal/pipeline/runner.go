package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"forestpanel/internal/country"
	"forestpanel/internal/indicator"
	"forestpanel/internal/panel"
)

// Source is a provider capable of serving raw records for a rule. The
// three clients under internal/providers implement it; tests substitute
// in-memory fakes.
type Source interface {
	Fetch(ctx context.Context, rule indicator.Rule) ([]indicator.Record, error)
}

// Runner executes the enrichment stages against a set of named sources.
type Runner struct {
	sources     map[string]Source
	extractor   *indicator.Extractor
	assembler   *panel.Assembler
	logger      *slog.Logger
	concurrency int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithConcurrency bounds how many indicators a stage fetches in parallel.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewRunner wires a runner over the study's country scope. The sources map
// is keyed by SourceCepalstat, SourceWorldBank and SourceFaostat.
func NewRunner(resolver *country.Resolver, sources map[string]Source, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		sources:     sources,
		extractor:   indicator.NewExtractor(resolver, logger),
		assembler:   panel.NewAssembler(resolver, logger),
		logger:      logger,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Outcome bundles the two output panels with the run report.
type Outcome struct {
	Level  *panel.Panel
	Delta  *panel.Panel
	Report *Report
}

// extraction is the result of one fetch+extract, collected before the
// sequential join so assembly order never depends on goroutine timing.
type extraction struct {
	series panel.Series
	stats  indicator.Stats
	err    error
}

// Run executes every stage in order and returns the level panel, the delta
// panel and the report. A failing indicator never aborts the run: its
// column stays unpopulated, gets pruned, and the failure lands in the
// report. Only context cancellation stops a run early.
func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	runID := uuid.New().String()
	logger := r.logger.With("run_id", runID)
	report := &Report{RunID: runID, StartedAt: time.Now().UTC()}

	p := panel.New()
	for _, stage := range Stages() {
		logger.InfoContext(ctx, "stage starting",
			"stage", stage.Name, "indicators", len(stage.Requests))

		results := make([]extraction, len(stage.Requests))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.concurrency)
		for i, req := range stage.Requests {
			g.Go(func() error {
				results[i] = r.extract(gctx, req)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Joins run sequentially in request order so re-supplied columns
		// resolve deterministically.
		for i, req := range stage.Requests {
			res := results[i]
			status := IndicatorStatus{
				Stage:       stage.Name,
				Source:      req.Source,
				IndicatorID: req.Rule.IndicatorID,
				Column:      req.Rule.Column,
				Points:      len(res.series),
				Stats:       res.stats,
			}
			if res.err != nil {
				status.Error = res.err.Error()
				logger.ErrorContext(ctx, "indicator failed",
					"stage", stage.Name,
					"indicator", req.Rule.IndicatorID,
					"column", req.Rule.Column,
					"error", res.err,
				)
			}
			report.Indicators = append(report.Indicators, status)

			var overwrites []panel.Overwrite
			p, overwrites = r.assembler.Assemble(ctx, p, res.series, req.Rule.Column)
			report.Overwrites = append(report.Overwrites, overwrites...)
		}

		if stage.Derive != nil {
			p = stage.Derive(ctx, p)
		}
	}

	level := panel.WithPerCapita(p)
	level, droppedLevel := panel.Prune(level)
	report.DroppedColumns = append(report.DroppedColumns, droppedLevel...)

	delta, missing, droppedDelta := panel.BuildDeltas(ctx, logger, level)
	report.MissingDeltas = missing
	for _, c := range droppedDelta {
		if !contains(report.DroppedColumns, c) {
			report.DroppedColumns = append(report.DroppedColumns, c)
		}
	}

	report.Descriptives = make(map[int][]panel.ColumnStats, len(panel.AnalysisYears))
	for _, year := range panel.AnalysisYears {
		report.Descriptives[year] = panel.Describe(level, year, level.Columns())
	}

	report.LevelRows = level.NumRows()
	report.LevelColumns = len(level.Columns())
	report.DeltaRows = delta.NumRows()
	report.FinishedAt = time.Now().UTC()

	logger.InfoContext(ctx, "run complete",
		"level_rows", report.LevelRows,
		"level_columns", report.LevelColumns,
		"delta_rows", report.DeltaRows,
		"failed_indicators", len(report.Failed()),
	)
	return &Outcome{Level: level, Delta: delta, Report: report}, nil
}

// extract fetches and extracts one indicator, folding fetch and extraction
// failures into the result instead of propagating them.
func (r *Runner) extract(ctx context.Context, req SeriesRequest) extraction {
	src, ok := r.sources[req.Source]
	if !ok {
		return extraction{err: fmt.Errorf("no source registered for %q", req.Source)}
	}
	records, err := src.Fetch(ctx, req.Rule)
	if err != nil {
		return extraction{err: err}
	}
	series, stats, err := r.extractor.Extract(ctx, req.Rule, records)
	return extraction{series: series, stats: stats, err: err}
}

func contains(items []string, s string) bool {
	for _, v := range items {
		if v == s {
			return true
		}
	}
	return false
}
