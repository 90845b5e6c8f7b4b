// Package pipeline runs every configured aggregation strategy against the
// source store, writes one report per strategy and checks that the strategies
// agree.
package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"salesreport/internal/aggregate"
	"salesreport/internal/config"
	"salesreport/internal/logging"
	"salesreport/internal/report"
	"salesreport/internal/store"
)

// Strategy pairs an aggregator with the report it produces.
type Strategy struct {
	Label      string // used in the confirmation line
	Path       string
	Aggregator aggregate.Aggregator
}

// Result is the outcome of one strategy.
type Result struct {
	Strategy string
	Path     string
	Rows     []report.Row
	Duration time.Duration
	Err      error
}

// Summary collects the results of a run.
type Summary struct {
	RunID   string
	Results []Result
}

// Succeeded returns the results of the strategies that completed.
func (s *Summary) Succeeded() []Result {
	var out []Result
	for _, r := range s.Results {
		if r.Err == nil {
			out = append(out, r)
		}
	}
	return out
}

// Runner executes the strategies in a fixed order.
type Runner struct {
	source     store.Source
	verify     bool
	strategies []Strategy
	logger     *zap.Logger
	out        io.Writer
}

// NewRunner builds the strategies enabled by cfg: relational, procedural and,
// when a datalog output path is set, datalog. Confirmations go to out.
func NewRunner(cfg *config.Config, logger *zap.Logger, out io.Writer) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	aggLogger := logging.Get(logger, logging.CategoryAggregate)

	strategies := []Strategy{
		{Label: "SQL", Path: cfg.SQLOutputPath, Aggregator: aggregate.NewRelational(aggLogger)},
		{Label: "Procedural", Path: cfg.PandasOutputPath, Aggregator: aggregate.NewProcedural(aggLogger)},
	}
	if cfg.IsDatalogEnabled() {
		dl, err := aggregate.NewDatalog(aggLogger)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, Strategy{Label: "Datalog", Path: cfg.DatalogOutputPath, Aggregator: dl})
	}

	return &Runner{
		source:     store.Source{Driver: cfg.Driver, DSN: cfg.DBPath},
		verify:     cfg.Verify,
		strategies: strategies,
		logger:     logger,
		out:        out,
	}, nil
}

// Run executes every strategy, even after one fails, and returns the
// combined error of all failed strategies and of verification.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString()}
	logger := logging.Get(r.logger, logging.CategoryPipeline).With(zap.String("run_id", summary.RunID))
	logger.Info("Starting run", zap.Int("strategies", len(r.strategies)))

	var errs error
	for _, s := range r.strategies {
		res := r.runStrategy(ctx, logger, s)
		summary.Results = append(summary.Results, res)
		if res.Err != nil {
			logger.Error("Strategy failed", zap.String("strategy", res.Strategy), zap.Error(res.Err))
			errs = multierr.Append(errs, res.Err)
			continue
		}
		logger.Info("Report written",
			zap.String("strategy", res.Strategy),
			zap.String("path", res.Path),
			zap.Int("rows", len(res.Rows)),
			zap.Duration("duration", res.Duration))
	}

	if r.verify {
		if err := Verify(summary.Succeeded()); err != nil {
			logger.Error("Strategies disagree", zap.Error(err))
			errs = multierr.Append(errs, err)
		} else {
			logger.Debug("Strategies agree", zap.Int("compared", len(summary.Succeeded())))
		}
	}

	return summary, errs
}

// runStrategy aggregates with a store handle scoped to this strategy, then
// writes the report. Nothing is written when aggregation fails.
func (r *Runner) runStrategy(ctx context.Context, logger *zap.Logger, s Strategy) Result {
	name := s.Aggregator.Name()
	res := Result{Strategy: name, Path: s.Path}
	start := time.Now()
	logger.Debug("Running strategy", zap.String("strategy", name))

	fail := func(err error) Result {
		res.Err = &StrategyError{Strategy: name, Err: err}
		res.Rows = nil
		res.Duration = time.Since(start)
		return res
	}

	storeLogger := logging.Get(r.logger, logging.CategoryStore)
	err := store.WithSource(ctx, r.source, storeLogger, func(db *sql.DB) error {
		if err := store.CheckSchema(ctx, db); err != nil {
			return err
		}
		rows, err := s.Aggregator.Aggregate(ctx, db)
		if err != nil {
			return err
		}
		res.Rows = rows
		return nil
	})
	if err != nil {
		return fail(err)
	}

	if err := report.Check(res.Rows); err != nil {
		return fail(fmt.Errorf("invalid report: %w", err))
	}

	if err := report.WriteFile(s.Path, res.Rows); err != nil {
		return fail(err)
	}
	logging.Get(r.logger, logging.CategoryReport).Debug("Wrote report",
		zap.String("path", s.Path), zap.Int("rows", len(res.Rows)))

	fmt.Fprintf(r.out, "%s solution written to %s\n", s.Label, s.Path)
	res.Duration = time.Since(start)
	return res
}
