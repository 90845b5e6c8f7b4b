// Package logging builds the zap loggers used across salesreport.
// Every subsystem logs through a named child of the root logger so log lines
// can be filtered by category.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot      Category = "boot"      // CLI startup, config loading
	CategoryStore     Category = "store"     // Source store access
	CategoryAggregate Category = "aggregate" // Aggregation strategies
	CategoryReport    Category = "report"    // Report emission
	CategoryPipeline  Category = "pipeline"  // Strategy orchestration, verification
)

// Options selects the level and encoding of the root logger.
type Options struct {
	Level   string // debug, info, warn, error
	Format  string // console, json
	Verbose bool   // forces debug level
}

// New builds the root logger. Output goes to stderr so stdout stays free for
// the per-report confirmations.
func New(opts Options) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	switch opts.Format {
	case "", "console":
		config.Encoding = "console"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	case "json":
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("failed to parse log level: %w", err)
		}
		level = parsed
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(level)

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Get returns the child logger for a category. A nil parent yields a no-op logger.
func Get(parent *zap.Logger, category Category) *zap.Logger {
	if parent == nil {
		return zap.NewNop()
	}
	return parent.Named(string(category))
}
