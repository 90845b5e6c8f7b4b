package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"salesreport/internal/config"
	"salesreport/internal/logging"
	"salesreport/internal/pipeline"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Set in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd runs the pipeline
var rootCmd = &cobra.Command{
	Use:   "salesreport",
	Short: "Per-customer item quantities for customers aged 18 to 35",
	Long: `salesreport reads the customers, sales, orders and items relations from the
source store and writes, for every customer aged 18 to 35, the total quantity
bought of each item.

The report is computed by a single SQL query and again by an in-memory join,
optionally a third time by Datalog rules, and the results are checked against
each other. Each strategy writes its own ';'-delimited file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger, err = logging.New(logging.Options{
			Level:   cfg.Logging.Level,
			Format:  cfg.Logging.Format,
			Verbose: verbose,
		})
		if err != nil {
			return err
		}
		logging.Get(logger, logging.CategoryBoot).Debug("Configuration loaded",
			zap.String("config", configPath),
			zap.String("driver", cfg.Driver),
			zap.Bool("datalog", cfg.IsDatalogEnabled()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file (default: built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(initConfigCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runPipeline runs every configured strategy and reports the outcome.
func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	runner, err := pipeline.NewRunner(cfg, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("Run complete",
		zap.String("run_id", summary.RunID),
		zap.Int("reports", len(summary.Succeeded())))
	return nil
}
