package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"salesreport/internal/config"
)

var forceInitConfig bool

// initConfigCmd writes the default configuration
var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write the default configuration to a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInitConfig,
}

// versionCmd prints the build version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "salesreport %s\n", version)
	},
}

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func init() {
	initConfigCmd.Flags().BoolVarP(&forceInitConfig, "force", "f", false, "Overwrite an existing file")
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	path := args[0]
	if !forceInitConfig {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
	return nil
}
