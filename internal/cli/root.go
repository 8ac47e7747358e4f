// Package cli implements the argos commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"argos/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

var configPath string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:          "argos",
	Short:        "Research chat and browsing API for the asset report archive",
	Long:         "argos serves research reports, insights and news articles, and answers questions about an asset grounded on its latest report and the sources it cites.",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file (default: ./config.yaml or the user config dir)")

	RootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "argos %s (commit: %s)\n", version, commit)
		},
	})
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// SetVersionInfo is called from main with linker-provided values.
func SetVersionInfo(v, c string) {
	version = v
	commit = c
}

func loadConfig() (*config.AppConfig, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}
