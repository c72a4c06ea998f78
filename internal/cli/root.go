// Package cli holds the cobra commands of the listings binary.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagEnvFile string
	flagDSN     string
)

// NewRootCmd builds the command tree. Each call returns a fresh tree so
// tests can run commands in isolation.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "listings",
		Short: "Marketplace listings rotation service",
		Long: `listings serves the landing page rotation: a featured, a hot and a regular
tier of published listings, re-drawn once per rotation period.

Configuration comes from the environment (optionally a .env file) and an
optional rotation YAML file named by ROTATION_CONFIG_FILE.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().StringVar(&flagDSN, "dsn", "", "database path or URL, overriding DB_PATH / DATABASE_URL")

	root.AddCommand(newServeCmd())
	root.AddCommand(newPreviewCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newSetStatusCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "listings %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// SetVersionInfo is called from main with values injected at link time.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
