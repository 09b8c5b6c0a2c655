package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "checklist",
	Short: "TenX - marketplace checklist engine",
	Long: `TenX Checklist CLI

Per-SKU daily analytics for marketplace sellers: snapshot collection,
source reconciliation, and checklist dataset builds.

Usage:
  go run ./cmd/checklist [command]

Examples:
  go run ./cmd/checklist api
  go run ./cmd/checklist collect
  go run ./cmd/checklist dataset --nm-ids 12345 --date-from 2025-05-01
  go run ./cmd/checklist scheduler`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
