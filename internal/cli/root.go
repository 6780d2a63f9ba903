// Package cli implements the diced command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped by the build; the default marks dev builds.
var Version = "0.1.0-dev"

var (
	// Global flags
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "diced",
	Short: "diced - on-ledger dice wagering daemon",
	Long: `diced runs a small ledger purpose-built for provably fair dice
wagering: houses fund vaults, players lock stakes against them, and
bets settle from a signature-derived roll. The daemon exposes a
JSON-RPC API for submission and queries, and Prometheus metrics.`,
	Version: Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
}
