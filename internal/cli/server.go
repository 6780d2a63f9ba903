package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dicehouse/diced/internal/config"
	"github.com/dicehouse/diced/internal/node"
)

var (
	// Server flags
	standalone bool
)

// serverCmd represents the server command (default action)
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the diced daemon",
	Long: `Start the diced daemon: the ledger service, the JSON-RPC API,
the Prometheus endpoint, and (in standalone mode) the slot timer that
seals the open slot on a fixed interval.

This is the default command when no subcommand is specified.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Set server as the default command
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return serverCmd.RunE(cmd, args)
	}

	serverCmd.Flags().BoolVar(&standalone, "standalone", false, "run with no peers, sealing slots on a timer")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if standalone {
		cfg.Node.Standalone = true
	}

	n, err := node.New(cfg, Version)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return n.Run(ctx)
}
