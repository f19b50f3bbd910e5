// homenet-cli talks to a HomeNet server over the line protocol.
//
// Run with no subcommand for an interactive shell, or use "send" for a
// single request:
//
//	homenet-cli --addr 127.0.0.1:8080 send GET /light/1/on
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "dev"

	serverAddr  string
	historyFile string
)

const defaultServerAddr = "127.0.0.1:8080"

var rootCmd = &cobra.Command{
	Use:           "homenet-cli",
	Short:         "Client for the HomeNet device server",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
	Long: `homenet-cli connects to a HomeNet server and sends requests such as
"GET /light/1/on" or "GET /thermostat/set/22".

With no subcommand it starts an interactive shell with history and
tab completion.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runShell(cmd.Context())
	},
}

func init() {
	if v := os.Getenv("HOMENET_ADDR"); v != "" {
		serverAddr = v
	} else {
		serverAddr = defaultServerAddr
	}

	rootCmd.PersistentFlags().StringVarP(&serverAddr, "addr", "a", serverAddr, "server address (host:port)")
	rootCmd.PersistentFlags().StringVar(&historyFile, "history", "", "shell history file")

	rootCmd.AddCommand(
		newSendCmd(),
		newShellCmd(),
	)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
