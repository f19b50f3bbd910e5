package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nerrad567/homenet/internal/client"
)

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd.Context())
		},
	}
}

func runShell(ctx context.Context) error {
	c, err := client.Dial(ctx, serverAddr)
	if err != nil {
		return err
	}
	defer c.Close()

	sh, err := client.NewShell(c, historyFile)
	if err != nil {
		return err
	}
	return sh.Run(ctx)
}
