package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nerrad567/homenet/internal/client"
)

func newSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <request>",
		Short: "Send one request and print the reply",
		Long: `Send one request and print the reply.

Arguments are joined with spaces, so quoting is optional:

  homenet-cli send GET /devices/list
  homenet-cli send "GET /camera/record/start"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "))
		},
	}
}

func runSend(ctx context.Context, out io.Writer, request string) error {
	c, err := client.Dial(ctx, serverAddr)
	if err != nil {
		return err
	}
	defer c.Close()

	resp, err := c.Send(ctx, request)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, resp)
	return nil
}
