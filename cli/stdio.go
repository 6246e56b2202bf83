package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/slighter12/sysprop-go/transport/stdio"
)

// NewStdioCmd creates the "stdio" subcommand.
func NewStdioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Serve JSON-RPC requests over stdin and stdout",
		Long: "Serve newline-delimited JSON-RPC 2.0 requests (ping, tools/list, tools/call)\n" +
			"read from stdin, writing one response per line to stdout.",
		Args: cobra.NoArgs,
		RunE: runStdio,
	}
}

func runStdio(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := stdio.NewServer(a.dispatcher, cmd.InOrStdin(), cmd.OutOrStdout())
	if err := server.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return exitError(exitRuntime, "stdio server: %v", err)
	}
	return nil
}
