package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/slighter12/sysprop-go/config"
	"github.com/slighter12/sysprop-go/logger"
	transporthttp "github.com/slighter12/sysprop-go/transport/http"
)

// NewServeCmd creates the "serve" subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}

	cmd.Flags().String("host", "", "Listen host (overrides config)")
	cmd.Flags().IntP("port", "p", 0, "Listen port (overrides config)")
	cmd.Flags().Bool("watch", true, "Reload logging settings when the config file changes")
	cmd.Flags().Duration("shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if host, _ := cmd.Flags().GetString("host"); host != "" {
		a.cfg.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		a.cfg.Server.Port = port
	}
	if err := a.cfg.Validate(); err != nil {
		return exitError(exitConfig, "invalid server settings: %v", err)
	}

	server, err := transporthttp.NewServer(a.cfg, a.dispatcher)
	if err != nil {
		return exitError(exitRuntime, "creating server: %v", err)
	}

	// Signal handling
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		if _, err := os.Stat(a.configPath); err == nil {
			if err := config.Watch(ctx, a.configPath, a.applyReload); err != nil {
				logger.Warn("Config watching disabled", "path", a.configPath, "error", err)
			}
		}
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(cmd.OutOrStdout(), "sysprop listening on %s\n", a.cfg.Addr())
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(cmd.OutOrStdout(), "Shutting down...")
		timeout, _ := cmd.Flags().GetDuration("shutdown-timeout")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return exitError(exitRuntime, "shutdown error: %v", err)
		}
		return nil
	case err := <-errCh:
		if err != nil {
			return exitError(exitRuntime, "server error: %v", err)
		}
		return nil
	}
}
