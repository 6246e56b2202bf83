// Package cli holds the cobra commands of the sysprop binary.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/slighter12/sysprop-go/config"
	"github.com/slighter12/sysprop-go/dispatch"
	"github.com/slighter12/sysprop-go/logger"
	"github.com/slighter12/sysprop-go/registry"
	"github.com/slighter12/sysprop-go/telemetry"
	"github.com/slighter12/sysprop-go/tools"
)

// app is the process-wide wiring shared by every subcommand.
type app struct {
	configPath string
	cfg        *config.Config
	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher
	shutdown   telemetry.ShutdownFunc
}

func resolveConfigPath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path, nil
	}
	return config.ResolveConfigPath()
}

// newApp loads configuration and builds the registry and dispatcher. The
// registry is fixed for the lifetime of the process.
func newApp(cmd *cobra.Command) (*app, error) {
	path, err := resolveConfigPath(cmd)
	if err != nil {
		return nil, exitError(exitConfig, "resolving config path: %v", err)
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, exitError(exitConfig, "loading configuration: %v", err)
	}

	level := logger.GetLevelFromString(cfg.Logging.Level)
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	if err := logger.Init(level, logger.ParseFormat(cfg.Logging.Format), cfg.Logging.Path); err != nil {
		return nil, exitError(exitConfig, "initializing logger: %v", err)
	}

	shutdown, err := telemetry.Setup(cmd.Context(), telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		ServiceName:  cfg.Telemetry.ServiceName,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
	})
	if err != nil {
		return nil, exitError(exitConfig, "initializing telemetry: %v", err)
	}
	observer, err := telemetry.NewGlobalObserver()
	if err != nil {
		_ = shutdown(context.Background())
		return nil, exitError(exitRuntime, "initializing dispatch observability: %v", err)
	}

	reg := registry.Discover(tools.Candidates(),
		registry.WithExclude(cfg.Tools.Exclude...),
		registry.WithLogger(logger.Default().Logger),
	)
	d := dispatch.New(reg,
		dispatch.WithLimits(dispatch.Limits{
			APIBodyBytes:  cfg.Limits.APIBodyBytes,
			FormBodyBytes: cfg.Limits.FormBodyBytes,
		}),
		dispatch.WithObserver(observer),
	)

	logger.Debug("Application initialized", "config_path", path, "tools", reg.Len())
	return &app{
		configPath: path,
		cfg:        cfg,
		registry:   reg,
		dispatcher: d,
		shutdown:   shutdown,
	}, nil
}

// Close flushes telemetry and closes log files.
func (a *app) Close() error {
	err := a.shutdown(context.Background())
	if cerr := logger.Default().Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("closing application: %w", err)
	}
	return nil
}

// applyReload applies the parts of a reloaded configuration that can change
// while running: log level, format and file.
func (a *app) applyReload(cfg *config.Config) {
	log := logger.Default()
	log.SetLevel(logger.GetLevelFromString(cfg.Logging.Level))
	if cfg.Logging.Format != a.cfg.Logging.Format {
		log.SetFormat(logger.ParseFormat(cfg.Logging.Format))
	}
	if cfg.Logging.Path != "" && cfg.Logging.Path != a.cfg.Logging.Path {
		if err := log.Rotate(cfg.Logging.Path); err != nil {
			logger.Warn("Failed to switch log file", "path", cfg.Logging.Path, "error", err)
			return
		}
	}
	a.cfg.Logging = cfg.Logging
}
