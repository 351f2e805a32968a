// Package main runs the kai server and its maintenance commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mklimuk/kai/pkg/api"
	"github.com/mklimuk/kai/pkg/app"
	"github.com/mklimuk/kai/pkg/auth"
	"github.com/mklimuk/kai/pkg/config"
	"github.com/mklimuk/kai/pkg/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// configPath is the YAML config file; missing files fall back to defaults
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kai",
	Short: "Personal productivity backend",
	Long: `kai keeps goals, projects, tasks, notes, daily notes and a reading feed,
serves them over HTTP and can mirror them into a markdown vault.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "kai.yaml", "path to the YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(versionCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server, scheduler and bots",
	Long: `Run the HTTP API together with the scheduled jobs and any configured
Telegram or Discord bot. Stops gracefully on SIGINT or SIGTERM.

Examples:
  kai serve
  KAI_SERVER_PORT=9090 kai serve --config /etc/kai.yaml`,
	RunE: runServe,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the vault export once and exit",
	RunE:  runExport,
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print a bcrypt hash for auth.password_hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

// setup loads the config and builds the logger and the app.
func setup() (*config.Config, *zap.Logger, *app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, nil, err
	}
	a, err := app.New(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, fmt.Errorf("failed to start kai: %w", err)
	}
	return cfg, logger, a, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, a, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		_ = a.Close()
		return err
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: api.NewRouter(a, logger.Named("http")),
	}
	serveErr := serveHTTP(ctx, srv, cfg.Server.ShutdownTimeout, logger)
	return errors.Join(serveErr, a.Close())
}

// serveHTTP runs srv until ctx is done or the listener fails, then shuts it
// down. A listener failure is returned along with any shutdown error.
func serveHTTP(ctx context.Context, srv *http.Server, timeout time.Duration, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var listenErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down", zap.Duration("shutdown_timeout", timeout))
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", zap.Error(err))
			listenErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	var shutdownErr error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		shutdownErr = fmt.Errorf("http shutdown: %w", err)
	}
	return errors.Join(listenErr, shutdownErr)
}

func runExport(cmd *cobra.Command, args []string) error {
	_, logger, a, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	sum, exportErr := a.Export(cmd.Context())
	closeErr := a.Close()
	if exportErr != nil {
		return exportErr
	}
	fmt.Fprintln(cmd.OutOrStdout(), sum.String())
	return closeErr
}
