package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"igfeed/internal/app"
	"igfeed/internal/httpapi"
	"igfeed/pkg/logger"
	"igfeed/pkg/ui"
)

var listenAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP feed service",
	Long: `Run the HTTP feed service.

Endpoints:
  GET /profile-feed?identity=<name>&page=<n>&limit=<n>
  GET /healthz

The server drains in-flight requests on SIGINT or SIGTERM.`,
	Example: `  # Listen on the default address
  igfeed serve

  # Share the profile cache between replicas through redis
  IGFEED_REDIS_ADDR=redis:6379 igfeed serve --cache-backend redis --addr :9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (default :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{"addr": listenAddr})
	if err != nil {
		return err
	}
	log := logger.GetLogger()

	ui.Default().Banner()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := httpapi.NewServer(cfg, a.Feed, log)
	ui.PrintInfo("Listening", cfg.Server.Addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return <-errCh
}
