package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/factgraph/factgraph"
	"github.com/factgraph/factgraph/pkg/config"
	"github.com/factgraph/factgraph/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "server host")
	serveCmd.Flags().Int("port", 0, "server port")
	serveCmd.Flags().String("mode", "", "gin mode (debug, release, test)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode, _ = cmd.Flags().GetString("mode")
	}

	logger, parquetHandler, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	client, err := factgraph.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	status := client.Initialize(ctx)
	for _, issue := range status.Issues {
		logger.Warn("configuration issue", "issue", issue)
	}
	if !status.Overall {
		return fmt.Errorf("initialization failed: %s", strings.Join(status.Issues, "; "))
	}

	srv := server.New(cfg, client, logger)
	srv.Setup()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	shutdown := func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		if err := client.Shutdown(shutdownCtx); err != nil {
			logger.Warn("client shutdown error", "error", err)
		}
		if parquetHandler != nil {
			if err := parquetHandler.Flush(); err != nil {
				logger.Warn("telemetry flush failed", "error", err)
			}
		}
		return nil
	}

	select {
	case err := <-serverErrChan:
		_ = shutdown()
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.Info("received signal, shutting down", "signal", sig.String())
		return shutdown()
	}
}
