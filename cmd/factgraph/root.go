package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/factgraph/factgraph"
	"github.com/factgraph/factgraph/pkg/config"
	"github.com/factgraph/factgraph/pkg/telemetry"
)

var rootCmd = &cobra.Command{
	Use:   "factgraph",
	Short: "FactGraph: build and query knowledge graphs from documents",
	Long: `FactGraph extracts entities and relationships from documents with a
language model and builds a queryable knowledge graph. The graph lives
either in Neo4j or in an embedded store with a JSON snapshot on disk.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("graph-mode", "", "graph backend (embedded, neo4j)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("graph.mode", rootCmd.PersistentFlags().Lookup("graph-mode"))
}

func buildLogger(cfg *config.Config) (*slog.Logger, *telemetry.ParquetHandler, error) {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	var parquetHandler *telemetry.ParquetHandler
	if cfg.Telemetry.Enabled {
		ph, err := telemetry.NewParquetHandler(handler, cfg.Telemetry.ParquetPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to set up telemetry: %w", err)
		}
		parquetHandler = ph
		handler = ph
	}

	return slog.New(handler), parquetHandler, nil
}

// withClient loads config, builds an initialized client, runs fn, and
// tears everything down afterwards.
func withClient(fn func(ctx context.Context, client *factgraph.Client) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
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

	defer func() {
		if err := client.Shutdown(ctx); err != nil {
			logger.Warn("shutdown error", "error", err)
		}
		if parquetHandler != nil {
			if err := parquetHandler.Flush(); err != nil {
				logger.Warn("telemetry flush failed", "error", err)
			}
		}
	}()

	return fn(ctx, client)
}
