package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/factgraph/factgraph"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show graph statistics",
	RunE:  runStats,
}

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export the graph to a file (json, yaml, parquet, html)",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var visualizeCmd = &cobra.Command{
	Use:   "visualize <path>",
	Short: "Write an interactive HTML visualization of the graph",
	Args:  cobra.ExactArgs(1),
	RunE:  runVisualize,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every node and edge in the graph",
	RunE:  runClear,
}

var (
	exportFormat   string
	exportLimit    int
	visualizeLimit int
	clearConfirmed bool
)

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(visualizeCmd)
	rootCmd.AddCommand(clearCmd)

	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "export format (json, yaml, parquet, html)")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "maximum nodes to export (0 = default)")
	visualizeCmd.Flags().IntVar(&visualizeLimit, "limit", 100, "maximum nodes to render")
	clearCmd.Flags().BoolVar(&clearConfirmed, "yes", false, "skip confirmation")
}

func runStats(_ *cobra.Command, _ []string) error {
	return withClient(func(ctx context.Context, client *factgraph.Client) error {
		stats, err := client.GetStatistics(ctx)
		if err != nil {
			return err
		}
		payload, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(payload))
		return nil
	})
}

func runExport(_ *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, client *factgraph.Client) error {
		if err := client.Export(ctx, args[0], exportFormat, exportLimit); err != nil {
			return err
		}
		fmt.Printf("Exported graph to %s\n", args[0])
		return nil
	})
}

func runVisualize(_ *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, client *factgraph.Client) error {
		if err := client.Visualize(ctx, args[0], visualizeLimit); err != nil {
			return err
		}
		fmt.Printf("Wrote visualization to %s\n", args[0])
		return nil
	})
}

func runClear(_ *cobra.Command, _ []string) error {
	if !clearConfirmed {
		return fmt.Errorf("refusing to clear the graph without --yes")
	}
	return withClient(func(ctx context.Context, client *factgraph.Client) error {
		if err := client.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("Graph cleared")
		return nil
	})
}
