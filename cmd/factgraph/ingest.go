package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/factgraph/factgraph"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file> [file...]",
	Short: "Extract entities from documents and add them to the graph",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(_ *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, client *factgraph.Client) error {
		failures := 0
		for _, path := range args {
			result := client.ProcessDocument(ctx, path, nil, "", "")
			if !result.Success {
				failures++
				fmt.Printf("✗ %s: %s\n", path, result.Err)
				continue
			}
			fmt.Printf("✓ %s: %d chunks, %d entities added, %d relationships added\n",
				result.Filename, result.Chunks, result.EntitiesAdded, result.RelationshipsAdded)
		}
		if failures > 0 {
			return fmt.Errorf("%d of %d documents failed", failures, len(args))
		}
		return nil
	})
}
