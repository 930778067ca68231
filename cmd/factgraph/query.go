package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/factgraph/factgraph"
)

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Ask the knowledge graph a question in natural language",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search entities by name",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var searchLimit int

func init() {
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum results")
}

func runQuery(_ *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	return withClient(func(ctx context.Context, client *factgraph.Client) error {
		result := client.Query(ctx, question)
		if !result.Success {
			return fmt.Errorf("query failed: %s", result.Err)
		}

		fmt.Println(result.Explanation)
		if len(result.Results) > 0 {
			payload, err := json.MarshalIndent(result.Results, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(payload))
		}
		return nil
	})
}

func runSearch(_ *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, client *factgraph.Client) error {
		hits, err := client.Search(ctx, args[0], searchLimit)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Println("No entities found")
			return nil
		}
		for _, hit := range hits {
			fmt.Printf("%s (%s)\n", hit.Name, strings.Join(hit.Types, ", "))
		}
		return nil
	})
}
