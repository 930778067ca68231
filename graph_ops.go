package factgraph

import (
	"context"
	"fmt"
	"strings"

	"github.com/factgraph/factgraph/pkg/export"
	"github.com/factgraph/factgraph/pkg/graph"
)

// statsSampleSize bounds the graph-data sample used for derived metrics.
// Centrality over the sample is an approximation when the graph is larger.
const statsSampleSize = 1000

// Statistics merges store-level counts with metrics derived from a
// bounded sample of the materialized graph.
type Statistics struct {
	Database      *graph.Stats             `json:"database"`
	TopCentrality []export.CentralityEntry `json:"top_centrality"`
	AverageDegree float64                  `json:"average_degree"`
	SampledNodes  int                      `json:"sampled_nodes"`
}

// GetStatistics returns aggregate counts plus a degree-centrality
// ranking computed over a sample of up to 1000 nodes.
func (c *Client) GetStatistics(ctx context.Context) (*Statistics, error) {
	if !c.initialized {
		return nil, fmt.Errorf("client not initialized")
	}

	stats, err := c.store.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get graph stats: %w", err)
	}

	data, err := c.store.GetGraphData(ctx, statsSampleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to sample graph data: %w", err)
	}

	return &Statistics{
		Database:      stats,
		TopCentrality: export.DegreeCentrality(data, 10),
		AverageDegree: export.AverageDegree(data),
		SampledNodes:  len(data.Nodes),
	}, nil
}

// Visualize writes an interactive HTML rendering of up to limit nodes.
func (c *Client) Visualize(ctx context.Context, path string, limit int) error {
	if !c.initialized {
		return fmt.Errorf("client not initialized")
	}
	if limit <= 0 {
		limit = 100
	}

	data, err := c.store.GetGraphData(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to get graph data: %w", err)
	}
	return export.WriteHTML(data, path)
}

// Export dumps up to limit nodes plus their internal edges to a file.
// Supported formats: json, yaml, parquet, html.
func (c *Client) Export(ctx context.Context, path, format string, limit int) error {
	if !c.initialized {
		return fmt.Errorf("client not initialized")
	}
	if limit <= 0 {
		limit = statsSampleSize
	}

	data, err := c.store.GetGraphData(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to get graph data: %w", err)
	}

	switch strings.ToLower(format) {
	case "json", "":
		return export.WriteJSON(data, path)
	case "yaml", "yml":
		return export.WriteYAML(data, path)
	case "parquet":
		return export.WriteParquet(data, path)
	case "html":
		return export.WriteHTML(data, path)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// GetGraphData returns a bounded dump for callers that render their own
// visualization.
func (c *Client) GetGraphData(ctx context.Context, limit int) (*graph.GraphData, error) {
	if !c.initialized {
		return nil, fmt.Errorf("client not initialized")
	}
	if limit <= 0 {
		limit = 100
	}
	return c.store.GetGraphData(ctx, limit)
}

// Clear removes every node and edge from the graph.
func (c *Client) Clear(ctx context.Context) error {
	if !c.initialized {
		return fmt.Errorf("client not initialized")
	}
	return c.store.Clear(ctx)
}
