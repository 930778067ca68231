// Package export writes graph dumps to files for downstream tools: raw
// JSON and YAML, a self-contained interactive HTML page, and Parquet for
// columnar analytics. It also computes the degree-centrality ranking
// surfaced by statistics.
package export

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/factgraph/factgraph/pkg/graph"
)

// WriteJSON writes the graph data as indented JSON.
func WriteJSON(data *graph.GraphData, path string) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode graph data: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteYAML writes the graph data as YAML.
func WriteYAML(data *graph.GraphData, path string) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode graph data: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// nodeRow and edgeRow are the flat Parquet shapes; properties are kept
// as a JSON string column.
type nodeRow struct {
	ID         string `parquet:"id"`
	Label      string `parquet:"label"`
	Type       string `parquet:"type"`
	Properties string `parquet:"properties"`
	Kind       string `parquet:"kind"`
}

type edgeRow struct {
	Source     string `parquet:"source"`
	Target     string `parquet:"target"`
	Type       string `parquet:"type"`
	Properties string `parquet:"properties"`
	Kind       string `parquet:"kind"`
}

// WriteParquet writes nodes and edges as two Parquet files derived from
// path: path with ".nodes.parquet" and ".edges.parquet" suffixes.
func WriteParquet(data *graph.GraphData, path string) error {
	nodes := make([]nodeRow, 0, len(data.Nodes))
	for _, n := range data.Nodes {
		props, _ := json.Marshal(n.Properties)
		nodes = append(nodes, nodeRow{
			ID:         n.ID,
			Label:      n.Label,
			Type:       n.Type,
			Properties: string(props),
			Kind:       "node",
		})
	}
	if err := parquet.WriteFile(path+".nodes.parquet", nodes); err != nil {
		return fmt.Errorf("failed to write node parquet: %w", err)
	}

	edges := make([]edgeRow, 0, len(data.Edges))
	for _, e := range data.Edges {
		props, _ := json.Marshal(e.Properties)
		edges = append(edges, edgeRow{
			Source:     e.Source,
			Target:     e.Target,
			Type:       e.Type,
			Properties: string(props),
			Kind:       "edge",
		})
	}
	if err := parquet.WriteFile(path+".edges.parquet", edges); err != nil {
		return fmt.Errorf("failed to write edge parquet: %w", err)
	}
	return nil
}

// CentralityEntry is one node in the degree-centrality ranking.
type CentralityEntry struct {
	Name       string  `json:"name"`
	Centrality float64 `json:"centrality"`
}

// DegreeCentrality ranks nodes by normalized degree (distinct neighbor
// count over n-1) and returns the top topN entries. Ties are broken by
// name for stable output.
func DegreeCentrality(data *graph.GraphData, topN int) []CentralityEntry {
	if data == nil || len(data.Nodes) == 0 {
		return []CentralityEntry{}
	}

	neighbors := make(map[string]map[string]bool, len(data.Nodes))
	labels := make(map[string]string, len(data.Nodes))
	for _, n := range data.Nodes {
		neighbors[n.ID] = make(map[string]bool)
		labels[n.ID] = n.Label
	}
	for _, e := range data.Edges {
		if _, ok := neighbors[e.Source]; ok {
			neighbors[e.Source][e.Target] = true
		}
		if _, ok := neighbors[e.Target]; ok {
			neighbors[e.Target][e.Source] = true
		}
	}

	denom := float64(len(data.Nodes) - 1)
	entries := make([]CentralityEntry, 0, len(data.Nodes))
	for id, ns := range neighbors {
		score := 0.0
		if denom > 0 {
			score = float64(len(ns)) / denom
		}
		entries = append(entries, CentralityEntry{
			Name:       labels[id],
			Centrality: math.Round(score*1000) / 1000,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Centrality != entries[j].Centrality {
			return entries[i].Centrality > entries[j].Centrality
		}
		return entries[i].Name < entries[j].Name
	})
	if len(entries) > topN {
		entries = entries[:topN]
	}
	return entries
}

// AverageDegree returns 2*edges/nodes rounded to two decimals, zero for
// an empty graph.
func AverageDegree(data *graph.GraphData) float64 {
	if data == nil || len(data.Nodes) == 0 {
		return 0
	}
	return math.Round(2*float64(len(data.Edges))/float64(len(data.Nodes))*100) / 100
}
