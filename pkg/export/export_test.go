package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factgraph/factgraph/pkg/graph"
)

func sampleData() *graph.GraphData {
	return &graph.GraphData{
		Nodes: []graph.Node{
			{ID: "Person:John Smith", Label: "John Smith", Type: "Person", Properties: map[string]string{"name": "John Smith"}},
			{ID: "Organization:Acme Corp", Label: "Acme Corp", Type: "Organization", Properties: map[string]string{"name": "Acme Corp"}},
			{ID: "Location:New York", Label: "New York", Type: "Location", Properties: map[string]string{"name": "New York"}},
		},
		Edges: []graph.Edge{
			{Source: "Person:John Smith", Target: "Organization:Acme Corp", Type: "WORKS_FOR", Properties: map[string]string{}},
			{Source: "Organization:Acme Corp", Target: "Location:New York", Type: "LOCATED_IN", Properties: map[string]string{}},
		},
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, WriteJSON(sampleData(), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var got graph.GraphData
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Len(t, got.Nodes, 3)
	assert.Len(t, got.Edges, 2)
	assert.Equal(t, "WORKS_FOR", got.Edges[0].Type)
}

func TestWriteYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, WriteYAML(sampleData(), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "John Smith")
	assert.Contains(t, string(raw), "WORKS_FOR")
}

func TestWriteHTMLSelfContained(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.html")
	require.NoError(t, WriteHTML(sampleData(), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(raw)
	assert.Contains(t, html, "vis.Network")
	assert.Contains(t, html, "John Smith")
	assert.Contains(t, html, "#FF6B6B", "person color applied")
}

func TestWriteParquetProducesBothFiles(t *testing.T) {
	base := filepath.Join(t.TempDir(), "graph")
	require.NoError(t, WriteParquet(sampleData(), base))

	for _, suffix := range []string{".nodes.parquet", ".edges.parquet"} {
		info, err := os.Stat(base + suffix)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestDegreeCentrality(t *testing.T) {
	entries := DegreeCentrality(sampleData(), 5)
	require.Len(t, entries, 3)

	// Acme Corp touches both other nodes: centrality 2/2 = 1.0.
	assert.Equal(t, "Acme Corp", entries[0].Name)
	assert.Equal(t, 1.0, entries[0].Centrality)
	// John Smith and New York tie at 0.5, ordered by name.
	assert.Equal(t, "John Smith", entries[1].Name)
	assert.Equal(t, 0.5, entries[1].Centrality)
	assert.Equal(t, "New York", entries[2].Name)
}

func TestDegreeCentralityTopN(t *testing.T) {
	entries := DegreeCentrality(sampleData(), 1)
	require.Len(t, entries, 1)
	assert.Equal(t, "Acme Corp", entries[0].Name)
}

func TestDegreeCentralityEmptyGraph(t *testing.T) {
	assert.Empty(t, DegreeCentrality(&graph.GraphData{}, 5))
	assert.Empty(t, DegreeCentrality(nil, 5))
}

func TestAverageDegree(t *testing.T) {
	assert.Equal(t, 1.33, AverageDegree(sampleData()))
	assert.Equal(t, 0.0, AverageDegree(&graph.GraphData{}))
}
