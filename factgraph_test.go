package factgraph_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factgraph/factgraph"
	"github.com/factgraph/factgraph/pkg/config"
	"github.com/factgraph/factgraph/pkg/nlp"
)

// fakeModel returns canned responses in order.
type fakeModel struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeModel) Chat(_ context.Context, _ []nlp.Message) (*nlp.Response, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i >= len(f.responses) {
		return nil, fmt.Errorf("unexpected call %d", i)
	}
	return &nlp.Response{Content: f.responses[i]}, nil
}

func (f *fakeModel) Close() error { return nil }

const hiringExtraction = `{
	"entities": [
		{"name": "Acme Corp", "type": "Organization", "description": "An employer"},
		{"name": "John Smith", "type": "Person", "description": "A new hire"},
		{"name": "New York", "type": "Location", "description": "A city"}
	],
	"relationships": [
		{"source": "John Smith", "target": "the Acme Corp", "type": "works for", "description": "Hired by"}
	]
}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Graph: config.GraphConfig{
			Mode:         "embedded",
			SnapshotPath: filepath.Join(t.TempDir(), "graph.json"),
		},
		Chunking:      config.ChunkingConfig{Size: 1000, Overlap: 200},
		MaxFileSizeMB: 10,
	}
}

func newTestClient(t *testing.T, opts ...factgraph.Option) *factgraph.Client {
	t.Helper()

	client, err := factgraph.New(testConfig(t), slog.Default(), opts...)
	require.NoError(t, err)

	status := client.Initialize(context.Background())
	require.True(t, status.Overall)

	t.Cleanup(func() {
		_ = client.Shutdown(context.Background())
	})
	return client
}

func TestProcessDocumentEndToEnd(t *testing.T) {
	ctx := context.Background()
	model := &fakeModel{responses: []string{hiringExtraction}}
	client := newTestClient(t, factgraph.WithExtractionClient(model))

	text := []byte("Acme Corp hired John Smith in New York.")
	result := client.ProcessDocument(ctx, "", text, ".txt", "news.txt")

	require.True(t, result.Success, result.Err)
	assert.Equal(t, 1, result.Chunks)
	assert.Equal(t, 3, result.EntitiesExtracted)
	assert.Equal(t, 3, result.EntitiesAdded)
	assert.Equal(t, 1, result.RelationshipsExtracted)
	assert.Equal(t, 1, result.RelationshipsAdded)

	stats, err := client.Store().GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.NodeCount)
	assert.Equal(t, 1, stats.RelationshipCount)

	// "the Acme Corp" in the relationship collapsed onto the
	// "Acme Corp" node, and "works for" became WORKS_FOR.
	rels, err := client.Store().GetEntityRelationships(ctx, "John Smith", "")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "WORKS_FOR", rels[0].Relationship)
	assert.Equal(t, "Acme Corp", rels[0].Entity)
	assert.Equal(t, "outgoing", rels[0].Direction)
}

func TestProcessDocumentIdempotentNodes(t *testing.T) {
	ctx := context.Background()
	model := &fakeModel{responses: []string{hiringExtraction, hiringExtraction}}
	client := newTestClient(t, factgraph.WithExtractionClient(model))

	text := []byte("Acme Corp hired John Smith in New York.")
	require.True(t, client.ProcessDocument(ctx, "", text, ".txt", "a.txt").Success)
	require.True(t, client.ProcessDocument(ctx, "", text, ".txt", "b.txt").Success)

	stats, err := client.Store().GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.NodeCount)
}

func TestProcessDocumentRequiresInitialize(t *testing.T) {
	client, err := factgraph.New(testConfig(t), slog.Default())
	require.NoError(t, err)

	result := client.ProcessText(context.Background(), "some text", "")
	assert.False(t, result.Success)
	assert.Contains(t, result.Err, "not initialized")
}

func TestProcessDocumentFileSizeLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxFileSizeMB = 1
	client, err := factgraph.New(cfg, slog.Default())
	require.NoError(t, err)
	require.True(t, client.Initialize(context.Background()).Overall)
	defer client.Shutdown(context.Background())

	big := make([]byte, 2*1024*1024)
	result := client.ProcessDocument(context.Background(), "", big, ".txt", "big.txt")
	assert.False(t, result.Success)
	assert.Contains(t, result.Err, "maximum size")

	// The limit applies to path-based ingestion as well.
	path := filepath.Join(t.TempDir(), "big.txt")
	require.NoError(t, os.WriteFile(path, big, 0o644))
	result = client.ProcessDocument(context.Background(), path, nil, "", "")
	assert.False(t, result.Success)
	assert.Contains(t, result.Err, "maximum size")

	result = client.ProcessDocument(context.Background(), filepath.Join(t.TempDir(), "absent.txt"), nil, "", "")
	assert.False(t, result.Success)
	assert.Contains(t, result.Err, "stat")
}

func TestHeuristicFallbackWithoutModel(t *testing.T) {
	ctx := context.Background()

	client, err := factgraph.New(testConfig(t), slog.Default())
	require.NoError(t, err)
	status := client.Initialize(ctx)
	require.True(t, status.Overall)
	assert.False(t, status.Extractor)
	assert.False(t, status.QueryAgent)
	defer client.Shutdown(ctx)

	result := client.ProcessText(ctx, "Dr. Jane Doe joined Acme Corp last week.", "memo")
	require.True(t, result.Success, result.Err)
	assert.GreaterOrEqual(t, result.EntitiesAdded, 2)
	assert.Zero(t, result.RelationshipsAdded)

	hits, err := client.Search(ctx, "acme", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Acme Corp", hits[0].Name)
}

func TestQueryRoundTrip(t *testing.T) {
	ctx := context.Background()
	extractModel := &fakeModel{responses: []string{hiringExtraction}}
	queryModel := &fakeModel{responses: []string{
		"MATCH (n) RETURN n LIMIT 100",
		"The graph contains three entities.",
	}}
	client := newTestClient(t,
		factgraph.WithExtractionClient(extractModel),
		factgraph.WithQueryClient(queryModel))

	text := []byte("Acme Corp hired John Smith in New York.")
	require.True(t, client.ProcessDocument(ctx, "", text, ".txt", "news.txt").Success)

	result := client.Query(ctx, "Show me everything")
	require.True(t, result.Success, result.Err)
	assert.Equal(t, 3, result.ResultCount)
	assert.Equal(t, "The graph contains three entities.", result.Explanation)
}

func TestQueryWithoutModelDegrades(t *testing.T) {
	client := newTestClient(t)

	result := client.Query(context.Background(), "Who works for Acme?")
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Err)
	assert.NotNil(t, result.Results)
}

func TestStatisticsAndExport(t *testing.T) {
	ctx := context.Background()
	model := &fakeModel{responses: []string{hiringExtraction}}
	client := newTestClient(t, factgraph.WithExtractionClient(model))

	text := []byte("Acme Corp hired John Smith in New York.")
	require.True(t, client.ProcessDocument(ctx, "", text, ".txt", "news.txt").Success)

	stats, err := client.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Database.NodeCount)
	assert.Equal(t, 3, stats.SampledNodes)
	require.NotEmpty(t, stats.TopCentrality)

	dir := t.TempDir()
	require.NoError(t, client.Export(ctx, filepath.Join(dir, "graph.json"), "json", 0))
	require.NoError(t, client.Export(ctx, filepath.Join(dir, "graph.yaml"), "yaml", 0))
	require.NoError(t, client.Visualize(ctx, filepath.Join(dir, "graph.html"), 50))
	assert.Error(t, client.Export(ctx, filepath.Join(dir, "graph.xml"), "xml", 0))
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	model := &fakeModel{responses: []string{hiringExtraction}}
	client := newTestClient(t, factgraph.WithExtractionClient(model))

	text := []byte("Acme Corp hired John Smith in New York.")
	require.True(t, client.ProcessDocument(ctx, "", text, ".txt", "news.txt").Success)
	require.NoError(t, client.Clear(ctx))

	stats, err := client.Store().GetStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.NodeCount)
	assert.Zero(t, stats.RelationshipCount)
}

func TestSnapshotSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	model := &fakeModel{responses: []string{hiringExtraction}}
	client, err := factgraph.New(cfg, slog.Default(), factgraph.WithExtractionClient(model))
	require.NoError(t, err)
	require.True(t, client.Initialize(ctx).Overall)

	text := []byte("Acme Corp hired John Smith in New York.")
	require.True(t, client.ProcessDocument(ctx, "", text, ".txt", "news.txt").Success)
	require.NoError(t, client.Shutdown(ctx))

	reopened, err := factgraph.New(cfg, slog.Default())
	require.NoError(t, err)
	require.True(t, reopened.Initialize(ctx).Overall)
	defer reopened.Shutdown(ctx)

	stats, err := reopened.Store().GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.NodeCount)
	assert.Equal(t, 1, stats.RelationshipCount)
}
