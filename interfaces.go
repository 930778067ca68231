package factgraph

import (
	"context"

	"github.com/factgraph/factgraph/pkg/graph"
	"github.com/factgraph/factgraph/pkg/query"
)

// Focused interfaces for consumers that only need part of the client.
// The FactGraph interface composes them for callers that want everything.

// Ingestor feeds documents into the knowledge graph.
type Ingestor interface {
	// ProcessDocument runs the full ingestion pipeline for one document.
	ProcessDocument(ctx context.Context, path string, data []byte, ext, filename string) *ProcessResult

	// ProcessText ingests a raw text snippet.
	ProcessText(ctx context.Context, text, source string) *ProcessResult
}

// Querier answers questions against the knowledge graph.
type Querier interface {
	// Query answers a natural-language question.
	Query(ctx context.Context, question string) *query.QueryResult

	// Search finds entities by name substring.
	Search(ctx context.Context, term string, limit int) ([]graph.SearchHit, error)

	// EntityDetails returns an entity with its relationships and summary.
	EntityDetails(ctx context.Context, name string) *query.EntityInfo

	// Suggestions returns example questions matching a partial input.
	Suggestions(partial string) []string
}

// GraphReader exposes aggregate views of the graph.
type GraphReader interface {
	// GetStatistics returns counts plus derived centrality metrics.
	GetStatistics(ctx context.Context) (*Statistics, error)

	// GetGraphData returns a bounded node/edge dump.
	GetGraphData(ctx context.Context, limit int) (*graph.GraphData, error)

	// Visualize writes an interactive HTML rendering.
	Visualize(ctx context.Context, path string, limit int) error

	// Export dumps the graph to json, yaml, parquet, or html.
	Export(ctx context.Context, path, format string, limit int) error
}

// Admin covers lifecycle and destructive operations.
type Admin interface {
	// Initialize connects the store and reports component readiness.
	Initialize(ctx context.Context) *InitStatus

	// Clear removes all nodes and edges.
	Clear(ctx context.Context) error

	// Shutdown persists and closes all resources.
	Shutdown(ctx context.Context) error
}

// FactGraph is the full client surface.
type FactGraph interface {
	Ingestor
	Querier
	GraphReader
	Admin
}

var _ FactGraph = (*Client)(nil)
