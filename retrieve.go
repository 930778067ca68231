package factgraph

import (
	"context"
	"fmt"

	"github.com/factgraph/factgraph/pkg/graph"
	"github.com/factgraph/factgraph/pkg/query"
)

// Query answers a natural-language question against the graph. The
// result degrades rather than errors: translation or execution failures
// are reported inside the QueryResult.
func (c *Client) Query(ctx context.Context, question string) *query.QueryResult {
	if !c.initialized {
		return &query.QueryResult{
			Success: false,
			Results: []map[string]any{},
			Err:     "client not initialized",
		}
	}
	return c.agent.Process(ctx, question)
}

// Search finds entities whose names contain the term, case-insensitive.
func (c *Client) Search(ctx context.Context, term string, limit int) ([]graph.SearchHit, error) {
	if !c.initialized {
		return nil, fmt.Errorf("client not initialized")
	}
	if limit <= 0 {
		limit = 10
	}
	return c.store.SearchEntities(ctx, term, limit)
}

// EntityDetails returns an entity, its relationships, and a summary.
// Without a query model the summary is a plain placeholder.
func (c *Client) EntityDetails(ctx context.Context, name string) *query.EntityInfo {
	if !c.initialized {
		return &query.EntityInfo{
			Success:       false,
			Relationships: []graph.RelationshipInfo{},
			Err:           "client not initialized",
		}
	}
	return c.agent.EntityInfo(ctx, name)
}

// Suggestions returns example questions matching a partial input.
func (c *Client) Suggestions(partial string) []string {
	return c.agent.Suggestions(partial)
}
