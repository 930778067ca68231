// Package query translates natural-language questions into graph
// queries, executes them, and explains the results back in prose.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/factgraph/factgraph/pkg/graph"
	"github.com/factgraph/factgraph/pkg/nlp"
)

const translateSystemPrompt = `You are an expert at converting natural language questions
into Neo4j Cypher queries. Generate ONLY the Cypher query, no explanations.

Common patterns:
- Find entity: MATCH (e:Type {name: "EntityName"}) RETURN e
- Find relationships: MATCH (e1)-[r]->(e2) WHERE e1.name = "Name" RETURN e1, r, e2
- Search: MATCH (e) WHERE toLower(e.name) CONTAINS toLower("SearchTerm") RETURN e
- Count: MATCH (n:Type) RETURN count(n)
- Get related: MATCH (e {name: "Name"})-[r]-(other) RETURN other

Entity types in the graph: Person, Organization, Location, Concept, Product, Date, Event, Technology
Relationship types: WORKS_FOR, LOCATED_IN, RELATED_TO, OWNS, CREATED, MANAGES, PARTICIPATED_IN

Rules:
- Compare names case-insensitively with CONTAINS rather than exact equality.
- Use an undirected relationship pattern -[r]- unless the question names a specific relationship type.
- Vague requests asking for "information" or "details" about something map to the neighborhood pattern MATCH (e)-[r]-(other).
- If the question mentions a number of results, append a LIMIT clause with it.

Generate only the Cypher query without any markdown formatting or explanations.`

const explainSystemPrompt = `You are explaining query results from a knowledge graph.
Provide a clear, concise explanation of what was found. Be specific and mention entity names.
If there are no results, state that plainly and suggest the entity may not be in the graph.`

const summarizeSystemPrompt = `You are summarizing information about an entity from a knowledge graph.
Provide a clear, informative summary mentioning the entity's properties and key relationships.`

// QueryResult is the outcome of one question-answering pass.
type QueryResult struct {
	Success     bool             `json:"success"`
	Query       string           `json:"query,omitempty"`
	Results     []map[string]any `json:"results"`
	Explanation string           `json:"explanation,omitempty"`
	ResultCount int              `json:"result_count"`
	Err         string           `json:"error,omitempty"`
}

// EntityInfo bundles an entity with its relationships and a summary.
type EntityInfo struct {
	Success       bool                     `json:"success"`
	Entity        *graph.Entity            `json:"entity,omitempty"`
	Relationships []graph.RelationshipInfo `json:"relationships"`
	Summary       string                   `json:"summary,omitempty"`
	Err           string                   `json:"error,omitempty"`
}

// Agent answers natural-language questions against a graph store.
type Agent struct {
	client nlp.Client
	store  graph.Store
	logger *slog.Logger
}

// NewAgent creates a query agent. A nil client leaves the agent
// uninitialized: Translate and Process report that instead of panicking.
func NewAgent(client nlp.Client, store graph.Store, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{client: client, store: store, logger: logger}
}

// Initialized reports whether a language model backend is available.
func (a *Agent) Initialized() bool { return a.client != nil }

// Translate converts a question into a Cypher query. Returns an error
// when no backend is configured or the call fails; never panics.
func (a *Agent) Translate(ctx context.Context, question string) (string, error) {
	if a.client == nil {
		return "", nlp.ErrNotConfigured
	}

	resp, err := a.client.Chat(ctx, []nlp.Message{
		nlp.NewSystemMessage(translateSystemPrompt),
		nlp.NewUserMessage("Convert this question to Cypher: " + question),
	})
	if err != nil {
		return "", fmt.Errorf("query translation failed: %w", err)
	}

	cypher := stripFences(resp.Content)
	if cypher == "" {
		return "", fmt.Errorf("translator returned an empty query")
	}
	a.logger.Info("generated cypher query", "query", cypher)
	return cypher, nil
}

// Process runs the full translate, execute, explain loop. Failures at
// any stage degrade to a Success=false result rather than an error.
func (a *Agent) Process(ctx context.Context, question string) *QueryResult {
	if a.client == nil {
		return &QueryResult{Success: false, Err: "query agent not initialized", Results: []map[string]any{}}
	}

	cypher, err := a.Translate(ctx, question)
	if err != nil {
		a.logger.Error("could not translate question", "question", question, "error", err)
		return &QueryResult{Success: false, Err: err.Error(), Results: []map[string]any{}}
	}

	results, err := a.store.Query(ctx, cypher, nil)
	if err != nil {
		a.logger.Error("query execution failed", "query", cypher, "error", err)
		return &QueryResult{Success: false, Query: cypher, Err: err.Error(), Results: []map[string]any{}}
	}
	if results == nil {
		results = []map[string]any{}
	}

	return &QueryResult{
		Success:     true,
		Query:       cypher,
		Results:     results,
		Explanation: a.Explain(ctx, question, cypher, results),
		ResultCount: len(results),
	}
}

// Explain produces a prose explanation of results. On any failure it
// falls back to a count-only template; explanation failures never abort
// the outer query.
func (a *Agent) Explain(ctx context.Context, question, cypher string, results []map[string]any) string {
	fallback := fmt.Sprintf("Found %d results", len(results))
	if a.client == nil {
		return fallback
	}

	sample := "No results"
	if len(results) > 0 {
		n := len(results)
		if n > 3 {
			n = 3
		}
		sample = fmt.Sprintf("%v", results[:n])
	}

	prompt := fmt.Sprintf(`Original question: %s

Query executed: %s

Results found: %d

Sample results: %s

Provide a brief, natural explanation of these results.`, question, cypher, len(results), sample)

	resp, err := a.client.Chat(ctx, []nlp.Message{
		nlp.NewSystemMessage(explainSystemPrompt),
		nlp.NewUserMessage(prompt),
	})
	if err != nil {
		a.logger.Warn("result explanation failed", "error", err)
		return fallback
	}
	return strings.TrimSpace(resp.Content)
}

// EntityInfo returns an entity, its relationships, and a model-written
// summary (or a plain label when no model is available).
func (a *Agent) EntityInfo(ctx context.Context, name string) *EntityInfo {
	entity, err := a.store.GetEntity(ctx, name, "")
	if err != nil {
		return &EntityInfo{Success: false, Err: err.Error(), Relationships: []graph.RelationshipInfo{}}
	}

	rels, err := a.store.GetEntityRelationships(ctx, name, "")
	if err != nil {
		return &EntityInfo{Success: false, Err: err.Error(), Relationships: []graph.RelationshipInfo{}}
	}

	summary := "Entity: " + name
	if a.client != nil && entity != nil {
		summary = a.summarize(ctx, name, entity, rels)
	}

	return &EntityInfo{
		Success:       true,
		Entity:        entity,
		Relationships: rels,
		Summary:       summary,
	}
}

func (a *Agent) summarize(ctx context.Context, name string, entity *graph.Entity, rels []graph.RelationshipInfo) string {
	prompt := fmt.Sprintf(`Entity: %s
Properties: %v
Relationships: %v

Provide a brief summary of this entity and its connections.`, name, entity, rels)

	resp, err := a.client.Chat(ctx, []nlp.Message{
		nlp.NewSystemMessage(summarizeSystemPrompt),
		nlp.NewUserMessage(prompt),
	})
	if err != nil {
		a.logger.Warn("entity summary failed", "entity", name, "error", err)
		return fmt.Sprintf("%s - %d relationships", name, len(rels))
	}
	return strings.TrimSpace(resp.Content)
}

var baseSuggestions = []string{
	"Show me all entities",
	"Find all organizations",
	"What are the relationships for [entity name]?",
	"Find entities related to [entity name]",
	"Show all people in the graph",
	"List all locations",
	"What does [entity name] relate to?",
	"Find connections between [entity1] and [entity2]",
}

// Suggestions returns up to five canned query suggestions matching the
// partial input.
func (a *Agent) Suggestions(partial string) []string {
	matched := make([]string, 0, len(baseSuggestions))
	partialLower := strings.ToLower(partial)
	for _, s := range baseSuggestions {
		if partial == "" || strings.Contains(strings.ToLower(s), partialLower) {
			matched = append(matched, s)
		}
	}
	if len(matched) > 5 {
		matched = matched[:5]
	}
	return matched
}

// stripFences removes markdown code fences from model output.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```cypher", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
