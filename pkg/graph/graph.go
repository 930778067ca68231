// Package graph provides the property-graph store behind the ingestion
// and query pipelines. Two interchangeable backends implement the Store
// contract: a Neo4j client and an embedded in-process graph persisted to
// a snapshot file. Callers must not depend on which backend is active.
package graph

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// Backend providers.
const (
	ProviderNeo4j    = "neo4j"
	ProviderEmbedded = "embedded"
)

// ErrNotConnected is returned by every operation before Connect succeeds
// or after Close.
var ErrNotConnected = errors.New("graph store not connected")

// Entity is a node as stored. Identity is (Name, Type): two entities
// with the same name but different types are distinct nodes.
type Entity struct {
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Description string            `json:"description,omitempty"`
	Source      string            `json:"source,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
	CreatedAt   string            `json:"created_at,omitempty"`
	UpdatedAt   string            `json:"updated_at,omitempty"`
}

// RelationshipInfo is one edge incident to an entity, tagged with the
// direction relative to that entity.
type RelationshipInfo struct {
	Relationship string   `json:"relationship"`
	Entity       string   `json:"entity"`
	Labels       []string `json:"labels"`
	Direction    string   `json:"direction"` // "outgoing" or "incoming"
}

// SearchHit is one result of a name substring search.
type SearchHit struct {
	Name  string   `json:"name"`
	Types []string `json:"types"`
}

// TypeCount is a label (or relationship type) with its node/edge count.
type TypeCount struct {
	Labels []string `json:"labels,omitempty"`
	Type   string   `json:"type,omitempty"`
	Count  int      `json:"count"`
}

// Stats aggregates graph-wide counts, sorted descending by count.
type Stats struct {
	NodeCount         int         `json:"node_count"`
	RelationshipCount int         `json:"relationship_count"`
	NodeTypes         []TypeCount `json:"node_types"`
	RelationshipTypes []TypeCount `json:"relationship_types"`
}

// sortNodeTypeCounts orders label counts descending, ties by the joined
// label list ascending. Nodes from a shared database can carry any
// number of labels, including none, so no element of Labels is assumed.
func sortNodeTypeCounts(counts []TypeCount) {
	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return strings.Join(counts[i].Labels, ":") < strings.Join(counts[j].Labels, ":")
	})
}

// sortRelationshipTypeCounts orders relationship type counts descending,
// ties by type ascending.
func sortRelationshipTypeCounts(counts []TypeCount) {
	sort.SliceStable(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Type < counts[j].Type
	})
}

// Node is the visualization shape of an entity.
type Node struct {
	ID         string            `json:"id"`
	Label      string            `json:"label"`
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties"`
}

// Edge is the visualization shape of a relationship.
type Edge struct {
	Source     string            `json:"source"`
	Target     string            `json:"target"`
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties"`
}

// GraphData is a bounded dump for visualization and export. Edges whose
// endpoints fall outside the sampled node set are dropped.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Store is the dual-backend graph contract. Mutations are idempotent
// upserts keyed by entity identity. Operations return errors rather than
// panicking; the orchestrator decides whether to absorb them.
type Store interface {
	// Connect establishes the backend connection (or loads the snapshot
	// for the embedded store) and gates all other operations.
	Connect(ctx context.Context) error

	// Close releases the backend. The embedded store persists first.
	Close(ctx context.Context) error

	// UpsertEntity creates or merges an entity by (name, entityType).
	// created_at is set only on first insert, updated_at on every call,
	// and incoming properties merge over existing ones.
	UpsertEntity(ctx context.Context, name, entityType string, properties map[string]string, source string) error

	// UpsertRelationship records a directed typed edge, auto-creating
	// missing endpoints as stub entities.
	UpsertRelationship(ctx context.Context, sourceName, sourceType, targetName, targetType, relType string, properties map[string]string) error

	// GetEntity returns an entity by identity, or by first name match
	// when entityType is empty. Returns (nil, nil) when absent.
	GetEntity(ctx context.Context, name, entityType string) (*Entity, error)

	// GetEntityRelationships returns all incident edges, outgoing and
	// incoming, each tagged with direction. Unbounded.
	GetEntityRelationships(ctx context.Context, name, entityType string) ([]RelationshipInfo, error)

	// SearchEntities matches names case-insensitively by substring.
	SearchEntities(ctx context.Context, term string, limit int) ([]SearchHit, error)

	// GetStats returns aggregate counts.
	GetStats(ctx context.Context) (*Stats, error)

	// GetGraphData returns up to limit nodes and the edges whose both
	// endpoints are within the returned node set.
	GetGraphData(ctx context.Context, limit int) (*GraphData, error)

	// Clear deletes all nodes and edges irreversibly.
	Clear(ctx context.Context) error

	// Query executes a query string: native Cypher on Neo4j, a small
	// pattern subset on the embedded backend.
	Query(ctx context.Context, query string, parameters map[string]any) ([]map[string]any, error)

	// Provider identifies the active backend.
	Provider() string
}
