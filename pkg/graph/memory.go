package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memEdge is one stored edge. The embedded backend keeps a multiset:
// repeated upserts with identical endpoints and type append new edges,
// each an independently timestamped fact.
type memEdge struct {
	ID         string            `json:"id"`
	Source     string            `json:"source"`
	Target     string            `json:"target"`
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties,omitempty"`
	CreatedAt  string            `json:"created_at"`
}

// MemoryStore is the embedded graph backend: a directed multigraph held
// in memory and written through to a JSON snapshot file after every
// mutation. It requires no external database.
//
// Name lookups without a type and substring search are O(n) in node
// count. Acceptable at the scale this store targets.
type MemoryStore struct {
	mu        sync.RWMutex
	nodes     map[string]*Entity // key "Type:Name"
	order     []string           // insertion order of node keys
	edges     []memEdge
	path      string
	connected bool
	logger    *slog.Logger

	now func() time.Time // test hook
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an embedded store persisting to path. An empty
// path disables persistence (useful for tests).
func NewMemoryStore(path string, logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryStore{
		nodes:  make(map[string]*Entity),
		path:   path,
		logger: logger,
		now:    time.Now,
	}
}

func nodeKey(entityType, name string) string {
	return entityType + ":" + name
}

// Provider implements Store.
func (m *MemoryStore) Provider() string { return ProviderEmbedded }

// Connect implements Store. It loads the snapshot file when present; a
// missing file starts an empty graph.
func (m *MemoryStore) Connect(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.path != "" {
		if err := ensureDir(m.path); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}
	if err := m.load(); err != nil {
		return fmt.Errorf("failed to load graph snapshot: %w", err)
	}
	m.connected = true
	m.logger.Info("embedded graph initialized", "nodes", len(m.nodes), "edges", len(m.edges), "path", m.path)
	return nil
}

// Close implements Store: persists the graph and drops the connection.
func (m *MemoryStore) Close(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}
	err := m.persist()
	m.connected = false
	return err
}

// UpsertEntity implements Store.
func (m *MemoryStore) UpsertEntity(_ context.Context, name, entityType string, properties map[string]string, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrNotConnected
	}
	m.upsertEntityLocked(name, entityType, properties, source)
	return m.persist()
}

func (m *MemoryStore) upsertEntityLocked(name, entityType string, properties map[string]string, source string) {
	key := nodeKey(entityType, name)
	ts := m.now().UTC().Format(time.RFC3339)

	e, exists := m.nodes[key]
	if !exists {
		e = &Entity{
			Name:       name,
			Type:       entityType,
			Properties: make(map[string]string),
			CreatedAt:  ts,
		}
		m.nodes[key] = e
		m.order = append(m.order, key)
	}
	e.UpdatedAt = ts
	if source != "" {
		e.Source = source
	}
	for k, v := range properties {
		if k == "description" {
			e.Description = v
			continue
		}
		e.Properties[k] = v
	}
}

// UpsertRelationship implements Store. Missing endpoints are created as
// stub entities before the edge is appended.
func (m *MemoryStore) UpsertRelationship(_ context.Context, sourceName, sourceType, targetName, targetType, relType string, properties map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrNotConnected
	}

	srcKey := nodeKey(sourceType, sourceName)
	tgtKey := nodeKey(targetType, targetName)
	if _, ok := m.nodes[srcKey]; !ok {
		m.upsertEntityLocked(sourceName, sourceType, nil, "")
	}
	if _, ok := m.nodes[tgtKey]; !ok {
		m.upsertEntityLocked(targetName, targetType, nil, "")
	}

	props := make(map[string]string, len(properties))
	for k, v := range properties {
		props[k] = v
	}
	m.edges = append(m.edges, memEdge{
		ID:         uuid.NewString(),
		Source:     srcKey,
		Target:     tgtKey,
		Type:       relType,
		Properties: props,
		CreatedAt:  m.now().UTC().Format(time.RFC3339),
	})

	return m.persist()
}

// GetEntity implements Store.
func (m *MemoryStore) GetEntity(_ context.Context, name, entityType string) (*Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return nil, ErrNotConnected
	}

	if entityType != "" {
		if e, ok := m.nodes[nodeKey(entityType, name)]; ok {
			return cloneEntity(e), nil
		}
		return nil, nil
	}

	// No type given: first name match in insertion order.
	for _, key := range m.order {
		if e := m.nodes[key]; e != nil && e.Name == name {
			return cloneEntity(e), nil
		}
	}
	return nil, nil
}

// GetEntityRelationships implements Store.
func (m *MemoryStore) GetEntityRelationships(_ context.Context, name, entityType string) ([]RelationshipInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return nil, ErrNotConnected
	}

	key := ""
	if entityType != "" {
		key = nodeKey(entityType, name)
		if _, ok := m.nodes[key]; !ok {
			return []RelationshipInfo{}, nil
		}
	} else {
		for _, k := range m.order {
			if e := m.nodes[k]; e != nil && e.Name == name {
				key = k
				break
			}
		}
		if key == "" {
			return []RelationshipInfo{}, nil
		}
	}

	rels := []RelationshipInfo{}
	for _, edge := range m.edges {
		switch key {
		case edge.Source:
			rels = append(rels, RelationshipInfo{
				Relationship: edge.Type,
				Entity:       m.nodeName(edge.Target),
				Labels:       []string{m.nodeType(edge.Target)},
				Direction:    "outgoing",
			})
		case edge.Target:
			rels = append(rels, RelationshipInfo{
				Relationship: edge.Type,
				Entity:       m.nodeName(edge.Source),
				Labels:       []string{m.nodeType(edge.Source)},
				Direction:    "incoming",
			})
		}
	}
	return rels, nil
}

// SearchEntities implements Store.
func (m *MemoryStore) SearchEntities(_ context.Context, term string, limit int) ([]SearchHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return nil, ErrNotConnected
	}

	termLower := strings.ToLower(term)
	hits := []SearchHit{}
	for _, key := range m.order {
		e := m.nodes[key]
		if e == nil {
			continue
		}
		if strings.Contains(strings.ToLower(e.Name), termLower) {
			hits = append(hits, SearchHit{Name: e.Name, Types: []string{e.Type}})
			if len(hits) >= limit {
				break
			}
		}
	}
	return hits, nil
}

// GetStats implements Store. Counts are sorted descending, ties broken
// by name so output is deterministic.
func (m *MemoryStore) GetStats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return nil, ErrNotConnected
	}

	typeCounts := make(map[string]int)
	for _, e := range m.nodes {
		typeCounts[e.Type]++
	}
	relCounts := make(map[string]int)
	for _, edge := range m.edges {
		relCounts[edge.Type]++
	}

	stats := &Stats{
		NodeCount:         len(m.nodes),
		RelationshipCount: len(m.edges),
		NodeTypes:         make([]TypeCount, 0, len(typeCounts)),
		RelationshipTypes: make([]TypeCount, 0, len(relCounts)),
	}
	for t, c := range typeCounts {
		stats.NodeTypes = append(stats.NodeTypes, TypeCount{Labels: []string{t}, Count: c})
	}
	for t, c := range relCounts {
		stats.RelationshipTypes = append(stats.RelationshipTypes, TypeCount{Type: t, Count: c})
	}
	sortNodeTypeCounts(stats.NodeTypes)
	sortRelationshipTypeCounts(stats.RelationshipTypes)
	return stats, nil
}

// GetGraphData implements Store. Edges with an endpoint outside the
// sampled node set are dropped, a documented sampling bias when limit is
// below the total node count.
func (m *MemoryStore) GetGraphData(_ context.Context, limit int) (*GraphData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return nil, ErrNotConnected
	}

	data := &GraphData{Nodes: []Node{}, Edges: []Edge{}}
	included := make(map[string]bool)
	for _, key := range m.order {
		if len(data.Nodes) >= limit {
			break
		}
		e := m.nodes[key]
		if e == nil {
			continue
		}
		included[key] = true
		data.Nodes = append(data.Nodes, Node{
			ID:         key,
			Label:      e.Name,
			Type:       e.Type,
			Properties: nodeProperties(e),
		})
	}

	for _, edge := range m.edges {
		if included[edge.Source] && included[edge.Target] {
			props := make(map[string]string, len(edge.Properties))
			for k, v := range edge.Properties {
				props[k] = v
			}
			data.Edges = append(data.Edges, Edge{
				Source:     edge.Source,
				Target:     edge.Target,
				Type:       edge.Type,
				Properties: props,
			})
		}
	}
	return data, nil
}

// Clear implements Store.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrNotConnected
	}
	m.nodes = make(map[string]*Entity)
	m.order = nil
	m.edges = nil
	return m.persist()
}

// Query implements Store with a deliberately small pattern subset:
// "match (n)", "show" or "all" return up to 100 node rows, "count"
// returns the node count. Anything else yields no rows.
func (m *MemoryStore) Query(_ context.Context, query string, _ map[string]any) ([]map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return nil, ErrNotConnected
	}

	queryLower := strings.ToLower(query)
	results := []map[string]any{}

	switch {
	case strings.Contains(queryLower, "match (n)") ||
		strings.Contains(queryLower, "show") ||
		strings.Contains(queryLower, "all"):
		for i, key := range m.order {
			if i >= 100 {
				break
			}
			if e := m.nodes[key]; e != nil {
				results = append(results, map[string]any{"n": entityRow(e)})
			}
		}
	case strings.Contains(queryLower, "count"):
		results = append(results, map[string]any{"count": len(m.nodes)})
	}

	return results, nil
}

func (m *MemoryStore) nodeName(key string) string {
	if e := m.nodes[key]; e != nil {
		return e.Name
	}
	return "Unknown"
}

func (m *MemoryStore) nodeType(key string) string {
	if e := m.nodes[key]; e != nil {
		return e.Type
	}
	return "Unknown"
}

func cloneEntity(e *Entity) *Entity {
	out := *e
	out.Properties = make(map[string]string, len(e.Properties))
	for k, v := range e.Properties {
		out.Properties[k] = v
	}
	return &out
}

func nodeProperties(e *Entity) map[string]string {
	props := make(map[string]string, len(e.Properties)+4)
	for k, v := range e.Properties {
		props[k] = v
	}
	props["name"] = e.Name
	props["type"] = e.Type
	if e.Description != "" {
		props["description"] = e.Description
	}
	if e.Source != "" {
		props["source"] = e.Source
	}
	return props
}

func entityRow(e *Entity) map[string]any {
	row := map[string]any{
		"name": e.Name,
		"type": e.Type,
	}
	if e.Description != "" {
		row["description"] = e.Description
	}
	if e.Source != "" {
		row["source"] = e.Source
	}
	for k, v := range e.Properties {
		row[k] = v
	}
	return row
}
