package graph

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Cypher has no parameter placeholders for labels and relationship
// types, so they are interpolated and must be validated first.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Neo4jConfig holds connection settings for the Neo4j backend.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

// Neo4jStore implements Store against a Neo4j database.
type Neo4jStore struct {
	cfg       Neo4jConfig
	driver    neo4j.DriverWithContext
	connected bool
	logger    *slog.Logger
}

var _ Store = (*Neo4jStore)(nil)

// NewNeo4jStore creates a Neo4j-backed store. Connect must be called
// before use.
func NewNeo4jStore(cfg Neo4jConfig, logger *slog.Logger) *Neo4jStore {
	if cfg.Database == "" {
		cfg.Database = "neo4j"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Neo4jStore{cfg: cfg, logger: logger}
}

// Provider implements Store.
func (s *Neo4jStore) Provider() string { return ProviderNeo4j }

// Connect implements Store.
func (s *Neo4jStore) Connect(ctx context.Context) error {
	driver, err := neo4j.NewDriverWithContext(s.cfg.URI, neo4j.BasicAuth(s.cfg.Username, s.cfg.Password, ""))
	if err != nil {
		return fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return fmt.Errorf("failed to connect to neo4j at %s: %w", s.cfg.URI, err)
	}

	s.driver = driver
	s.connected = true
	s.logger.Info("connected to neo4j", "uri", s.cfg.URI, "database", s.cfg.Database)
	return nil
}

// Close implements Store.
func (s *Neo4jStore) Close(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	err := s.driver.Close(ctx)
	s.driver = nil
	s.connected = false
	return err
}

func (s *Neo4jStore) session(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.cfg.Database})
}

func validIdent(s string) error {
	if !identPattern.MatchString(s) {
		return fmt.Errorf("invalid graph identifier %q", s)
	}
	return nil
}

// UpsertEntity implements Store. Unlike the embedded backend, identity
// is enforced by MERGE so repeated upserts cannot duplicate a node.
func (s *Neo4jStore) UpsertEntity(ctx context.Context, name, entityType string, properties map[string]string, source string) error {
	if !s.connected {
		return ErrNotConnected
	}
	if err := validIdent(entityType); err != nil {
		return err
	}

	props := make(map[string]any, len(properties)+1)
	for k, v := range properties {
		props[k] = v
	}
	props["name"] = name

	session := s.session(ctx)
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MERGE (e:%s {name: $name})
		ON CREATE SET e.created_at = timestamp(), e.source = $source
		ON MATCH SET e.updated_at = timestamp()
		SET e += $properties
		RETURN e`, entityType)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, map[string]any{
			"name":       name,
			"properties": props,
			"source":     source,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to upsert entity %s: %w", name, err)
	}
	return nil
}

// UpsertRelationship implements Store. Endpoints are MERGEd first so an
// edge can reference entities not yet explicitly upserted, and the edge
// itself is MERGEd by identity (no duplicate edges on this backend).
func (s *Neo4jStore) UpsertRelationship(ctx context.Context, sourceName, sourceType, targetName, targetType, relType string, properties map[string]string) error {
	if !s.connected {
		return ErrNotConnected
	}
	for _, ident := range []string{sourceType, targetType, relType} {
		if err := validIdent(ident); err != nil {
			return err
		}
	}

	props := make(map[string]any, len(properties))
	for k, v := range properties {
		props[k] = v
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MERGE (source:%s {name: $source_name})
		MERGE (target:%s {name: $target_name})
		MERGE (source)-[r:%s]->(target)
		ON CREATE SET r.created_at = timestamp()
		ON MATCH SET r.updated_at = timestamp()
		SET r += $properties
		RETURN r`, sourceType, targetType, relType)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, map[string]any{
			"source_name": sourceName,
			"target_name": targetName,
			"properties":  props,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to upsert relationship %s-[%s]->%s: %w", sourceName, relType, targetName, err)
	}
	return nil
}

// GetEntity implements Store.
func (s *Neo4jStore) GetEntity(ctx context.Context, name, entityType string) (*Entity, error) {
	if !s.connected {
		return nil, ErrNotConnected
	}

	query := "MATCH (e {name: $name}) RETURN e, labels(e) AS labels LIMIT 1"
	if entityType != "" {
		if err := validIdent(entityType); err != nil {
			return nil, err
		}
		query = fmt.Sprintf("MATCH (e:%s {name: $name}) RETURN e, labels(e) AS labels LIMIT 1", entityType)
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"name": name})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return records, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get entity %s: %w", name, err)
	}

	records := result.([]*neo4j.Record)
	if len(records) == 0 {
		return nil, nil
	}

	nodeValue, _ := records[0].Get("e")
	node, ok := nodeValue.(dbtype.Node)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T for entity", nodeValue)
	}
	return entityFromNode(node), nil
}

func entityFromNode(node dbtype.Node) *Entity {
	e := &Entity{Properties: make(map[string]string)}
	if len(node.Labels) > 0 {
		e.Type = node.Labels[0]
	}
	for k, v := range node.Props {
		sv := fmt.Sprintf("%v", v)
		switch k {
		case "name":
			e.Name = sv
		case "description":
			e.Description = sv
		case "source":
			e.Source = sv
		case "created_at":
			e.CreatedAt = sv
		case "updated_at":
			e.UpdatedAt = sv
		default:
			e.Properties[k] = sv
		}
	}
	return e
}

// GetEntityRelationships implements Store.
func (s *Neo4jStore) GetEntityRelationships(ctx context.Context, name, entityType string) ([]RelationshipInfo, error) {
	if !s.connected {
		return nil, ErrNotConnected
	}

	match := "MATCH (e {name: $name})"
	if entityType != "" {
		if err := validIdent(entityType); err != nil {
			return nil, err
		}
		match = fmt.Sprintf("MATCH (e:%s {name: $name})", entityType)
	}

	query := match + `-[r]-(other)
		RETURN type(r) AS relationship, other.name AS entity, labels(other) AS labels,
		       CASE WHEN startNode(r) = e THEN 'outgoing' ELSE 'incoming' END AS direction`

	rows, err := s.runRead(ctx, query, map[string]any{"name": name})
	if err != nil {
		return nil, fmt.Errorf("failed to get relationships for %s: %w", name, err)
	}

	rels := make([]RelationshipInfo, 0, len(rows))
	for _, row := range rows {
		info := RelationshipInfo{
			Relationship: stringValue(row["relationship"]),
			Entity:       stringValue(row["entity"]),
			Direction:    stringValue(row["direction"]),
			Labels:       stringSlice(row["labels"]),
		}
		rels = append(rels, info)
	}
	return rels, nil
}

// SearchEntities implements Store.
func (s *Neo4jStore) SearchEntities(ctx context.Context, term string, limit int) ([]SearchHit, error) {
	if !s.connected {
		return nil, ErrNotConnected
	}

	query := `
		MATCH (e)
		WHERE toLower(e.name) CONTAINS toLower($term)
		RETURN e.name AS name, labels(e) AS types
		LIMIT $limit`

	rows, err := s.runRead(ctx, query, map[string]any{"term": term, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("entity search failed: %w", err)
	}

	hits := make([]SearchHit, 0, len(rows))
	for _, row := range rows {
		hits = append(hits, SearchHit{
			Name:  stringValue(row["name"]),
			Types: stringSlice(row["types"]),
		})
	}
	return hits, nil
}

// GetStats implements Store.
func (s *Neo4jStore) GetStats(ctx context.Context) (*Stats, error) {
	if !s.connected {
		return nil, ErrNotConnected
	}

	stats := &Stats{}

	rows, err := s.runRead(ctx, "MATCH (n) RETURN count(n) AS count", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count nodes: %w", err)
	}
	if len(rows) > 0 {
		stats.NodeCount = intValue(rows[0]["count"])
	}

	rows, err = s.runRead(ctx, "MATCH ()-[r]->() RETURN count(r) AS count", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count relationships: %w", err)
	}
	if len(rows) > 0 {
		stats.RelationshipCount = intValue(rows[0]["count"])
	}

	rows, err = s.runRead(ctx, `
		MATCH (n)
		RETURN labels(n) AS labels, count(n) AS count
		ORDER BY count DESC`, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count node types: %w", err)
	}
	for _, row := range rows {
		stats.NodeTypes = append(stats.NodeTypes, TypeCount{
			Labels: stringSlice(row["labels"]),
			Count:  intValue(row["count"]),
		})
	}

	rows, err = s.runRead(ctx, `
		MATCH ()-[r]->()
		RETURN type(r) AS type, count(r) AS count
		ORDER BY count DESC`, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count relationship types: %w", err)
	}
	for _, row := range rows {
		stats.RelationshipTypes = append(stats.RelationshipTypes, TypeCount{
			Type:  stringValue(row["type"]),
			Count: intValue(row["count"]),
		})
	}

	// Stable tie order matching the embedded backend.
	sortNodeTypeCounts(stats.NodeTypes)
	sortRelationshipTypeCounts(stats.RelationshipTypes)

	return stats, nil
}

// GetGraphData implements Store.
func (s *Neo4jStore) GetGraphData(ctx context.Context, limit int) (*GraphData, error) {
	if !s.connected {
		return nil, ErrNotConnected
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (n)
			WITH n LIMIT $limit
			WITH collect(n) AS sample
			UNWIND sample AS n
			OPTIONAL MATCH (n)-[r]->(m)
			WHERE m IN sample
			RETURN n, r, m`, map[string]any{"limit": limit})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get graph data: %w", err)
	}

	data := &GraphData{Nodes: []Node{}, Edges: []Edge{}}
	seen := make(map[string]bool)

	addNode := func(node dbtype.Node) string {
		id := node.GetElementId()
		if !seen[id] {
			seen[id] = true
			e := entityFromNode(node)
			data.Nodes = append(data.Nodes, Node{
				ID:         id,
				Label:      e.Name,
				Type:       e.Type,
				Properties: nodeProperties(e),
			})
		}
		return id
	}

	for _, record := range result.([]*neo4j.Record) {
		nVal, _ := record.Get("n")
		node, ok := nVal.(dbtype.Node)
		if !ok {
			continue
		}
		sourceID := addNode(node)

		rVal, _ := record.Get("r")
		mVal, _ := record.Get("m")
		rel, relOK := rVal.(dbtype.Relationship)
		target, targetOK := mVal.(dbtype.Node)
		if !relOK || !targetOK {
			continue
		}
		targetID := addNode(target)

		props := make(map[string]string, len(rel.Props))
		for k, v := range rel.Props {
			props[k] = fmt.Sprintf("%v", v)
		}
		data.Edges = append(data.Edges, Edge{
			Source:     sourceID,
			Target:     targetID,
			Type:       rel.Type,
			Properties: props,
		})
	}
	return data, nil
}

// Clear implements Store.
func (s *Neo4jStore) Clear(ctx context.Context) error {
	if !s.connected {
		return ErrNotConnected
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, "MATCH (n) DETACH DELETE n", nil)
	})
	if err != nil {
		return fmt.Errorf("failed to clear graph: %w", err)
	}
	s.logger.Info("graph cleared")
	return nil
}

// Query implements Store, executing raw Cypher.
func (s *Neo4jStore) Query(ctx context.Context, query string, parameters map[string]any) ([]map[string]any, error) {
	if !s.connected {
		return nil, ErrNotConnected
	}
	rows, err := s.runRead(ctx, query, parameters)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return rows, nil
}

func (s *Neo4jStore) runRead(ctx context.Context, query string, parameters map[string]any) ([]map[string]any, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, parameters)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}

	records := result.([]*neo4j.Record)
	rows := make([]map[string]any, 0, len(records))
	for _, record := range records {
		rows = append(rows, record.AsMap())
	}
	return rows, nil
}

func stringValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func stringSlice(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, stringValue(item))
	}
	return out
}

func intValue(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}
