package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// snapshot is the on-disk form of the embedded graph. Node order is kept
// so a load reproduces iteration order exactly.
type snapshot struct {
	Nodes []*Entity `json:"nodes"`
	Order []string  `json:"order"`
	Edges []memEdge `json:"edges"`
}

// persist serializes the full graph to the snapshot file. The write goes
// to a temp file first and is moved into place with os.Rename, so a
// crash mid-write leaves the previous snapshot intact. Caller holds the
// write lock. A store with no path configured skips persistence.
func (m *MemoryStore) persist() error {
	if m.path == "" {
		return nil
	}

	snap := snapshot{
		Nodes: make([]*Entity, 0, len(m.nodes)),
		Order: m.order,
		Edges: m.edges,
	}
	for _, key := range m.order {
		if e, ok := m.nodes[key]; ok {
			snap.Nodes = append(snap.Nodes, e)
		}
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode graph snapshot: %w", err)
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write graph snapshot: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace graph snapshot: %w", err)
	}

	m.logger.Debug("graph persisted", "path", m.path, "nodes", len(m.nodes), "edges", len(m.edges))
	return nil
}

// load reads the snapshot file into memory. A missing file yields an
// empty graph. Caller holds the write lock.
func (m *MemoryStore) load() error {
	m.nodes = make(map[string]*Entity)
	m.order = nil
	m.edges = nil

	if m.path == "" {
		return nil
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.logger.Info("no existing graph snapshot, starting empty", "path", m.path)
			return nil
		}
		return err
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("corrupt graph snapshot %s: %w", m.path, err)
	}

	for _, e := range snap.Nodes {
		if e.Properties == nil {
			e.Properties = make(map[string]string)
		}
		m.nodes[nodeKey(e.Type, e.Name)] = e
	}
	m.order = snap.Order
	if m.order == nil {
		for _, e := range snap.Nodes {
			m.order = append(m.order, nodeKey(e.Type, e.Name))
		}
	}
	m.edges = snap.Edges
	return nil
}

// SnapshotPath returns the file the embedded graph persists to.
func (m *MemoryStore) SnapshotPath() string { return m.path }

// ensureDir creates the parent directory of path when missing.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
