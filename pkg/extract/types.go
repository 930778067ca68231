// Package extract turns raw text into graph-ready entities and
// relationships. The primary path runs an LLM with a structured prompt;
// a heuristic fallback covers deployments with no model configured.
package extract

import "context"

// Entity is a node candidate produced by extraction. Names and types are
// raw model output; normalization happens downstream at upsert time.
type Entity struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Relationship is an edge candidate between two entities, referenced by
// name as they appeared in the source text.
type Relationship struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Result carries the outcome of an extraction call. Extraction never
// returns a Go error: failures are absorbed into Success/Err so one bad
// chunk cannot abort a document.
type Result struct {
	Entities        []Entity       `json:"entities"`
	Relationships   []Relationship `json:"relationships"`
	Success         bool           `json:"success"`
	Err             string         `json:"error,omitempty"`
	ChunksProcessed int            `json:"chunks_processed,omitempty"`
}

// Extractor extracts entities and relationships from text.
type Extractor interface {
	// Extract processes a single piece of text. source is optional
	// provenance (filename, URL) given to the model as context.
	Extract(ctx context.Context, text, source string) *Result

	// ExtractFromChunks processes chunks sequentially and aggregates
	// the per-chunk results. Failed chunks contribute nothing.
	ExtractFromChunks(ctx context.Context, chunks []string, source string) *Result
}

func failure(err error) *Result {
	return &Result{
		Entities:      []Entity{},
		Relationships: []Relationship{},
		Success:       false,
		Err:           err.Error(),
	}
}

// Aggregate merges per-chunk results into one. Entities are deduplicated
// by "name_type" with the first occurrence winning; relationships are
// concatenated as-is since duplicate edges are resolved by the store.
func Aggregate(results []*Result) *Result {
	merged := &Result{
		Entities:        []Entity{},
		Relationships:   []Relationship{},
		Success:         true,
		ChunksProcessed: len(results),
	}

	seen := make(map[string]bool)
	for _, r := range results {
		if r == nil || !r.Success {
			continue
		}
		for _, e := range r.Entities {
			key := e.Name + "_" + e.Type
			if seen[key] {
				continue
			}
			seen[key] = true
			merged.Entities = append(merged.Entities, e)
		}
		merged.Relationships = append(merged.Relationships, r.Relationships...)
	}
	return merged
}
