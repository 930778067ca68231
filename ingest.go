package factgraph

import (
	"context"
	"fmt"
	"os"

	"github.com/factgraph/factgraph/pkg/normalize"
)

// ProcessResult summarizes one document's trip through the ingestion
// pipeline. Extracted counts are raw model output after per-document
// deduplication; added counts are successful store upserts. The two can
// legitimately differ.
type ProcessResult struct {
	Success                bool           `json:"success"`
	Filename               string         `json:"filename,omitempty"`
	TextLength             int            `json:"text_length,omitempty"`
	Chunks                 int            `json:"chunks,omitempty"`
	EntitiesExtracted      int            `json:"entities_extracted"`
	RelationshipsExtracted int            `json:"relationships_extracted"`
	EntitiesAdded          int            `json:"entities_added"`
	RelationshipsAdded     int            `json:"relationships_added"`
	Metadata               map[string]any `json:"metadata,omitempty"`
	Err                    string         `json:"error,omitempty"`
}

func processFailure(err error) *ProcessResult {
	return &ProcessResult{Success: false, Err: err.Error()}
}

// ProcessDocument runs the full ingestion pipeline for one document:
// text extraction, chunking, model extraction, normalization, and graph
// upserts. Either path or data must be given; ext and filename are
// derived from path when empty. Store errors on individual upserts are
// logged and reflected in the added counts, not returned.
func (c *Client) ProcessDocument(ctx context.Context, path string, data []byte, ext, filename string) *ProcessResult {
	if !c.initialized {
		return processFailure(fmt.Errorf("client not initialized"))
	}

	if max := c.cfg.MaxFileSizeMB; max > 0 {
		size := int64(len(data))
		if data == nil && path != "" {
			info, err := os.Stat(path)
			if err != nil {
				return processFailure(fmt.Errorf("failed to stat file: %w", err))
			}
			size = info.Size()
		}
		if size > int64(max)*1024*1024 {
			return processFailure(fmt.Errorf("file exceeds maximum size of %d MB", max))
		}
	}

	doc := c.docs.ProcessFile(path, data, ext, filename)
	if !doc.Success {
		return processFailure(fmt.Errorf("document processing failed: %s", doc.Err))
	}
	if filename == "" {
		if name, ok := doc.Metadata["filename"].(string); ok {
			filename = name
		}
	}

	chunks := c.chunker.Split(doc.Text)
	c.logger.Info("processing document",
		"filename", filename,
		"characters", len(doc.Text),
		"chunks", len(chunks))

	extraction := c.extractor.ExtractFromChunks(ctx, chunks, filename)
	if !extraction.Success {
		return processFailure(fmt.Errorf("extraction failed: %s", extraction.Err))
	}

	result := &ProcessResult{
		Success:                true,
		Filename:               filename,
		TextLength:             len(doc.Text),
		Chunks:                 len(chunks),
		EntitiesExtracted:      len(extraction.Entities),
		RelationshipsExtracted: len(extraction.Relationships),
		Metadata:               doc.Metadata,
	}

	// Normalized name to entity type, first occurrence wins. Relationship
	// endpoints resolve through this map so edges attach to the typed
	// nodes created above instead of spawning untyped duplicates.
	typeByName := make(map[string]string, len(extraction.Entities))

	for _, entity := range extraction.Entities {
		name := normalize.Name(entity.Name)
		if name == "" {
			continue
		}
		entityType := entity.Type
		if entityType == "" {
			entityType = "Entity"
		}
		if _, ok := typeByName[name]; !ok {
			typeByName[name] = entityType
		}

		err := c.store.UpsertEntity(ctx, name, entityType,
			map[string]string{"description": entity.Description}, filename)
		if err != nil {
			c.logger.Warn("entity upsert failed", "entity", name, "error", err)
			continue
		}
		result.EntitiesAdded++
	}

	for _, rel := range extraction.Relationships {
		source := normalize.Name(rel.Source)
		target := normalize.Name(rel.Target)
		if source == "" || target == "" {
			continue
		}

		err := c.store.UpsertRelationship(ctx,
			source, entityTypeFor(typeByName, source),
			target, entityTypeFor(typeByName, target),
			normalize.RelType(rel.Type),
			map[string]string{"description": rel.Description})
		if err != nil {
			c.logger.Warn("relationship upsert failed",
				"source", source, "target", target, "error", err)
			continue
		}
		result.RelationshipsAdded++
	}

	c.logger.Info("document ingested",
		"filename", filename,
		"entities_added", result.EntitiesAdded,
		"relationships_added", result.RelationshipsAdded)
	return result
}

func entityTypeFor(typeByName map[string]string, name string) string {
	if t, ok := typeByName[name]; ok {
		return t
	}
	return "Entity"
}

// ProcessText ingests a raw text snippet without file handling. Useful
// for piping content from stdin or API payloads.
func (c *Client) ProcessText(ctx context.Context, text, source string) *ProcessResult {
	if source == "" {
		source = "inline"
	}
	return c.ProcessDocument(ctx, "", []byte(text), ".txt", source)
}
