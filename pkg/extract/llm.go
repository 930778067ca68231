package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	jsonrepair "github.com/kaptinlin/jsonrepair"

	"github.com/factgraph/factgraph/pkg/nlp"
)

// Tunables for the LLM extraction path.
const (
	// MaxInputChars caps how much of a chunk is sent to the model.
	MaxInputChars = 4000

	// DefaultCooldown is the pause between sequential chunk calls,
	// keeping burst rate under typical API limits.
	DefaultCooldown = 500 * time.Millisecond
)

// LLMExtractor extracts entities and relationships with a language model.
type LLMExtractor struct {
	client   nlp.Client
	cooldown time.Duration
	logger   *slog.Logger
}

// NewLLMExtractor creates an extractor backed by client.
func NewLLMExtractor(client nlp.Client, logger *slog.Logger) (*LLMExtractor, error) {
	if client == nil {
		return nil, nlp.ErrNotConfigured
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMExtractor{
		client:   client,
		cooldown: DefaultCooldown,
		logger:   logger,
	}, nil
}

// SetCooldown overrides the pause between chunk calls. Zero disables it.
func (e *LLMExtractor) SetCooldown(d time.Duration) { e.cooldown = d }

// Cooldown returns the pause between chunk calls. Wrappers that batch
// calls themselves read it so the pacing survives wrapping.
func (e *LLMExtractor) Cooldown() time.Duration { return e.cooldown }

// Extract implements Extractor.
func (e *LLMExtractor) Extract(ctx context.Context, text, source string) *Result {
	if source == "" {
		source = "Unknown source"
	}
	if len(text) > MaxInputChars {
		text = text[:MaxInputChars]
	}

	messages := []nlp.Message{
		nlp.NewSystemMessage(extractionSystemPrompt),
		nlp.NewUserMessage(fmt.Sprintf(extractionUserTemplate, source, text)),
	}

	resp, err := e.client.Chat(ctx, messages)
	if err != nil {
		e.logger.Error("entity extraction failed", "source", source, "error", err)
		return failure(err)
	}

	result, err := parseExtraction(resp.Content)
	if err != nil {
		e.logger.Error("failed to parse extraction response", "source", source, "error", err)
		return failure(err)
	}

	result.Success = true
	return result
}

// ExtractFromChunks implements Extractor. Chunks are processed one at a
// time with a cooldown between calls; a failed chunk is logged and
// skipped so the batch always completes.
func (e *LLMExtractor) ExtractFromChunks(ctx context.Context, chunks []string, source string) *Result {
	results := make([]*Result, 0, len(chunks))
	for i, chunk := range chunks {
		if i > 0 && e.cooldown > 0 {
			select {
			case <-ctx.Done():
				agg := Aggregate(results)
				agg.ChunksProcessed = len(chunks)
				return agg
			case <-time.After(e.cooldown):
			}
		}

		e.logger.Info("processing chunk", "chunk", i+1, "total", len(chunks), "source", source)
		result := e.Extract(ctx, chunk, source)
		if !result.Success {
			e.logger.Warn("chunk extraction failed, skipping", "chunk", i+1, "error", result.Err)
		}
		results = append(results, result)
	}

	agg := Aggregate(results)
	agg.ChunksProcessed = len(chunks)
	return agg
}

// extractionPayload is the wrapped-object wire shape the prompt asks for.
type extractionPayload struct {
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
}

// parseExtraction recovers a Result from model output. Models wander off
// the requested shape often enough that this tries, in order: the exact
// wrapped object, a repaired version of it, and the largest brace-delimited
// substring repaired and parsed.
func parseExtraction(content string) (*Result, error) {
	cleaned := stripFences(content)
	if cleaned == "" {
		return nil, fmt.Errorf("empty extraction response")
	}

	if r, ok := tryParse(cleaned); ok {
		return r, nil
	}

	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err == nil {
		if r, ok := tryParse(repaired); ok {
			return r, nil
		}
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		window := cleaned[start : end+1]
		if r, ok := tryParse(window); ok {
			return r, nil
		}
		if repaired, err := jsonrepair.JSONRepair(window); err == nil {
			if r, ok := tryParse(repaired); ok {
				return r, nil
			}
		}
	}

	return nil, fmt.Errorf("could not parse extraction JSON from response")
}

func tryParse(s string) (*Result, bool) {
	var payload extractionPayload
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return nil, false
	}
	if payload.Entities == nil && payload.Relationships == nil {
		return nil, false
	}
	r := &Result{
		Entities:      payload.Entities,
		Relationships: payload.Relationships,
	}
	if r.Entities == nil {
		r.Entities = []Entity{}
	}
	if r.Relationships == nil {
		r.Relationships = []Relationship{}
	}
	return r, true
}

// stripFences removes markdown code fences around a JSON body.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
