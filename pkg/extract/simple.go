package extract

import (
	"context"
	"regexp"
	"sort"
)

// Heuristic patterns for the fallback extractor.
var (
	orgPattern    = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+(?:Inc|Corp|LLC|Ltd|Company)\b`)
	personPattern = regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Prof)\.\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
	datePattern   = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b|\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}\b`)
)

// SimpleExtractor recognizes a few high-precision surface patterns
// without any model call: organization names by corporate suffix,
// person names by honorific, and dates. It never produces relationships
// and never fails. Used as the fallback when no LLM is configured.
type SimpleExtractor struct{}

// NewSimpleExtractor creates the heuristic fallback extractor.
func NewSimpleExtractor() *SimpleExtractor { return &SimpleExtractor{} }

// Extract implements Extractor.
func (s *SimpleExtractor) Extract(_ context.Context, text, _ string) *Result {
	result := &Result{
		Entities:      []Entity{},
		Relationships: []Relationship{},
		Success:       true,
	}

	for _, org := range uniqueMatches(orgPattern, text) {
		result.Entities = append(result.Entities, Entity{
			Name:        org,
			Type:        "Organization",
			Description: "Organization mentioned in text",
		})
	}
	for _, person := range uniqueMatches(personPattern, text) {
		result.Entities = append(result.Entities, Entity{
			Name:        person,
			Type:        "Person",
			Description: "Person mentioned in text",
		})
	}
	for _, date := range uniqueMatches(datePattern, text) {
		result.Entities = append(result.Entities, Entity{
			Name:        date,
			Type:        "Date",
			Description: "Date mentioned in text",
		})
	}

	return result
}

// ExtractFromChunks implements Extractor.
func (s *SimpleExtractor) ExtractFromChunks(ctx context.Context, chunks []string, source string) *Result {
	results := make([]*Result, 0, len(chunks))
	for _, chunk := range chunks {
		results = append(results, s.Extract(ctx, chunk, source))
	}
	agg := Aggregate(results)
	agg.ChunksProcessed = len(chunks)
	return agg
}

// uniqueMatches returns the distinct matches in stable sorted order so
// repeated runs over the same text yield the same entity list.
func uniqueMatches(re *regexp.Regexp, text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range re.FindAllString(text, -1) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}
