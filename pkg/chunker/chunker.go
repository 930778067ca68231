// Package chunker splits document text into overlapping fixed-size
// windows, the unit of input to the extraction model.
package chunker

import "fmt"

// Default window geometry, matching the ingestion defaults.
const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// Config controls the chunking behaviour.
type Config struct {
	Size    int // Characters per chunk.
	Overlap int // Characters shared between consecutive chunks.
}

// Chunker produces overlapping windows over raw text. It is stateless
// and safe for concurrent use.
type Chunker struct {
	cfg Config
}

// New returns a Chunker with the given configuration. Zero-value fields
// are replaced with defaults. Overlap must be strictly smaller than
// Size: equal or larger overlap would stall the window advance, so it
// is rejected rather than left as undefined behaviour.
func New(cfg Config) (*Chunker, error) {
	if cfg.Size == 0 {
		cfg.Size = DefaultSize
	}
	if cfg.Overlap == 0 && cfg.Size > DefaultOverlap {
		cfg.Overlap = DefaultOverlap
	}
	if cfg.Size < 0 || cfg.Overlap < 0 {
		return nil, fmt.Errorf("chunker: size and overlap must be non-negative (size=%d overlap=%d)", cfg.Size, cfg.Overlap)
	}
	if cfg.Overlap >= cfg.Size {
		return nil, fmt.Errorf("chunker: overlap %d must be smaller than size %d", cfg.Overlap, cfg.Size)
	}
	return &Chunker{cfg: cfg}, nil
}

// Split returns sequential windows starting at offsets
// 0, size-overlap, 2*(size-overlap), ... each of length size; the last
// window may be shorter. Offsets count runes, not bytes, so multibyte
// text never gets cut mid-rune at a window edge. Text no longer than
// one window yields a single chunk; empty text yields none. Split is a
// pure function of its input.
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	size, step := c.cfg.Size, c.cfg.Size-c.cfg.Overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// Size reports the configured window size.
func (c *Chunker) Size() int { return c.cfg.Size }

// Overlap reports the configured window overlap.
func (c *Chunker) Overlap() int { return c.cfg.Overlap }
