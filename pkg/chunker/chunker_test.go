package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadGeometry(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Size: 100, Overlap: 100})
	assert.Error(t, err)

	_, err = New(Config{Size: 100, Overlap: 150})
	assert.Error(t, err)

	_, err = New(Config{Size: -1, Overlap: 0})
	assert.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	c, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, c.Size())
	assert.Equal(t, DefaultOverlap, c.Overlap())
}

func TestSplitShortText(t *testing.T) {
	t.Parallel()

	c, err := New(Config{Size: 100, Overlap: 20})
	require.NoError(t, err)

	chunks := c.Split("hello world")
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])

	assert.Empty(t, c.Split(""))
}

func TestSplitWindows(t *testing.T) {
	t.Parallel()

	c, err := New(Config{Size: 10, Overlap: 3})
	require.NoError(t, err)

	text := "abcdefghijklmnopqrstuvwxyz"
	chunks := c.Split(text)

	// Offsets advance by size-overlap = 7.
	assert.Equal(t, []string{"abcdefghij", "hijklmnopq", "opqrstuvwx", "vwxyz"}, chunks)

	// Every chunk except the last has full window length.
	for i, ch := range chunks[:len(chunks)-1] {
		assert.Len(t, ch, 10, "chunk %d", i)
	}
}

func TestSplitUnicodeBoundaries(t *testing.T) {
	t.Parallel()

	c, err := New(Config{Size: 10, Overlap: 3})
	require.NoError(t, err)
	step := 7

	// Three-byte runes: any byte-offset window would cut one in half.
	text := strings.Repeat("知識グラフを構築する", 8)
	chunks := c.Split(text)

	for i, ch := range chunks {
		assert.True(t, utf8.ValidString(ch), "chunk %d is not valid UTF-8", i)
	}
	for i, ch := range chunks[:len(chunks)-1] {
		assert.Equal(t, 10, utf8.RuneCountInString(ch), "chunk %d", i)
	}

	var rebuilt []rune
	for i, ch := range chunks {
		runes := []rune(ch)
		if i == 0 {
			rebuilt = append(rebuilt, runes...)
			continue
		}
		covered := len(rebuilt) - i*step
		rebuilt = append(rebuilt, runes[covered:]...)
	}
	assert.Equal(t, text, string(rebuilt))
}

func TestSplitCoverage(t *testing.T) {
	t.Parallel()

	texts := []string{
		"a",
		strings.Repeat("x", 999),
		strings.Repeat("x", 1000),
		strings.Repeat("x", 1001),
		strings.Repeat("word ", 500),
	}
	geometries := []Config{
		{Size: 1000, Overlap: 200},
		{Size: 50, Overlap: 10},
		{Size: 7, Overlap: 1},
	}

	for _, cfg := range geometries {
		c, err := New(cfg)
		require.NoError(t, err)
		step := cfg.Size - cfg.Overlap

		for _, text := range texts {
			chunks := c.Split(text)

			// Reassembling chunk[0] plus the non-overlapping tail of each
			// subsequent chunk must reproduce the original text exactly.
			var rebuilt strings.Builder
			for i, ch := range chunks {
				if i == 0 {
					rebuilt.WriteString(ch)
					continue
				}
				start := i * step
				covered := rebuilt.Len() - start
				rebuilt.WriteString(ch[covered:])
			}
			assert.Equal(t, text, rebuilt.String(), "size=%d overlap=%d len=%d", cfg.Size, cfg.Overlap, len(text))

			// Chunk count matches ceil((len-overlap)/(size-overlap)) for
			// texts longer than one window, and is exactly 1 otherwise.
			want := 1
			if len(text) > cfg.Size {
				want = (len(text) - cfg.Overlap + step - 1) / step
			}
			assert.Len(t, chunks, want, "size=%d overlap=%d len=%d", cfg.Size, cfg.Overlap, len(text))
		}
	}
}
