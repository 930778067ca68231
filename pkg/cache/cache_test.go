package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachePutGet(t *testing.T) {
	c, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	_, ok := c.Get("missing")
	assert.False(t, ok)

	require.NoError(t, c.Put("k", []byte("v")))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	// Overwrite.
	require.NoError(t, c.Put("k", []byte("v2")))
	got, ok = c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), got)
}

func TestCachePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	c, err := Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, c.Put("k", []byte("v")))
	require.NoError(t, c.Close())

	reopened, err := Open(dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	got, ok := reopened.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}
