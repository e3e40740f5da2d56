package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenReadClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob")
	require.NoError(t, os.WriteFile(path, []byte("hello mmap"), 0o600))

	m, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, []byte("hello mmap"), m.Bytes())

	buf := make([]byte, 5)
	n, err := m.ReadAt(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("mmap"), buf[:n])

	require.NoError(t, m.Close())
	// Double close is safe.
	require.NoError(t, m.Close())
}

func TestOpenEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	m, err := Open(path)
	require.NoError(t, err)
	assert.Nil(t, m.Bytes())

	_, err = m.ReadAt(make([]byte, 1), 0)
	assert.Error(t, err)

	require.NoError(t, m.Close())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
