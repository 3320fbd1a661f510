package fsx

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "entries.json")

	require.NoError(t, WriteFile(path, []byte("first")))
	require.NoError(t, WriteFile(path, []byte("second")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mov")
	dst := filepath.Join(dir, "out", "dst.mov")
	payload := bytes.Repeat([]byte{0xAB}, 64*1024)
	require.NoError(t, os.WriteFile(src, payload, 0644))

	require.NoError(t, CopyFile(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestCopyFileMissingSourceLeavesDestination(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst.mov")
	require.NoError(t, os.WriteFile(dst, []byte("keep"), 0644))

	err := CopyFile(filepath.Join(dir, "missing.mov"), dst)
	require.Error(t, err)

	got, _ := os.ReadFile(dst)
	assert.Equal(t, "keep", string(got))
}

func TestWriteFromFailedReaderKeepsDestination(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "entries.json")
	require.NoError(t, os.WriteFile(dst, []byte("keep"), 0644))

	r := io.MultiReader(bytes.NewReader([]byte("partial")), failingReader{})
	require.Error(t, WriteFrom(dst, r))

	got, _ := os.ReadFile(dst)
	assert.Equal(t, "keep", string(got))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk unplugged") }

func TestExistsAndRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.mov")
	empty := filepath.Join(dir, "empty.mov")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(empty, nil, 0644))

	assert.True(t, Exists(path))
	assert.False(t, Exists(empty), "zero-length files do not count")
	assert.False(t, Exists(dir), "directories do not count")

	require.NoError(t, RemoveIfExists(path))
	assert.False(t, Exists(path))
	assert.NoError(t, RemoveIfExists(path), "second removal is a no-op")
	assert.NoError(t, RemoveIfExists(""))
}
