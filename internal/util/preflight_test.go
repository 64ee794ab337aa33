package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckWritableDir(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, CheckWritableDir(dir))

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	assert.Error(t, CheckWritableDir(file))

	assert.Error(t, CheckWritableDir(filepath.Join(dir, "missing")))
}

func TestCheckReadableFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "trace.txt")
	require.NoError(t, os.WriteFile(file, []byte("[]"), 0644))

	assert.NoError(t, CheckReadableFile(file))
	assert.Error(t, CheckReadableFile(dir))
	assert.Error(t, CheckReadableFile(filepath.Join(dir, "missing")))
}

func TestPadAndTruncate(t *testing.T) {
	assert.Equal(t, "ab   ", PadString("ab", 5, true))
	assert.Equal(t, "   ab", PadString("ab", 5, false))
	assert.Equal(t, "abcdef", PadString("abcdef", 3, true))
	assert.Equal(t, 4, GetDisplayWidth("心电"))
	assert.Equal(t, "abc...", TruncateString("abcdefghij", 6))
}

func TestMoveFileReplacesDestination(t *testing.T) {
	src := filepath.Join(t.TempDir(), "graph.pdf")
	dst := filepath.Join(t.TempDir(), "graph.pdf")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0644))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0644))

	require.NoError(t, MoveFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	assert.NoFileExists(t, src)
}

func TestMoveFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := MoveFile(filepath.Join(dir, "absent.pdf"), filepath.Join(dir, "graph.pdf"))
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "graph.pdf"))
}
