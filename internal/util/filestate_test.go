package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.txt")
	require.NoError(t, os.WriteFile(path, []byte("[1, 2, 3]"), 0644))

	state, err := StatFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(9), state.Size)
	assert.NotZero(t, state.Inode)
	assert.Len(t, state.Fingerprint, 8)
}

func TestStatFileMissing(t *testing.T) {
	_, err := StatFile(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestFileStateSameContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.txt")

	require.NoError(t, os.WriteFile(path, []byte("[1, 2, 3]"), 0644))
	before, err := StatFile(path)
	require.NoError(t, err)

	// Atomic rewrite with identical bytes
	tmp := filepath.Join(dir, "trace.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("[1, 2, 3]"), 0644))
	require.NoError(t, os.Rename(tmp, path))
	same, err := StatFile(path)
	require.NoError(t, err)
	assert.True(t, before.SameContent(same))

	require.NoError(t, os.WriteFile(path, []byte("[1, 2, 4]"), 0644))
	changed, err := StatFile(path)
	require.NoError(t, err)
	assert.False(t, before.SameContent(changed))

	assert.False(t, before.SameContent(nil))
}

func TestCalculateFileFingerprintCoversWholeFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	tail := strings.Repeat("x", 4096)
	require.NoError(t, os.WriteFile(a, []byte("head-one"+tail), 0644))
	require.NoError(t, os.WriteFile(b, []byte("head-two"+tail), 0644))

	fa, err := CalculateFileFingerprint(a)
	require.NoError(t, err)
	fb, err := CalculateFileFingerprint(b)
	require.NoError(t, err)
	assert.NotEqual(t, fa, fb)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	fe, err := CalculateFileFingerprint(empty)
	require.NoError(t, err)
	assert.Equal(t, "00000000", fe)
}

func TestFileStateSameContentSeesHeadEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.txt")
	values := make([]string, 2000)
	for i := range values {
		values[i] = "0.1"
	}
	require.NoError(t, os.WriteFile(path, []byte("["+strings.Join(values, ", ")+"]"), 0644))
	before, err := StatFile(path)
	require.NoError(t, err)

	values[0] = "0.9"
	require.NoError(t, os.WriteFile(path, []byte("["+strings.Join(values, ", ")+"]"), 0644))
	after, err := StatFile(path)
	require.NoError(t, err)

	assert.Equal(t, before.Size, after.Size)
	assert.False(t, before.SameContent(after))
}
