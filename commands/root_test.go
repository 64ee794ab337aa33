package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kartikeyarokde/go-ecg-graph/internal/config"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/model"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default between command runs.
func resetFlags(t *testing.T) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			require.NoError(t, sv.Replace(nil))
		} else {
			require.NoError(t, f.Value.Set(f.DefValue))
		}
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	rootCmd.Flags().VisitAll(reset)
	watchCmd.Flags().VisitAll(reset)
}

type runFixture struct {
	input  string
	outDir string
	base   []string
}

func newRunFixture(t *testing.T, samples int) *runFixture {
	t.Helper()
	resetFlags(t)

	dir := t.TempDir()
	parts := make([]string, samples)
	for i := range parts {
		parts[i] = fmt.Sprintf("%.2f", float64(i%50)/50)
	}
	input := filepath.Join(dir, "ecg.txt")
	require.NoError(t, os.WriteFile(input, []byte("["+strings.Join(parts, ",")+"]"), 0644))

	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(outDir, 0755))

	return &runFixture{
		input:  input,
		outDir: outDir,
		base: []string{
			"--config", filepath.Join(dir, "absent.yaml"),
			"--log-file", filepath.Join(dir, "logs", "app.log"),
			"--rasterizer", "native",
			"--scale", "1",
			"-o", outDir,
		},
	}
}

func (f *runFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append(append(append([]string{}, f.base...), args...), f.input))
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	err := Execute()
	return out.String(), err
}

func TestRootGeneratesPDF(t *testing.T) {
	f := newRunFixture(t, 2000)

	out, err := f.run(t, "--format", "json", "--meta", "Patient=Jane Doe")
	require.NoError(t, err)

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &meta))
	assert.Equal(t, 8.0, meta["record_time"])
	assert.Equal(t, 2000.0, meta["signals_num"])
	assert.Equal(t, 1.0, meta["page_count"])
	assert.Equal(t, filepath.Join(f.outDir, "graph.pdf"), meta["output"])
	display := meta["display_information"].(map[string]interface{})
	assert.Equal(t, "Jane Doe", display["Patient"])

	data, err := os.ReadFile(filepath.Join(f.outDir, "graph.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestRootUnsupportedExport(t *testing.T) {
	f := newRunFixture(t, 2000)

	_, err := f.run(t, "-e", "svg")
	assert.True(t, errors.Is(err, model.ErrUnsupportedExport), "got %v", err)

	entries, err := os.ReadDir(f.outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRootInvalidLiteral(t *testing.T) {
	f := newRunFixture(t, 10)
	require.NoError(t, os.WriteFile(f.input, []byte("[1, 2,, 3]"), 0644))

	_, err := f.run(t)
	assert.True(t, errors.Is(err, model.ErrInvalidInput), "got %v", err)
}

func TestRootFlagsOverrideConfigFile(t *testing.T) {
	f := newRunFixture(t, 2000)
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
output:
  name: fromfile
  export: png
  format: json
recording:
  strips_per_page: 2
`), 0644))

	out, err := f.run(t, "--config", configFile, "-n", "fromflag")
	require.NoError(t, err)

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &meta))
	// 2125 samples fill two strips, exactly one page of two
	assert.Equal(t, 2.0, meta["strip_count"])
	assert.Equal(t, 1.0, meta["page_count"])
	assert.Equal(t, filepath.Join(f.outDir, "fromflag.png"), meta["output"])
	assert.FileExists(t, filepath.Join(f.outDir, "fromflag.png"))
	assert.NoFileExists(t, filepath.Join(f.outDir, "fromfile.png"))
}

func TestRootBadMeta(t *testing.T) {
	f := newRunFixture(t, 10)

	_, err := f.run(t, "--meta", "no-separator")
	assert.True(t, errors.Is(err, model.ErrInvalidInput), "got %v", err)
}

func TestParseMeta(t *testing.T) {
	tests := []struct {
		name     string
		pairs    []string
		expected map[string]string
		wantErr  bool
	}{
		{name: "empty", pairs: nil, expected: map[string]string{}},
		{name: "simple", pairs: []string{"Patient=Jane"}, expected: map[string]string{"Patient": "Jane"}},
		{name: "value_with_equals", pairs: []string{"Note=a=b"}, expected: map[string]string{"Note": "a=b"}},
		{name: "trimmed", pairs: []string{" Ward = 4B "}, expected: map[string]string{"Ward": "4B"}},
		{name: "empty_value", pairs: []string{"Note="}, expected: map[string]string{"Note": ""}},
		{name: "last_wins", pairs: []string{"A=1", "A=2"}, expected: map[string]string{"A": "2"}},
		{name: "missing_separator", pairs: []string{"Patient"}, wantErr: true},
		{name: "empty_label", pairs: []string{"=x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := parseMeta(tt.pairs)
			if tt.wantErr {
				assert.True(t, errors.Is(err, model.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, meta)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	relative, err := filepath.Abs("relative/path")
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "home directory expansion", input: "~/test/path", expected: filepath.Join(home, "test/path")},
		{name: "absolute path unchanged", input: "/absolute/path", expected: "/absolute/path"},
		{name: "relative path converted to absolute", input: "relative/path", expected: relative},
		{name: "empty stays empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandPath(tt.input))
		})
	}
}

func TestEnsureDir(t *testing.T) {
	testDir := filepath.Join(t.TempDir(), "test", "nested", "dir")

	require.NoError(t, ensureDir(testDir))
	info, err := os.Stat(testDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Test idempotency
	assert.NoError(t, ensureDir(testDir))
}

func TestNewLoggerCreatesLogDirectory(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.File = filepath.Join(t.TempDir(), "nested", "app.log")

	logger, err := newLogger(cfg)
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(cfg.Logging.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
