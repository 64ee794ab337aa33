// Package workspace holds the intermediate artifacts of one generation run
// in a private temporary directory.
package workspace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
)

const dirPrefix = "ecg-graph-"

// Workspace is a scoped temporary directory. Close removes it with
// everything written into it.
type Workspace struct {
	dir    string
	runID  string
	mu     sync.Mutex
	files  map[string]string
	closed bool
}

// New creates a workspace under parent, or under the system temp dir when
// parent is empty. An empty runID gets a fresh uuid.
func New(parent, runID string) (*Workspace, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	dir, err := os.MkdirTemp(parent, dirPrefix+runID+"-")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	return &Workspace{
		dir:   dir,
		runID: runID,
		files: make(map[string]string),
	}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// RunID returns the id the workspace was created for.
func (w *Workspace) RunID() string {
	return w.runID
}

// Path returns the absolute path of name inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, filepath.Base(name))
}

// Mkdir creates the subdirectory name and returns its path.
func (w *Workspace) Mkdir(name string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return "", fmt.Errorf("workspace %s is closed", w.dir)
	}
	path := w.Path(name)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}
	return path, nil
}

// WriteFile stores data under name and returns its path.
func (w *Workspace) WriteFile(name string, data []byte) (string, error) {
	return w.Write(name, func(out io.Writer) error {
		_, err := out.Write(data)
		return err
	})
}

// Write creates name and lets fn fill it.
func (w *Workspace) Write(name string, fn func(io.Writer) error) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return "", fmt.Errorf("workspace %s is closed", w.dir)
	}

	path := w.Path(name)
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := fn(file); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", err
	}

	w.files[name] = path
	return path, nil
}

// Files lists the artifacts written so far, sorted by name.
func (w *Workspace) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	names := make([]string, 0, len(w.files))
	for name := range w.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close removes the workspace directory. It is safe to call more than once.
func (w *Workspace) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.files = make(map[string]string)
	return os.RemoveAll(w.dir)
}
