// Package scanner finds trace files below a directory.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kartikeyarokde/go-ecg-graph/internal/core/model"
	"github.com/kartikeyarokde/go-ecg-graph/internal/util"
)

// FileScanner scans files in the specified directory
type FileScanner struct {
	baseDir    string
	extensions map[string]bool
	logger     util.LoggerInterface
}

// NewFileScanner matches files by extension, case-insensitively.
func NewFileScanner(baseDir string, extensions []string, logger util.LoggerInterface) *FileScanner {
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}
	if logger == nil {
		logger = util.NopLogger()
	}
	return &FileScanner{
		baseDir:    baseDir,
		extensions: exts,
		logger:     logger,
	}
}

// Scan walks the directory tree and returns the matching files sorted by
// path. Hidden files and directories are skipped. Unreadable entries below
// the base directory are skipped too, an unreadable base directory is an error.
func (s *FileScanner) Scan() ([]string, error) {
	start := time.Now()
	var files []string
	dirCount := 0
	totalCount := 0

	s.logger.Debugf("Start scanning directory: %s", s.baseDir)

	err := filepath.Walk(s.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == s.baseDir {
				return err
			}
			s.logger.Debugf("Skip file (error): %s - %v", path, err)
			return nil
		}

		if path != s.baseDir && strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			dirCount++
			return nil
		}

		totalCount++
		if s.extensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scan %s: %w", model.ErrInvalidInput, s.baseDir, err)
	}

	sort.Strings(files)
	s.logger.Debugf("File scan completed: duration %v, scanned %d directories, %d files, found %d trace files",
		time.Since(start), dirCount, totalCount, len(files))

	return files, nil
}

// OutputName derives a unique output name for path relative to the base
// directory: "a/b/ecg.txt" becomes "a_b_ecg".
func (s *FileScanner) OutputName(path string) string {
	rel, err := filepath.Rel(s.baseDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return strings.ReplaceAll(rel, string(filepath.Separator), "_")
}
