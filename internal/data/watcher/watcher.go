// Package watcher reports content changes of a single input file.
package watcher

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kartikeyarokde/go-ecg-graph/internal/util"
)

// DefaultDebounce coalesces the burst of events one save produces.
const DefaultDebounce = 300 * time.Millisecond

// Change is one new version of the watched file.
type Change struct {
	Path      string
	Operation string
	State     *util.FileState
}

// FileWatcher watches the directory of a file so that editors replacing
// the file by rename are seen too.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	logger   util.LoggerInterface

	last    *util.FileState
	changes chan Change
	done    chan struct{}
	once    sync.Once
}

// NewFileWatcher starts watching path. Changes that leave the content
// identical to the last seen version are dropped.
func NewFileWatcher(path string, debounce time.Duration, logger util.LoggerInterface) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = util.NopLogger()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	fw := &FileWatcher{
		watcher:  watcher,
		path:     abs,
		debounce: debounce,
		logger:   logger,
		changes:  make(chan Change, 1),
		done:     make(chan struct{}),
	}
	// a missing file is fine, its creation is the first change
	fw.last, _ = util.StatFile(abs)

	go fw.processEvents()

	return fw, nil
}

func (fw *FileWatcher) processEvents() {
	defer close(fw.changes)

	var timer *time.Timer
	var fire <-chan time.Time
	var op string

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			op = event.Op.String()
			if timer == nil {
				timer = time.NewTimer(fw.debounce)
			} else {
				timer.Reset(fw.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			fw.emit(op)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("File monitoring error", util.F("error", err.Error()))

		case <-fw.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (fw *FileWatcher) emit(op string) {
	state, err := util.StatFile(fw.path)
	if err != nil {
		// renamed away, the next create brings it back
		fw.logger.Debug("Watched file not readable", util.F("path", fw.path), util.F("error", err.Error()))
		return
	}
	if state.SameContent(fw.last) {
		fw.logger.Debug("Watched file unchanged", util.F("path", fw.path))
		return
	}
	fw.last = state

	select {
	case fw.changes <- Change{Path: fw.path, Operation: op, State: state}:
	case <-fw.done:
	}
}

// Path returns the absolute path being watched.
func (fw *FileWatcher) Path() string {
	return fw.path
}

// Changes delivers one value per content change. It is closed by Close.
func (fw *FileWatcher) Changes() <-chan Change {
	return fw.changes
}

// Close stops watching.
func (fw *FileWatcher) Close() error {
	var err error
	fw.once.Do(func() {
		close(fw.done)
		err = fw.watcher.Close()
	})
	return err
}
