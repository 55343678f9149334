package profile

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher reloads a profile file whenever it changes on disk and hands the
// freshly prepared entries to onChange. Invalid rewrites are logged and skipped,
// so the last good list stays in effect.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func([]FleetEntry)
	debounce time.Duration
}

// NewWatcher watches the directory holding path, since editors often replace
// files by rename rather than writing in place.
func NewWatcher(path string, onChange func([]FleetEntry)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating profile watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watching %s: %w", path, err)
	}
	return &Watcher{
		path:     filepath.Clean(path),
		watcher:  fw,
		onChange: onChange,
		debounce: defaultDebounce,
	}, nil
}

// Run processes events until ctx is cancelled. It always returns nil on
// cancellation and closes the underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Debounce rapid saves
			pending = time.After(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logrus.Warnf("Profile watcher error: %v", err)
		case <-pending:
			pending = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	profiles, err := LoadProfiles(w.path)
	if err != nil {
		logrus.Warnf("Ignoring profile change: %v", err)
		return
	}
	entries := Prepare(profiles)
	logrus.Infof("Reloaded %d personas from %s", len(entries), w.path)
	w.onChange(entries)
}
