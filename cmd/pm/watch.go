package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/drewr95/pm/internal/logger"
)

// settle delays regeneration until a burst of editor writes is over.
const settle = 200 * time.Millisecond

// watchSet tracks the files that trigger regeneration. Directories are
// watched rather than files so editors that save by rename keep working.
type watchSet struct {
	watcher *fsnotify.Watcher
	dirs    map[string]bool
	files   map[string]bool
}

func (w *watchSet) update(paths []string) error {
	w.files = make(map[string]bool)
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		w.files[abs] = true
		dir := filepath.Dir(abs)
		if w.dirs[dir] {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	return nil
}

func (w *watchSet) matches(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	return err == nil && w.files[abs]
}

// watch calls regenerate whenever the project file or one of its model
// documents changes, until ctx is done.
func watch(ctx context.Context, opts *options, regenerate func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	w := &watchSet{watcher: watcher, dirs: make(map[string]bool)}
	if err := w.update(modelPaths(opts)); err != nil {
		return err
	}
	logger.Printf("watching %d files", len(w.files))

	timer := time.NewTimer(settle)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if w.matches(event) {
				timer.Reset(settle)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Printf("watch error: %v", err)
		case <-timer.C:
			logger.Println("change detected, regenerating")
			regenerate()
			if err := w.update(modelPaths(opts)); err != nil {
				logger.Printf("watch error: %v", err)
			}
		}
	}
}
