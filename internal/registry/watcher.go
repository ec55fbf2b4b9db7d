package registry

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces the burst of fsnotify events editors and atomic
// writers emit for a single save into one reload.
const debounceWindow = 250 * time.Millisecond

// Watch reloads the registry whenever its file changes on disk. It blocks
// until the context is canceled. A reload that fails to parse or validate
// keeps the previous snapshot in effect and is logged, never fatal.
func (r *Registry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory, not the file: atomic saves (rename-over) replace
	// the inode and would silently detach a file-level watch.
	dir := filepath.Dir(r.path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	target := filepath.Clean(r.path)
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			slog.Info("registry watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(debounceWindow)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if err := r.Reload(); err != nil {
				slog.Error("registry reload failed, keeping previous snapshot", "path", r.path, "error", err)
				continue
			}
			slog.Info("registry reloaded", "path", r.path, "forms", len(r.FormKeys()))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("registry watcher error", "error", err)
		}
	}
}
