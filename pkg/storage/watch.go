package storage

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reports PDF changes under the source root. Bursts of events are
// coalesced: one signal is sent after debounce of quiet. Newly created
// directories are watched as they appear. The channel closes when ctx ends.
func (s *LocalSource) Watch(ctx context.Context, debounce time.Duration, logger *slog.Logger) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := s.addDirs(w, s.basePath); err != nil {
		_ = w.Close()
		return nil, err
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer w.Close()

		// Timers never deliver stale values after Stop or Reset.
		timer := time.NewTimer(debounce)
		timer.Stop()

		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return

			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op&fsnotify.Create != 0 {
					if err := s.addDirs(w, e.Name); err != nil {
						logger.Warn("failed to watch new directory",
							slog.String("path", e.Name),
							slog.Any("error", err),
						)
					}
				}
				if !IsPDFName(e.Name) || e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				timer.Reset(debounce)

			case <-timer.C:
				select {
				case changes <- struct{}{}:
				default:
				}

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("import directory watcher error", slog.Any("error", err))
			}
		}
	}()

	logger.Info("watching import directory", slog.String("dir", s.basePath))
	return changes, nil
}

// addDirs watches root and every visible directory below it. Paths that are
// not directories are ignored.
func (s *LocalSource) addDirs(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != s.basePath && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
