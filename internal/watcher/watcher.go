// Package watcher re-runs a callback whenever files under a root change.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period that ends a burst of changes.
const DefaultDebounce = 500 * time.Millisecond

// RunFunc is called once per burst of changes with the root-relative,
// slash-separated paths that changed, sorted.
type RunFunc func(ctx context.Context, changed []string)

// Options tunes Watch.
type Options struct {
	Debounce time.Duration
	// IgnoreDirs are absolute directories whose events are dropped, such as
	// the report directory.
	IgnoreDirs []string
}

// Watch starts an fsnotify watcher on root and calls run after every burst
// of relevant changes until ctx is cancelled. New directories created at
// runtime are added to the watch list.
func Watch(ctx context.Context, root string, logger *slog.Logger, opts Options, run RunFunc) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	f := filter{root: root}
	for _, d := range opts.IgnoreDirs {
		if abs, absErr := filepath.Abs(d); absErr == nil {
			f.ignoreDirs = append(f.ignoreDirs, abs)
		}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root, f); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root), slog.Duration("debounce", opts.Debounce))

	var timer *time.Timer
	var fire <-chan time.Time
	pending := map[string]struct{}{}

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(opts.Debounce)
			fire = timer.C
		} else {
			timer.Reset(opts.Debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)
			logger.Debug("watcher: change burst", slog.Int("paths", len(changed)))
			run(ctx, changed)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if f.ignored(ev.Name) {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name, f); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
				}
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}

			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil {
				continue
			}
			pending[filepath.ToSlash(rel)] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// filter decides which paths never trigger a run.
type filter struct {
	root       string
	ignoreDirs []string
}

func (f filter) ignored(abs string) bool {
	for _, d := range f.ignoreDirs {
		if abs == d || strings.HasPrefix(abs, d+string(filepath.Separator)) {
			return true
		}
	}
	rel, err := filepath.Rel(f.root, abs)
	if err != nil {
		return true
	}
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if seg == ".git" {
			return true
		}
	}
	return isTempFile(filepath.Base(abs))
}

// isTempFile matches atomic-write temp files and common editor swap files.
func isTempFile(name string) bool {
	return strings.HasPrefix(name, ".confcheck-tmp-") ||
		strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") ||
		strings.HasSuffix(name, ".swx") ||
		strings.HasPrefix(name, ".#")
}

// addDirsRecursive adds root and all its non-ignored subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string, f filter) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != f.root && f.ignored(path) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
