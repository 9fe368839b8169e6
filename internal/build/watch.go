package build

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

// DefaultDebounce is how long Watch waits for events to settle.
const DefaultDebounce = 100 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	Debounce time.Duration
	// OnBuild receives the report of every rebuild, including ones where
	// all changed files were removed.
	OnBuild func(*Report)
	// Ready, if set, is closed once the watcher is registered.
	Ready chan<- struct{}
}

// Watch rebuilds changed units until ctx is cancelled. Files created or
// written are rebuilt; removed files have their outputs deleted. It does
// not perform an initial build.
func (b *Builder) Watch(ctx context.Context, opts WatchOptions) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := b.watchDirRecursive(watcher, b.opts.SrcDir); err != nil {
		return err
	}
	b.logger.Info("watching", slog.String("dir", b.opts.SrcDir))
	if opts.Ready != nil {
		close(opts.Ready)
	}

	pending := make(map[string]bool)
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := b.watchDirRecursive(watcher, event.Name); err != nil {
						b.logger.Warn("failed to watch new directory", slog.String("path", event.Name), slog.Any("error", err))
					}
					b.enqueueExisting(event.Name, pending)
					timer.Reset(opts.Debounce)
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if _, ok := newUnit(b.opts.SrcDir, event.Name, b.matcher); !ok {
				continue
			}
			pending[event.Name] = true
			timer.Reset(opts.Debounce)

		case <-timer.C:
			report, err := b.flush(ctx, pending)
			pending = make(map[string]bool)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				b.logger.Error("rebuild failed", slog.Any("error", err))
			}
			if report != nil && opts.OnBuild != nil {
				opts.OnBuild(report)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			b.logger.Error("watcher error", slog.Any("error", err))
		}
	}
}

// flush rebuilds the pending paths that still exist and removes the
// outputs of those that do not.
func (b *Builder) flush(ctx context.Context, pending map[string]bool) (*Report, error) {
	paths := make([]string, 0, len(pending))
	for path := range pending {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var units []Unit
	for _, path := range paths {
		unit, ok := newUnit(b.opts.SrcDir, path, b.matcher)
		if !ok {
			continue
		}
		if exists(path) {
			units = append(units, unit)
			continue
		}
		b.logger.Debug("removed", slog.String("file", unit.Rel))
		if err := b.Remove(unit); err != nil {
			return nil, err
		}
	}
	return b.BuildUnits(ctx, units)
}

func (b *Builder) enqueueExisting(dir string, pending map[string]bool) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if _, ok := newUnit(b.opts.SrcDir, path, b.matcher); ok {
			pending[path] = true
		}
		return nil
	})
}

// watchDirRecursive adds dir and its subdirectories, skipping hidden ones
// and the output directory.
func (b *Builder) watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	out, _ := filepath.Abs(b.opts.OutDir)
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if abs, _ := filepath.Abs(path); abs == out {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
