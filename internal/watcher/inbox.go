package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// Suffixes appended to inbox files once handled.
const (
	ImportedSuffix = ".imported"
	FailedSuffix   = ".failed"
)

// ImportFunc imports one package file.
type ImportFunc func(ctx context.Context, path string) error

// Inbox imports sync packages dropped into a directory. Handled files are
// renamed with ImportedSuffix or FailedSuffix so they are never read twice.
type Inbox struct {
	dir     string
	watcher *Watcher
	importF ImportFunc
	logger  *slog.Logger
}

// NewInbox watches dir for files matching PackagePattern.
func NewInbox(dir string, importF ImportFunc, logger *slog.Logger, opts Options) (*Inbox, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create inbox: %w", err)
	}
	if len(opts.Patterns) == 0 {
		opts.Patterns = []string{PackagePattern}
	}
	w, err := New(logger, opts)
	if err != nil {
		return nil, err
	}
	if err := w.Watch(dir); err != nil {
		_ = w.Stop()
		return nil, err
	}
	return &Inbox{dir: dir, watcher: w, importF: importF, logger: logger}, nil
}

// Dir returns the watched directory.
func (in *Inbox) Dir() string { return in.dir }

// Run imports packages already waiting, then follows new ones until ctx is
// cancelled.
func (in *Inbox) Run(ctx context.Context) error {
	if err := in.drain(ctx); err != nil {
		in.logger.Warn("inbox scan failed", "path", in.dir, "error", err)
	}

	go in.watcher.Start(ctx) //nolint:errcheck // Start only returns nil

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-in.watcher.Events():
			if !ok {
				return nil
			}
			if ev.Type == EventAdded {
				in.process(ctx, ev.Path)
			}
		}
	}
}

// Close stops the underlying watcher.
func (in *Inbox) Close() error {
	return in.watcher.Stop()
}

func (in *Inbox) drain(ctx context.Context) error {
	matches, err := filepath.Glob(filepath.Join(in.dir, PackagePattern))
	if err != nil {
		return err
	}
	sort.Strings(matches)
	for _, path := range matches {
		if ctx.Err() != nil {
			return nil
		}
		in.process(ctx, path)
	}
	return nil
}

func (in *Inbox) process(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}

	suffix := ImportedSuffix
	if err := in.importF(ctx, path); err != nil {
		in.logger.Error("sync package import failed", "path", path, "error", err)
		suffix = FailedSuffix
	}
	if err := os.Rename(path, path+suffix); err != nil {
		in.logger.Warn("failed to mark sync package", "path", path, "error", err)
	}
}
