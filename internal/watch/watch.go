// Package watch saves files into their repository whenever they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"vsnap-go/internal/vsnap"
)

// Saver is the subset of vsnap.Service the watcher needs.
type Saver interface {
	Save(cwd string, rawPath string) (*vsnap.SaveResult, error)
}

// ReportFunc is called after every save attempt that was not a same-minute
// duplicate. Exactly one of result and err is non-nil.
type ReportFunc func(path string, result *vsnap.SaveResult, err error)

// Watcher triggers saves for a fixed set of files. Parent directories are
// watched rather than the files themselves, so editors that replace a file
// by renaming over it keep being tracked.
type Watcher struct {
	saver  Saver
	logger vsnap.Logger
	cwd    string
	files  map[string]bool
	fsw    *fsnotify.Watcher
	report ReportFunc
}

// New starts watching paths (resolved against cwd). Events that arrive
// before Run is called are buffered by fsnotify.
func New(saver Saver, logger vsnap.Logger, cwd string, paths []string, report ReportFunc) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, vsnap.ErrMissingFileArgument
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		saver:  saver,
		logger: logger,
		cwd:    cwd,
		files:  make(map[string]bool, len(paths)),
		fsw:    fsw,
		report: report,
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(cwd, p)
		}
		p = filepath.Clean(p)
		w.files[p] = true
		dirs[filepath.Dir(p)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
		logger.Debug("watching directory", "dir", dir)
	}
	return w, nil
}

// Run processes events until ctx is cancelled, then releases the watcher.
// Saves run one at a time on the calling goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	path := filepath.Clean(event.Name)
	if !w.files[path] {
		return
	}

	result, err := w.saver.Save(w.cwd, path)
	if errors.Is(err, vsnap.ErrDuplicateSnapshot) {
		w.logger.Debug("snapshot for this minute exists", "path", path)
		return
	}
	if err != nil {
		w.logger.Warn("save failed", "path", path, "error", err)
	}
	if w.report != nil {
		w.report(path, result, err)
	}
}
