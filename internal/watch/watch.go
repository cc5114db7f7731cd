// Package watch rebuilds a project whenever files in its directory change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/agbgames/cgt/internal/builder"
	"github.com/agbgames/cgt/internal/descriptor"
	"github.com/agbgames/cgt/internal/logging"
	"github.com/agbgames/cgt/internal/packer"
	"github.com/agbgames/cgt/internal/project"
)

// DefaultDebounce is the quiet period after the last change before a build.
const DefaultDebounce = 300 * time.Millisecond

// ignoredNames are directory names that never trigger a build.
var ignoredNames = map[string]bool{
	project.StateDirName: true,
	".git":               true,
	"node_modules":       true,
}

// outputKeys name directories the build writes to. They are re-read after
// every descriptor reload.
var outputKeys = []string{descriptor.KeyOutputDir, descriptor.KeyResourcesOut}

// Builder runs one build.
type Builder interface {
	Build(ctx context.Context) *builder.Result
}

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// Ignore lists directories whose changes are ignored, typically the
	// log and data directories. The descriptor's output directories are
	// always ignored.
	Ignore []string
	// OnBuild receives the result of every build.
	OnBuild func(*builder.Result)
	Logger  *slog.Logger
}

// Watcher rebuilds the project of a descriptor store on change.
type Watcher struct {
	store    *descriptor.Store
	builder  Builder
	root     string
	debounce time.Duration
	static   []string
	ignore   []string
	onBuild  func(*builder.Result)
	log      *slog.Logger
}

// New returns a Watcher for the directory holding store's descriptor.
func New(store *descriptor.Store, b Builder, opts Options) *Watcher {
	w := &Watcher{
		store:    store,
		builder:  b,
		root:     store.Dir(),
		debounce: opts.Debounce,
		onBuild:  opts.OnBuild,
		log:      opts.Logger,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.log == nil {
		w.log = logging.Discard()
	}
	for _, dir := range opts.Ignore {
		if dir == "" {
			continue
		}
		w.static = append(w.static, project.Abs(w.root, dir))
	}
	w.refreshIgnore()
	return w
}

// refreshIgnore recomputes the ignored directories from the current
// descriptor and reports whether they changed.
func (w *Watcher) refreshIgnore() bool {
	ignore := slices.Clone(w.static)
	for _, key := range outputKeys {
		if v := w.store.GetKey(key); v != "" {
			ignore = append(ignore, project.Abs(w.root, v))
		}
	}
	changed := !slices.Equal(ignore, w.ignore)
	w.ignore = ignore
	return changed
}

// Run builds once, then rebuilds after every batch of changes until ctx is
// cancelled. Changes made while a build runs are discarded so files written
// by the build do not trigger another one.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := w.addRecursive(fw, w.root); err != nil {
		return err
	}

	w.rebuild(ctx, fw)
	w.log.Info("Watching for changes", "dir", w.root)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	var changed []string
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.ignored(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(fw, event.Name)
				}
			}
			changed = append(changed, event.Name)
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)

		case <-timer.C:
			if len(changed) == 0 {
				continue
			}
			w.log.Info("Change detected, rebuilding", "files", len(changed), "first", relTo(w.root, changed[0]))
			changed = changed[:0]
			w.rebuild(ctx, fw)
			drain(fw.Events)
		}
	}
}

// rebuild builds and, when the output directories moved, watches the
// directories that are no longer ignored.
func (w *Watcher) rebuild(ctx context.Context, fw *fsnotify.Watcher) {
	if w.build(ctx) {
		if err := w.addRecursive(fw, w.root); err != nil {
			w.log.Warn("cannot watch project", "error", err)
		}
	}
}

// build reloads the descriptor and runs one build. It reports whether the
// ignored directories changed with the reload.
func (w *Watcher) build(ctx context.Context) bool {
	if err := w.store.Refresh(); err != nil {
		w.log.Warn("cannot reload descriptor", "error", err)
	}
	moved := w.refreshIgnore()
	if moved {
		w.log.Debug("ignored directories changed", "dirs", w.ignore)
	}
	res := w.builder.Build(ctx)
	if w.onBuild != nil {
		w.onBuild(res)
	}
	return moved
}

func (w *Watcher) addRecursive(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			w.log.Debug("cannot watch directory", "dir", path, "error", err)
		}
		return nil
	})
}

// ignored reports whether a change to path must not trigger a build.
func (w *Watcher) ignored(path string) bool {
	if strings.HasSuffix(path, packer.ArchiveExtension) {
		return true
	}
	rel, err := filepath.Rel(w.root, path)
	if err == nil {
		for _, part := range strings.Split(rel, string(filepath.Separator)) {
			if ignoredNames[part] {
				return true
			}
		}
	}
	for _, dir := range w.ignore {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func drain(events <-chan fsnotify.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func relTo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return path
}
