// Package watch turns changes under a repository's git directory into
// debounced refresh signals.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/daveschumaker/gbm/internal/git"
	"github.com/daveschumaker/gbm/internal/log"
)

// DefaultDebounce is the quiet period before a burst of events is reported.
const DefaultDebounce = 600 * time.Millisecond

// topLevelFiles are the files directly inside a git dir that affect branches.
var topLevelFiles = map[string]bool{
	"HEAD":        true,
	"packed-refs": true,
}

// Watcher reports ref, HEAD and stash changes. The index is ignored so that
// gbm's own status queries do not trigger refreshes.
type Watcher struct {
	debounce time.Duration
	fsw      *fsnotify.Watcher
	tops     map[string]bool // git dirs watched for topLevelFiles
	roots    []string        // trees watched recursively
	events   chan struct{}
	done     chan struct{}

	mu    sync.Mutex
	paths map[string]struct{}

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New starts watching loc. A zero debounce uses DefaultDebounce.
func New(loc *git.Location, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		debounce: debounce,
		fsw:      fsw,
		tops:     map[string]bool{loc.GitDir: true, loc.CommonDir: true},
		roots:    []string{filepath.Join(loc.CommonDir, "refs")},
		events:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		paths:    map[string]struct{}{},
	}
	for dir := range w.tops {
		w.addDir(dir)
	}
	for _, root := range w.roots {
		w.addTree(root)
	}

	w.wg.Add(1)
	go w.run()
	log.Debug("watching git dir", "git_dir", loc.GitDir, "common_dir", loc.CommonDir, "dirs", len(w.paths))
	return w, nil
}

// Events delivers one value per debounced burst of changes. Bursts that
// arrive while a previous signal is unread are merged into it.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-w.done:
			timer.Stop()
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				w.maybeWatchNewDir(event.Name)
			}
			if !w.relevant(event.Name) {
				continue
			}
			timer.Reset(w.debounce)
		case <-timer.C:
			w.signal()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Debug("git watcher error", "err", err)
		}
	}
}

func (w *Watcher) signal() {
	select {
	case w.events <- struct{}{}:
	default:
	}
}

// relevant filters out lock files and everything outside refs, HEAD and
// packed-refs.
func (w *Watcher) relevant(path string) bool {
	base := filepath.Base(path)
	if strings.HasSuffix(base, ".lock") {
		return false
	}
	if w.underRoot(path) {
		return true
	}
	return w.tops[filepath.Dir(path)] && topLevelFiles[base]
}

func (w *Watcher) underRoot(path string) bool {
	for _, root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) maybeWatchNewDir(path string) {
	if !w.underRoot(path) {
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	w.addTree(path)
}

func (w *Watcher) addDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.paths[path]; ok {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		log.Debug("git watcher add failed", "path", path, "err", err)
		return
	}
	w.paths[path] = struct{}{}
}

func (w *Watcher) addTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		w.addDir(path)
		return nil
	})
}
