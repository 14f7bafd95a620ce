package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"hotkeyd/internal/logging"
)

// reloadDebounce coalesces the burst of events editors emit per save.
const reloadDebounce = 200 * time.Millisecond

// ReloadFunc is called after the watched config file settles.
type ReloadFunc func()

// Watcher watches the config file and fires a debounced reload callback.
// The parent directory is watched rather than the file itself so that
// replace-by-rename saves keep working.
type Watcher struct {
	path   string
	fsw    *fsnotify.Watcher
	reload ReloadFunc
	log    *logging.Logger

	mu    sync.Mutex
	timer *time.Timer

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher starts watching the config file at path.
func NewWatcher(path string, reload ReloadFunc, log *logging.Logger) (*Watcher, error) {
	if log == nil {
		log = logging.Null
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:   abs,
		fsw:    fsw,
		reload: reload,
		log:    log.WithComponent("watcher"),
		done:   make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.log.Debug("config file %s: %s", ev.Name, ev.Op)
			w.schedule()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error: %v", err)
		}
	}
}

// schedule arms or re-arms the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(reloadDebounce, func() {
		select {
		case <-w.done:
			return
		default:
		}
		w.log.Info("config changed, reloading")
		w.reload()
	})
}

// Close stops the watcher. Pending debounced reloads are dropped.
func (w *Watcher) Close() error {
	close(w.done)

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}
