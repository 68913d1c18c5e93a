package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"code.openwager.io/openwager/logging"
)

const namedLogger = "cfgwatcher"

// Watcher watches the configuration file and fans updates out to registered
// listeners.
type Watcher struct {
	log  *logging.Logger
	path string

	mu        sync.Mutex
	cfg       Config
	listeners []func(Config)
}

// NewWatcher loads the configuration under rootPath and starts watching it
// for changes until ctx is done.
func NewWatcher(ctx context.Context, log *logging.Logger, rootPath string) (*Watcher, error) {
	log = log.Named(namedLogger)
	// configuration changes are always worth reporting
	log.SetLevel(logging.DebugLevel)

	w := &Watcher{
		log:  log,
		path: filepath.Join(rootPath, configFileName),
	}
	cfg, err := Read(rootPath)
	if err != nil {
		return nil, err
	}
	w.cfg = *cfg

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(w.path); err != nil {
		return nil, err
	}

	w.log.Info("config watcher started successfully",
		logging.String("config", w.path))

	go w.watch(ctx, watcher)
	return w, nil
}

// Get returns the last loaded configuration.
func (w *Watcher) Get() Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

// OnConfigUpdate registers functions called after each successful reload.
func (w *Watcher) OnConfigUpdate(fns ...func(Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fns...)
}

func (w *Watcher) reload() {
	cfg, err := Read(filepath.Dir(w.path))
	if err != nil {
		w.log.Error("unable to reload configuration", logging.Error(err))
		return
	}
	w.mu.Lock()
	w.cfg = *cfg
	listeners := make([]func(Config), len(w.listeners))
	copy(listeners, w.listeners)
	w.mu.Unlock()

	for _, f := range listeners {
		f(*cfg)
	}
}

func (w *Watcher) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()
	for {
		select {
		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Rename != 0 {
				// editors that rename a temp file over the config need a
				// moment before the new file is readable
				time.Sleep(50 * time.Millisecond)
			}
			w.log.Info("configuration updated", logging.String("event", event.Name))
			w.reload()
		case err := <-watcher.Errors:
			w.log.Error("config watcher received error event", logging.Error(err))
		case <-ctx.Done():
			return
		}
	}
}
