package index

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/chrono/chronology"
	"github.com/teranos/chrono/errors"
	"github.com/teranos/chrono/logger"
)

// DefaultDebounce is how long a file must be quiet before it is reindexed.
const DefaultDebounce = 500 * time.Millisecond

// IndexedCallback is called after every reindex attempt. n is the number of
// records written; a removed file reports n == 0.
type IndexedCallback func(path string, n int, err error)

// Watcher keeps the index in step with chronology files on disk. It watches
// directories rather than files because saves replace files by rename.
type Watcher struct {
	store    *Store
	load     chronology.Options
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.SugaredLogger

	mu        sync.Mutex
	timers    map[string]*time.Timer
	callbacks []IndexedCallback

	closed chan error
}

// NewWatcher creates a watcher that loads changed files with opts (registry,
// comment marker) and writes them into store.
func NewWatcher(store *Store, opts chronology.Options, log *zap.SugaredLogger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}
	if log == nil {
		log = logger.ComponentLogger("index.watch")
	}
	return &Watcher{
		store:    store,
		load:     opts,
		watcher:  fw,
		debounce: DefaultDebounce,
		logger:   log,
		timers:   make(map[string]*time.Timer),
		closed:   make(chan error, 1),
	}, nil
}

// SetDebounce changes the quiet period. Call before Run.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// OnIndexed registers a callback run after each reindex.
func (w *Watcher) OnIndexed(cb IndexedCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Add watches a directory, or the directory holding a file.
func (w *Watcher) Add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.WrapPersistence(err, "watch %s", path)
	}
	dir := path
	if !info.IsDir() {
		dir = filepath.Dir(path)
	}
	if err := w.watcher.Add(dir); err != nil {
		return errors.Wrapf(err, "watch %s", dir)
	}
	w.logger.Infow("Watching for chronology changes", logger.FieldPath, dir)
	return nil
}

// Run processes file events until ctx is cancelled, then stops the watcher.
// It returns an ErrDatabaseClosed error if the index database goes away.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-w.closed:
			w.logger.Warnw("Index database closed, stopping watcher", logger.FieldError, err)
			return err

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !isChronologyFile(event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				w.logger.Debugw("Chronology file changed", logger.FieldPath, event.Name, "op", event.Op.String())
				w.schedule(ctx, event.Name)
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				w.schedule(ctx, event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("Watcher error", logger.FieldError, err)
		}
	}
}

// schedule debounces bursts of events per file.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.reindex(ctx, path)
	})
}

// reindex loads path and rewrites its rows, or drops them when the file is
// gone.
func (w *Watcher) reindex(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	var (
		n   int
		err error
	)
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		err = w.store.Remove(ctx, path)
		if err == nil {
			w.logger.Infow("Chronology file removed from index", logger.FieldPath, path)
		}
	} else {
		var c *chronology.Chronology
		c, err = chronology.Load(path, w.load)
		if err == nil {
			n, err = w.store.Reindex(ctx, c)
		}
	}
	if err != nil {
		w.logger.Errorw("Reindex failed", logger.FieldPath, path, logger.FieldError, err)
		if errors.Is(err, ErrDatabaseClosed) {
			select {
			case w.closed <- err:
			default:
			}
		}
	}

	w.mu.Lock()
	callbacks := make([]IndexedCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()
	for _, cb := range callbacks {
		cb(path, n, err)
	}
}

func (w *Watcher) stop() {
	w.mu.Lock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()
	if err := w.watcher.Close(); err != nil {
		w.logger.Warnw("Closing watcher", logger.FieldError, err)
	}
}

var backupSuffix = regexp.MustCompile(`\.back\d+$`)

// isChronologyFile skips backups and the temporary files written by Save.
func isChronologyFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || backupSuffix.MatchString(base) {
		return false
	}
	return strings.HasSuffix(base, chronology.FileExtension)
}
