// Package watcher reports changes to a graph file so it can be re-imported.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce collapses the burst of events an editor save produces
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a file for changes
type Watcher struct {
	path     string
	onChange func(path string)
	debounce time.Duration
	log      zerolog.Logger

	fs *fsnotify.Watcher
}

// New creates a new file watcher
func New(path string, onChange func(path string), log zerolog.Logger) *Watcher {
	return &Watcher{
		path:     path,
		onChange: onChange,
		debounce: DefaultDebounce,
		log:      log,
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Watch blocks until ctx is cancelled, calling onChange once per burst of
// writes to the file. onChange never runs concurrently with itself.
func (w *Watcher) Watch(ctx context.Context) error {
	if err := w.open(); err != nil {
		return err
	}
	return w.loop(ctx)
}

// open watches the parent directory, so files replaced by a rename still fire
func (w *Watcher) open() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return err
	}
	w.fs = fw
	w.log.Info().Str("path", w.path).Msg("Watching for changes")
	return nil
}

func (w *Watcher) loop(ctx context.Context) error {
	defer w.fs.Close()

	name := filepath.Base(w.path)
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	fire := func() {
		mu.Lock()
		defer mu.Unlock()
		w.log.Debug().Str("path", w.path).Msg("File changed")
		w.onChange(w.path)
	}

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, fire)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("Watcher error")

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		}
	}
}
