package feed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Items []Item `yaml:"items"`
}

// ParseCatalog decodes a YAML catalog of the form `items: [...]`.
func ParseCatalog(data []byte) ([]Item, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse feed catalog: %w", err)
	}
	seen := make(map[string]bool, len(f.Items))
	for i, it := range f.Items {
		if it.ID == "" {
			return nil, fmt.Errorf("%w: catalog item %d has no id", ErrInvalid, i)
		}
		if seen[it.ID] {
			return nil, fmt.Errorf("%w: duplicate catalog id %q", ErrInvalid, it.ID)
		}
		seen[it.ID] = true
		if it.Type == "" {
			f.Items[i].Type = TypeArticle
		} else if !it.Type.Valid() {
			return nil, fmt.Errorf("%w: catalog item %q has unknown type %q", ErrInvalid, it.ID, it.Type)
		}
	}
	return f.Items, nil
}

// LoadCatalog reads and parses a catalog file.
func LoadCatalog(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed catalog: %w", err)
	}
	return ParseCatalog(data)
}

// Watcher reloads the catalog into a Store whenever the file changes.
type Watcher struct {
	path    string
	store   *Store
	logger  *zap.Logger
	watcher *fsnotify.Watcher
	stop    chan struct{}
	done    chan struct{}
	started atomic.Bool
}

// NewWatcher watches the directory holding path, so editors that replace the
// file on save are still noticed.
func NewWatcher(path string, store *Store, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}
	return &Watcher{
		path:    filepath.Clean(path),
		store:   store,
		logger:  logger,
		watcher: fw,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Start processes file events until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(w.done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case ev, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != w.path {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				w.reload()
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("feed catalog watcher error", zap.Error(err))
			}
		}
	}()
}

func (w *Watcher) reload() {
	// Truncation fires an event before the new content lands.
	if fi, err := os.Stat(w.path); err == nil && fi.Size() == 0 {
		return
	}
	items, err := LoadCatalog(w.path)
	if err != nil {
		// A half-written or removed file keeps the previous catalog.
		if !errors.Is(err, os.ErrNotExist) {
			w.logger.Warn("feed catalog reload failed", zap.String("path", w.path), zap.Error(err))
		}
		return
	}
	w.store.Replace(items)
}

// Stop ends the watch loop and releases the watcher.
func (w *Watcher) Stop() {
	select {
	case <-w.stop:
		return
	default:
		close(w.stop)
	}
	_ = w.watcher.Close()
	if w.started.Load() {
		<-w.done
	}
}
