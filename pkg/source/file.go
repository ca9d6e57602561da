package source

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/graphview/pkg/cache"
	"github.com/matzehuels/graphview/pkg/graph"
)

// File reads a graph document from disk and, once Watch runs, publishes
// every saved version. Saves that leave the content unchanged and saves
// that do not parse are skipped (the latter with a warning).
type File struct {
	path   string
	logger *log.Logger

	mu       sync.Mutex
	lastHash string

	changes chan Snapshot[graph.Attrs, graph.Attrs]
	done    chan struct{}
	once    sync.Once
}

// NewFile returns a source for the document at path. A nil logger uses
// log.Default().
func NewFile(path string, logger *log.Logger) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &File{
		path:    abs,
		logger:  logger,
		changes: make(chan Snapshot[graph.Attrs, graph.Attrs], 1),
		done:    make(chan struct{}),
	}, nil
}

// Path returns the absolute document path.
func (f *File) Path() string { return f.path }

// Load implements Source.
func (f *File) Load(ctx context.Context) (Snapshot[graph.Attrs, graph.Attrs], error) {
	snap, hash, err := f.read()
	if err != nil {
		return Snapshot[graph.Attrs, graph.Attrs]{}, err
	}
	f.mu.Lock()
	f.lastHash = hash
	f.mu.Unlock()
	return snap, nil
}

// Changes implements Source.
func (f *File) Changes() <-chan Snapshot[graph.Attrs, graph.Attrs] { return f.changes }

// Watch follows the file until ctx ends or the source is closed, then
// closes the changes channel. The parent directory is watched so editors
// that replace the file on save are handled. Watch must be called at most
// once.
func (f *File) Watch(ctx context.Context) error {
	defer close(f.changes)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-f.done:
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != f.path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			f.reload(ctx)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("watcher error", "err", err)
		}
	}
}

func (f *File) reload(ctx context.Context) {
	snap, hash, err := f.read()
	if err != nil {
		if !os.IsNotExist(err) {
			f.logger.Warn("ignoring unreadable graph", "path", f.path, "err", err)
		}
		return
	}

	f.mu.Lock()
	same := hash == f.lastHash
	f.lastHash = hash
	f.mu.Unlock()
	if same {
		return
	}

	f.logger.Debug("graph changed", "path", f.path, "nodes", len(snap.Nodes), "edges", len(snap.Edges))
	select {
	case f.changes <- snap:
	case <-f.done:
	case <-ctx.Done():
	}
}

func (f *File) read() (Snapshot[graph.Attrs, graph.Attrs], string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return Snapshot[graph.Attrs, graph.Attrs]{}, "", err
	}
	doc, err := graph.ReadDocument(bytes.NewReader(data), graph.FormatFromPath(f.path))
	if err != nil {
		return Snapshot[graph.Attrs, graph.Attrs]{}, "", err
	}
	return SnapshotOf(doc), cache.Hash(data), nil
}

// Close stops a running Watch.
func (f *File) Close() error {
	f.once.Do(func() { close(f.done) })
	return nil
}
