// Package watcher polls environment source files and reports when their
// content changes or they disappear.
package watcher

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type EventKind int

const (
	EventChanged EventKind = iota
	EventMissing
)

func (k EventKind) String() string {
	if k == EventMissing {
		return "missing"
	}
	return "changed"
}

// Stamp identifies one observed version of a file.
type Stamp struct {
	Mod  time.Time
	Size int64
	Hash string
}

func (s Stamp) sameMeta(info fs.FileInfo) bool {
	return info.ModTime().Equal(s.Mod) && info.Size() == s.Size
}

type Event struct {
	Path string
	Kind EventKind
	Prev Stamp
	Curr Stamp
}

type Options struct {
	// Interval between scans once Start is called. Defaults to one second.
	Interval time.Duration
	// Buffer is the event channel capacity. Events are dropped when it is full.
	Buffer int
}

type source struct {
	stamp Stamp
	gone  bool
}

type Watcher struct {
	interval time.Duration
	events   chan Event

	mu      sync.Mutex
	sources map[string]source
	done    chan struct{}
	running sync.WaitGroup
	start   sync.Once
	stop    sync.Once
	stopped bool
}

func New(opts Options) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 16
	}
	return &Watcher{
		interval: opts.Interval,
		events:   make(chan Event, opts.Buffer),
		sources:  make(map[string]source),
		done:     make(chan struct{}),
	}
}

// Events is closed by Stop.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start runs Scan on a ticker until Stop. Calling it twice is a no-op.
func (w *Watcher) Start() {
	w.start.Do(func() {
		w.running.Add(1)
		go func() {
			defer w.running.Done()
			tick := time.NewTicker(w.interval)
			defer tick.Stop()
			for {
				select {
				case <-tick.C:
					w.Scan()
				case <-w.done:
					return
				}
			}
		}()
	})
}

func (w *Watcher) Stop() {
	w.stop.Do(func() {
		w.mu.Lock()
		w.stopped = true
		close(w.done)
		w.mu.Unlock()
		w.running.Wait()
		close(w.events)
	})
}

// Track records path's current content as the baseline. Tracking a path
// that is already watched resets the baseline.
func (w *Watcher) Track(path string) error {
	key, err := normalize(path)
	if err != nil {
		return err
	}
	stamp, err := read(key)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.stopped {
		w.sources[key] = source{stamp: stamp}
	}
	return nil
}

func (w *Watcher) Tracked(path string) bool {
	key, err := normalize(path)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.sources[key]
	return ok
}

func (w *Watcher) Forget(path string) {
	key, err := normalize(path)
	if err != nil {
		return
	}
	w.mu.Lock()
	delete(w.sources, key)
	w.mu.Unlock()
}

// Scan checks every tracked file once. A missing file is reported once
// until it reappears.
func (w *Watcher) Scan() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	pending := make(map[string]source, len(w.sources))
	for k, v := range w.sources {
		pending[k] = v
	}
	w.mu.Unlock()

	for path, src := range pending {
		evt, next, ok := probe(path, src)
		w.mu.Lock()
		if _, still := w.sources[path]; still && !w.stopped {
			w.sources[path] = next
			if ok {
				select {
				case w.events <- evt:
				default:
				}
			}
		}
		w.mu.Unlock()
	}
}

func probe(path string, src source) (Event, source, bool) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		if src.gone {
			return Event{}, src, false
		}
		return Event{Path: path, Kind: EventMissing, Prev: src.stamp}, source{stamp: src.stamp, gone: true}, true
	}
	if err != nil {
		return Event{}, src, false
	}
	if !src.gone && src.stamp.sameMeta(info) {
		return Event{}, src, false
	}
	curr, err := read(path)
	if err != nil {
		return Event{}, src, false
	}
	next := source{stamp: curr}
	if !src.gone && curr.Hash == src.stamp.Hash {
		return Event{}, next, false
	}
	return Event{Path: path, Kind: EventChanged, Prev: src.stamp, Curr: curr}, next, true
}

func read(path string) (Stamp, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Stamp{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return Stamp{}, err
	}
	sum := sha256.Sum256(data)
	return Stamp{
		Mod:  info.ModTime(),
		Size: int64(len(data)),
		Hash: hex.EncodeToString(sum[:]),
	}, nil
}

func normalize(path string) (string, error) {
	if path == "" {
		return "", errors.New("watcher: empty path")
	}
	clean := filepath.Clean(path)
	if clean == "." {
		return "", errors.New("watcher: empty path")
	}
	return clean, nil
}
