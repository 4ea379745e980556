package history

import (
	"sort"
	"strconv"
	"sync"
)

// Log is the shared, most-recent-first record of completed requests.
// There is no size cap; Clear is the only deletion.
type Log struct {
	mu    sync.RWMutex
	items []Item
	seq   int64
}

func NewLog() *Log {
	return &Log{}
}

// NextID hands out the next sequence number. Ids are never reused within a
// process, even after Clear.
func (l *Log) NextID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	return strconv.FormatInt(l.seq, 10)
}

func (l *Log) Prepend(it Item) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append([]Item{it.Clone()}, l.items...)
	if n := it.seq(); n > l.seq {
		l.seq = n
	}
}

func (l *Log) Entries() []Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Item, len(l.items))
	for i, it := range l.items {
		out[i] = it.Clone()
	}
	return out
}

func (l *Log) Get(id string) (Item, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, it := range l.items {
		if it.ID == id {
			return it.Clone(), true
		}
	}
	return Item{}, false
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
}

// Restore replaces the log with persisted items, sorted newest first, and
// seeds the id sequence above the largest restored id.
func (l *Log) Restore(items []Item) {
	restored := make([]Item, len(items))
	for i, it := range items {
		restored[i] = it.Clone()
	}
	sort.SliceStable(restored, func(i, j int) bool {
		return newerFirst(restored[i], restored[j])
	})

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = restored
	for _, it := range restored {
		if n := it.seq(); n > l.seq {
			l.seq = n
		}
	}
}

func newerFirst(a, b Item) bool {
	ai := a.ExecutedAt
	bi := b.ExecutedAt
	switch {
	case ai.IsZero() && bi.IsZero():
		return compareIDsDesc(a.ID, b.ID)
	case ai.IsZero():
		return false
	case bi.IsZero():
		return true
	case ai.Equal(bi):
		return compareIDsDesc(a.ID, b.ID)
	default:
		return ai.After(bi)
	}
}

func compareIDsDesc(a, b string) bool {
	ai, errA := strconv.ParseInt(a, 10, 64)
	bi, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return ai > bi
	}
	return a > b
}
