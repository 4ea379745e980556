package dispatch

import (
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/reqdeck/internal/history"
	"github.com/unkn0wn-root/reqdeck/internal/resource"
)

// Outcome is the terminal value of a dispatch: a Resource on success or the
// error text to display.
type Outcome struct {
	Resource   *resource.Resource
	Err        string
	StatusCode int
	Elapsed    time.Duration
}

func (o Outcome) OK() bool {
	return o.Err == "" && o.Resource != nil
}

// Handle is a single-producer single-consumer cell. The worker stores one
// Outcome; the owner polls without blocking.
type Handle struct {
	// SessionID names the session that owns the call.
	SessionID string
	// Generation ties the handle to the session dispatch that started it.
	Generation uint64
	// Item is the history snapshot to record if the owner accepts the result.
	// It is fixed at dispatch time and never written by the worker.
	Item history.Item

	value atomic.Pointer[Outcome]
	done  chan struct{}
}

func newHandle(sessionID string, gen uint64, item history.Item) *Handle {
	return &Handle{SessionID: sessionID, Generation: gen, Item: item, done: make(chan struct{})}
}

// Poll returns the outcome once it is available. It never blocks.
func (h *Handle) Poll() (Outcome, bool) {
	if h == nil {
		return Outcome{}, false
	}
	if v := h.value.Load(); v != nil {
		return *v, true
	}
	return Outcome{}, false
}

// Done is closed after the outcome is stored. Headless callers may wait on
// it; the interactive loop uses Poll.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Record returns the history item completed with the outcome's status and
// timing.
func (h *Handle) Record(out Outcome) history.Item {
	item := h.Item.Clone()
	item.StatusCode = out.StatusCode
	item.Duration = out.Elapsed
	return item
}

func (h *Handle) resolve(out Outcome) {
	if h.value.CompareAndSwap(nil, &out) {
		close(h.done)
	}
}
