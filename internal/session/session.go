package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/reqdeck/internal/dispatch"
	"github.com/unkn0wn-root/reqdeck/internal/history"
	"github.com/unkn0wn-root/reqdeck/internal/request"
	"github.com/unkn0wn-root/reqdeck/internal/resource"
	"github.com/unkn0wn-root/reqdeck/internal/vars"
)

type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	default:
		return "idle"
	}
}

// Pane selects which part of the result is shown.
type Pane int

const (
	PaneHeaders Pane = iota
	PaneBody
	PaneInfo
)

func (p Pane) String() string {
	switch p {
	case PaneBody:
		return "body"
	case PaneInfo:
		return "info"
	default:
		return "headers"
	}
}

func (p Pane) Next() Pane {
	return (p + 1) % 3
}

// View holds presentation toggles. They are persisted but carry no
// behavior in the core.
type View struct {
	Pane      Pane `json:"pane"`
	Wrap      bool `json:"wrap"`
	Highlight bool `json:"highlight"`
}

func DefaultView() View {
	return View{Pane: PaneHeaders, Wrap: true, Highlight: true}
}

// Result is the last settled outcome kept for re-rendering.
type Result struct {
	Resource *resource.Resource
	Err      string
}

// Session is one tab. The id is stable across renames.
type Session struct {
	ID         string
	Name       string
	Definition request.Definition
	Env        vars.Store
	View       View

	pending    *dispatch.Handle
	generation uint64
	awaiting   bool
	last       *Result
}

func New(name string) *Session {
	return &Session{
		ID:         uuid.NewString(),
		Name:       name,
		Definition: request.Default(),
		View:       DefaultView(),
	}
}

func (s *Session) Status() Status {
	switch {
	case s.pending != nil:
		return StatusPending
	case s.last != nil:
		return StatusReady
	default:
		return StatusIdle
	}
}

// Last returns the most recent settled result, if any.
func (s *Session) Last() (Result, bool) {
	if s.last == nil {
		return Result{}, false
	}
	return *s.last, true
}

func (s *Session) Pending() bool {
	return s.pending != nil
}

// Generation counts accepted dispatches.
func (s *Session) Generation() uint64 {
	return s.generation
}

// Dispatch starts a new call for the current definition. A call already in
// flight is superseded: it keeps running but its result is ignored. When
// validation fails the previous pending call, if any, stays tracked.
func (s *Session) Dispatch(ctx context.Context, d *dispatch.Dispatcher) error {
	h, err := d.Dispatch(ctx, dispatch.Job{
		SessionID:  s.ID,
		Session:    s.Name,
		Generation: s.generation + 1,
		Definition: &s.Definition,
		Env:        s.Env.Env,
	})
	if err != nil {
		return err
	}
	s.generation++
	s.pending = h
	s.awaiting = true
	return nil
}

// Poll reconciles the pending handle without blocking. It reports whether
// the session changed. Successful results are prepended to log.
func (s *Session) Poll(log *history.Log) bool {
	if s.pending == nil {
		return false
	}
	out, ok := s.pending.Poll()
	if !ok {
		return false
	}
	h := s.pending
	s.pending = nil
	if h.Generation != s.generation {
		return false
	}
	if !out.OK() {
		s.last = &Result{Err: out.Err}
		s.awaiting = false
		return true
	}
	if s.awaiting && log != nil {
		// The tab may have been renamed while the call was in flight.
		item := h.Record(out)
		item.Session = s.Name
		log.Prepend(item)
		s.awaiting = false
	}
	s.last = &Result{Resource: out.Resource}
	return true
}

// Abandon drops the pending handle. The call itself is not interrupted.
func (s *Session) Abandon() {
	s.pending = nil
	s.awaiting = false
}

// LoadHistory copies item into the definition. The item is not modified.
func (s *Session) LoadHistory(item history.Item) {
	item.Apply(&s.Definition)
}

// Restore builds a session from persisted fields.
func Restore(id, name string, def request.Definition, env vars.Store, view View) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	if def.Headers.Len() == 0 {
		def.Headers = request.PlaceholderRows()
	}
	if def.Query.Len() == 0 {
		def.Query = request.PlaceholderRows()
	}
	return &Session{ID: id, Name: name, Definition: def, Env: env, View: view}
}
