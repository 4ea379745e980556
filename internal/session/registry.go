package session

import (
	"fmt"
	"sort"
	"strings"

	"github.com/unkn0wn-root/reqdeck/internal/errdef"
	"github.com/unkn0wn-root/reqdeck/internal/history"
)

// Registry owns every session, keyed by display name.
type Registry struct {
	sessions map[string]*Session
	counter  int
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session), counter: 1}
}

// Counter is the number the next generated tab name starts probing from.
func (r *Registry) Counter() int {
	return r.counter
}

// SetCounter restores the tab counter; it never moves backwards.
func (r *Registry) SetCounter(n int) {
	if n > r.counter {
		r.counter = n
	}
}

// Create adds a fresh session named "Tab N". N only grows within a run.
func (r *Registry) Create() *Session {
	for {
		name := fmt.Sprintf("Tab %d", r.counter)
		r.counter++
		if _, taken := r.sessions[name]; taken {
			continue
		}
		s := New(name)
		r.sessions[name] = s
		return s
	}
}

// Add inserts s under its name, replacing any session already there.
func (r *Registry) Add(s *Session) {
	if old, ok := r.sessions[s.Name]; ok && old != s {
		old.Abandon()
	}
	r.sessions[s.Name] = s
}

func (r *Registry) Get(name string) (*Session, bool) {
	s, ok := r.sessions[name]
	return s, ok
}

// Rename re-keys a session. A collision replaces the target session, whose
// pending call is abandoned.
func (r *Registry) Rename(oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return errdef.New(errdef.CodeValidation, "tab name cannot be empty")
	}
	s, ok := r.sessions[oldName]
	if !ok {
		return errdef.New(errdef.CodeValidation, "no tab named %q", oldName)
	}
	if oldName == newName {
		return nil
	}
	if target, ok := r.sessions[newName]; ok {
		target.Abandon()
	}
	delete(r.sessions, oldName)
	s.Name = newName
	r.sessions[newName] = s
	return nil
}

// Close removes a session. The last session cannot be closed.
func (r *Registry) Close(name string) bool {
	s, ok := r.sessions[name]
	if !ok || len(r.sessions) <= 1 {
		return false
	}
	s.Abandon()
	delete(r.sessions, name)
	return true
}

func (r *Registry) Len() int {
	return len(r.sessions)
}

// Keys returns session names in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.sessions))
	for k := range r.sessions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sessions returns sessions in key order.
func (r *Registry) Sessions() []*Session {
	keys := r.Keys()
	out := make([]*Session, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.sessions[k])
	}
	return out
}

// PollAll reconciles every session and returns the names that changed.
func (r *Registry) PollAll(log *history.Log) []string {
	var changed []string
	for _, s := range r.Sessions() {
		if s.Poll(log) {
			changed = append(changed, s.Name)
		}
	}
	return changed
}
