package state

import (
	"github.com/unkn0wn-root/reqdeck/internal/history"
	"github.com/unkn0wn-root/reqdeck/internal/request"
	"github.com/unkn0wn-root/reqdeck/internal/session"
	"github.com/unkn0wn-root/reqdeck/internal/vars"
)

const (
	Version            = 1
	DefaultSessionName = "Test"
)

// Snapshot is everything that survives a restart. Pending calls are never
// part of it.
type Snapshot struct {
	Version  int            `json:"version"`
	Active   string         `json:"active,omitempty"`
	Counter  int            `json:"counter,omitempty"`
	Sessions []SessionState `json:"sessions"`
	History  []history.Item `json:"history"`
}

type SessionState struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Definition request.Definition `json:"definition"`
	Env        vars.Store         `json:"env"`
	View       session.View       `json:"view"`
}

// Backend stores snapshots. Load reports found=false when nothing was saved.
type Backend interface {
	Load() (snap Snapshot, found bool, err error)
	Save(snap Snapshot) error
	Close() error
}

// Capture copies the registry and log into a snapshot.
func Capture(reg *session.Registry, log *history.Log, active string) Snapshot {
	snap := Snapshot{
		Version: Version,
		Active:  active,
		Counter: reg.Counter(),
		History: log.Entries(),
	}
	for _, s := range reg.Sessions() {
		snap.Sessions = append(snap.Sessions, SessionState{
			ID:         s.ID,
			Name:       s.Name,
			Definition: s.Definition.Clone(),
			Env:        s.Env.Clone(),
			View:       s.View,
		})
	}
	return snap
}

// Restore rebuilds the registry and log. An empty snapshot yields the
// single default session. The returned name is the active session.
func Restore(snap Snapshot) (*session.Registry, *history.Log, string) {
	reg := session.NewRegistry()
	log := history.NewLog()

	for _, st := range snap.Sessions {
		if st.Name == "" {
			continue
		}
		reg.Add(session.Restore(st.ID, st.Name, st.Definition, st.Env, st.View))
	}
	if reg.Len() == 0 {
		reg.Add(session.New(DefaultSessionName))
	}
	reg.SetCounter(snap.Counter)
	log.Restore(snap.History)

	active := snap.Active
	if _, ok := reg.Get(active); !ok {
		active = reg.Keys()[0]
	}
	return reg, log, active
}
