package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/unkn0wn-root/reqdeck/internal/history"
	"github.com/unkn0wn-root/reqdeck/internal/request"
	"github.com/unkn0wn-root/reqdeck/internal/session"
)

func sampleSnapshot() Snapshot {
	reg := session.NewRegistry()
	a := session.New("Test")
	a.Definition.Method = request.POST
	a.Definition.SetURL("https://{host}/items?limit=5")
	a.Definition.Body = `{"name":"x"}`
	a.Env.Source = "/tmp/env.json"
	a.Env.Env.Set("host", "api.test")
	a.View.Pane = session.PaneBody
	a.View.Wrap = false
	reg.Add(a)
	b := reg.Create()
	b.Definition.Headers.Set(0, "Accept", "text/plain")

	log := history.NewLog()
	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	log.Prepend(history.Item{ID: "1", ExecutedAt: t1, Method: request.GET, URL: "https://a.test", OriginalURL: "https://{h}"})
	log.Prepend(history.Item{ID: "2", ExecutedAt: t1.Add(time.Minute), Method: request.POST, URL: "https://b.test", Body: "x"})
	log.Prepend(history.Item{ID: "2", ExecutedAt: t1.Add(time.Minute), Method: request.POST, URL: "https://b.test", Body: "x"})

	return Capture(reg, log, b.Name)
}

func checkRestored(t *testing.T, snap Snapshot) {
	t.Helper()
	reg, log, active := Restore(snap)
	if reg.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", reg.Len())
	}
	if active != "Tab 1" {
		t.Fatalf("unexpected active session %q", active)
	}
	s, ok := reg.Get("Test")
	if !ok {
		t.Fatalf("missing Test session")
	}
	if s.Definition.Method != request.POST || s.Definition.URL != "https://{host}/items?limit=5" {
		t.Fatalf("unexpected definition %+v", s.Definition)
	}
	if p := s.Definition.Query.At(0); p.Key != "limit" || p.Value != "5" {
		t.Fatalf("unexpected query row %+v", p)
	}
	if v, _ := s.Env.Env.Get("host"); v != "api.test" || s.Env.Source != "/tmp/env.json" {
		t.Fatalf("unexpected env %+v", s.Env)
	}
	if s.View.Pane != session.PaneBody || s.View.Wrap {
		t.Fatalf("view flags not restored: %+v", s.View)
	}
	if s.Pending() {
		t.Fatalf("restored session must not be pending")
	}
	if log.Len() != 3 {
		t.Fatalf("expected 3 history entries, got %d", log.Len())
	}
	if id := log.NextID(); id != "3" {
		t.Fatalf("expected id sequence to continue at 3, got %q", id)
	}
	if c := reg.Create(); c.Name != "Tab 2" {
		t.Fatalf("expected restored counter, got %q", c.Name)
	}
}

func TestFileBackendRoundTrip(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "nested", "state.json"))
	if _, found, err := b.Load(); err != nil || found {
		t.Fatalf("expected empty load, got found=%v err=%v", found, err)
	}
	if err := b.Save(sampleSnapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	snap, found, err := b.Load()
	if err != nil || !found {
		t.Fatalf("Load: found=%v err=%v", found, err)
	}
	checkRestored(t, snap)
}

func TestSQLiteBackendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	b, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })

	if _, found, err := b.Load(); err != nil || found {
		t.Fatalf("expected empty load, got found=%v err=%v", found, err)
	}
	if err := b.Save(sampleSnapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := b.Save(sampleSnapshot()); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	snap, found, err := b.Load()
	if err != nil || !found {
		t.Fatalf("Load: found=%v err=%v", found, err)
	}
	checkRestored(t, snap)
}

func TestRestoreEmptyUsesDefaultSession(t *testing.T) {
	reg, log, active := Restore(Snapshot{})
	if reg.Len() != 1 || active != DefaultSessionName {
		t.Fatalf("expected single default session, got %v active=%q", reg.Keys(), active)
	}
	if log.Len() != 0 {
		t.Fatalf("expected empty history")
	}
}
