package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/unkn0wn-root/reqdeck/internal/dispatch"
	"github.com/unkn0wn-root/reqdeck/internal/history"
	"github.com/unkn0wn-root/reqdeck/internal/httpclient"
)

func settle(t *testing.T, s *Session, log *history.Log) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !s.Poll(log) {
		if time.Now().After(deadline) {
			t.Fatalf("session %q never settled", s.Name)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSupersededResultIsIgnored(t *testing.T) {
	gate := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			<-gate
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() {
		select {
		case <-gate:
		default:
			close(gate)
		}
	})

	log := history.NewLog()
	d := dispatch.New(httpclient.NewClient(), log)
	s := New("Test")
	ctx := context.Background()

	s.Definition.URL = srv.URL + "/slow"
	if err := s.Dispatch(ctx, d); err != nil {
		t.Fatalf("dispatch A: %v", err)
	}
	first := s.pending

	s.Definition.URL = srv.URL + "/fast"
	if err := s.Dispatch(ctx, d); err != nil {
		t.Fatalf("dispatch B: %v", err)
	}
	if s.Generation() != 2 {
		t.Fatalf("expected generation 2, got %d", s.Generation())
	}

	settle(t, s, log)
	res, ok := s.Last()
	if !ok || res.Resource == nil || res.Resource.Text != "/fast" {
		t.Fatalf("expected fast result, got %+v", res)
	}
	if log.Len() != 1 {
		t.Fatalf("expected one history entry, got %d", log.Len())
	}

	close(gate)
	select {
	case <-first.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("superseded call never completed")
	}
	if s.Poll(log) {
		t.Fatalf("idle session should not report changes")
	}
	if log.Len() != 1 {
		t.Fatalf("superseded result reached history")
	}
	res, _ = s.Last()
	if res.Resource.Text != "/fast" {
		t.Fatalf("superseded result replaced display: %q", res.Resource.Text)
	}
	if s.Status() != StatusReady {
		t.Fatalf("unexpected status %s", s.Status())
	}
}

func TestHistoryCountsSuccessesOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	t.Cleanup(srv.Close)
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	log := history.NewLog()
	d := dispatch.New(httpclient.NewClient(), log)
	reg := NewRegistry()
	a := reg.Create()
	b := reg.Create()

	for i := 0; i < 3; i++ {
		for _, s := range []*Session{a, b} {
			s.Definition.URL = srv.URL
			if err := s.Dispatch(context.Background(), d); err != nil {
				t.Fatalf("dispatch: %v", err)
			}
			settle(t, s, log)
		}
	}
	if log.Len() != 6 {
		t.Fatalf("expected 6 history entries, got %d", log.Len())
	}
	entries := log.Entries()
	if entries[0].Session != b.Name || entries[0].StatusCode != http.StatusTeapot {
		t.Fatalf("unexpected newest entry %+v", entries[0])
	}

	a.Definition.URL = deadURL
	if err := a.Dispatch(context.Background(), d); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	settle(t, a, log)
	res, _ := a.Last()
	if res.Err == "" {
		t.Fatalf("expected transport error")
	}
	if log.Len() != 6 {
		t.Fatalf("failed dispatch must not reach history")
	}

	log.Clear()
	if log.Len() != 0 {
		t.Fatalf("expected empty history")
	}
}

func TestValidationFailureKeepsState(t *testing.T) {
	log := history.NewLog()
	d := dispatch.New(httpclient.NewClient(), log)
	s := New("Test")
	s.Definition.URL = "ht!tp://bad url"

	if err := s.Dispatch(context.Background(), d); err == nil {
		t.Fatalf("expected validation error")
	}
	if s.Pending() || s.Generation() != 0 || s.Status() != StatusIdle {
		t.Fatalf("failed dispatch changed session state")
	}
}

func TestLoadHistory(t *testing.T) {
	s := New("Test")
	item := history.Item{OriginalURL: "https://{host}/x", Body: "b"}
	s.LoadHistory(item)
	if s.Definition.URL != "https://{host}/x" || s.Definition.Body != "b" {
		t.Fatalf("unexpected definition %+v", s.Definition)
	}
}

func TestDefaultView(t *testing.T) {
	v := New("x").View
	if v.Pane != PaneHeaders || !v.Wrap || !v.Highlight {
		t.Fatalf("unexpected default view %+v", v)
	}
	if PaneInfo.Next() != PaneHeaders {
		t.Fatalf("pane cycle broken")
	}
}

func TestHistoryRecordsNameAtCompletion(t *testing.T) {
	gate := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-gate
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	log := history.NewLog()
	d := dispatch.New(httpclient.NewClient(), log)
	reg := NewRegistry()
	s := New("Draft")
	reg.Add(s)
	s.Definition.URL = srv.URL

	if err := s.Dispatch(context.Background(), d); err != nil {
		close(gate)
		t.Fatalf("dispatch: %v", err)
	}
	if s.pending.SessionID != s.ID {
		close(gate)
		t.Fatalf("handle not tagged with session id: %q vs %q", s.pending.SessionID, s.ID)
	}
	if err := reg.Rename("Draft", "Users"); err != nil {
		close(gate)
		t.Fatalf("Rename: %v", err)
	}
	close(gate)
	settle(t, s, log)

	entries := log.Entries()
	if len(entries) != 1 || entries[0].Session != "Users" {
		t.Fatalf("expected entry under renamed tab, got %+v", entries)
	}
}

func TestRegistryAbandonsReplacedSessions(t *testing.T) {
	cases := map[string]func(reg *Registry) error{
		"close": func(reg *Registry) error {
			if !reg.Close("A") {
				return errors.New("close failed")
			}
			return nil
		},
		"rename onto": func(reg *Registry) error {
			return reg.Rename("B", "A")
		},
	}
	for name, abandon := range cases {
		t.Run(name, func(t *testing.T) {
			gate := make(chan struct{})
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				<-gate
				_, _ = w.Write([]byte("late"))
			}))
			t.Cleanup(srv.Close)

			log := history.NewLog()
			d := dispatch.New(httpclient.NewClient(), log)
			reg := NewRegistry()
			a, b := New("A"), New("B")
			reg.Add(a)
			reg.Add(b)
			a.Definition.URL = srv.URL

			if err := a.Dispatch(context.Background(), d); err != nil {
				close(gate)
				t.Fatalf("dispatch: %v", err)
			}
			h := a.pending
			if err := abandon(reg); err != nil {
				close(gate)
				t.Fatalf("abandon: %v", err)
			}
			close(gate)
			select {
			case <-h.Done():
			case <-time.After(5 * time.Second):
				t.Fatalf("abandoned call never completed")
			}

			if changed := reg.PollAll(log); len(changed) != 0 {
				t.Fatalf("abandoned result changed sessions %v", changed)
			}
			if log.Len() != 0 {
				t.Fatalf("abandoned result reached history")
			}
			for _, s := range reg.Sessions() {
				if _, ok := s.Last(); ok || s.Status() != StatusIdle {
					t.Fatalf("abandoned result surfaced on %q", s.Name)
				}
			}
		})
	}
}
