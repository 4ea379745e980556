package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/reqdeck/internal/dispatch"
	"github.com/unkn0wn-root/reqdeck/internal/errdef"
	"github.com/unkn0wn-root/reqdeck/internal/history"
	"github.com/unkn0wn-root/reqdeck/internal/httpclient"
	"github.com/unkn0wn-root/reqdeck/internal/request"
	"github.com/unkn0wn-root/reqdeck/internal/session"
	"github.com/unkn0wn-root/reqdeck/internal/state"
	"github.com/unkn0wn-root/reqdeck/internal/watcher"
)

func newTestApp(t *testing.T, opts Options) *App {
	t.Helper()
	if opts.Dispatcher == nil {
		opts.Dispatcher = dispatch.New(httpclient.NewClient(), history.NewLog())
	}
	a, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func mustApply(t *testing.T, a *App, cmd Command) {
	t.Helper()
	if err := a.Apply(cmd); err != nil {
		t.Fatalf("Apply(%T): %v", cmd, err)
	}
}

func tickUntilReady(t *testing.T, a *App, name string) Frame {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		f := a.Tick()
		if s, ok := f.Session(name); ok && s.Status != session.StatusPending {
			return f
		}
		if time.Now().After(deadline) {
			t.Fatalf("session %q still pending", name)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewStartsWithDefaultSession(t *testing.T) {
	a := newTestApp(t, Options{})
	f := a.Tick()
	if f.Active != "Test" || len(f.Sessions) != 1 {
		t.Fatalf("unexpected initial frame %+v", f)
	}
	if len(f.History) != 0 {
		t.Fatalf("expected empty history")
	}
	if f.Current().Status != session.StatusIdle || f.Current().EnvLoaded {
		t.Fatalf("unexpected initial session %+v", f.Current())
	}
}

func TestDispatchScenario(t *testing.T) {
	uris := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uris <- r.URL.RequestURI()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"args":{"x":"1"}}`))
	}))
	t.Cleanup(srv.Close)

	a := newTestApp(t, Options{})
	target := srv.URL + "/get?x=1"
	mustApply(t, a, SetURL{URL: target})
	mustApply(t, a, Dispatch{})

	f := a.Frame()
	if f.Current().Status != session.StatusPending {
		t.Fatalf("expected pending after dispatch, got %s", f.Current().Status)
	}

	f = tickUntilReady(t, a, "Test")
	cur := f.Current()
	if cur.Status != session.StatusReady || cur.Result.Err != "" || cur.Result.Resource == nil {
		t.Fatalf("unexpected result %+v", cur.Result)
	}
	if gotURI := <-uris; gotURI != "/get?x=1" {
		t.Fatalf("unexpected request uri %q", gotURI)
	}
	if rows := cur.Definition.Query.Pairs(); len(rows) != 1 || rows[0] != (request.Pair{Key: "x", Value: "1"}) {
		t.Fatalf("unexpected query rows %+v", rows)
	}
	if len(f.History) != 1 {
		t.Fatalf("expected 1 history item, got %d", len(f.History))
	}
	if it := f.History[0]; it.URL != target || it.OriginalURL != target {
		t.Fatalf("unexpected history item %+v", it)
	}
	if !a.Dirty() {
		t.Fatalf("expected dirty state after dispatch")
	}
}

func TestDispatchMalformedURLNotifies(t *testing.T) {
	a := newTestApp(t, Options{})
	mustApply(t, a, SetURL{URL: "ht!tp://bad url"})
	if err := a.Apply(Dispatch{}); err == nil {
		t.Fatalf("expected dispatch error")
	}
	notes := a.Notifications()
	if len(notes) != 1 || notes[0].Level != LevelError ||
		!strings.HasPrefix(notes[0].Text, "Error parsing URL:") {
		t.Fatalf("unexpected notifications %+v", notes)
	}
	f := a.Tick()
	if f.Current().Status != session.StatusIdle || len(f.History) != 0 {
		t.Fatalf("malformed dispatch changed state: %+v", f.Current())
	}
	if len(a.Notifications()) != 0 {
		t.Fatalf("notifications should be drained")
	}
}

func TestEnvironmentLoadFailureKeepsMapping(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "env.json")
	bad := filepath.Join(dir, "list.json")
	if err := os.WriteFile(good, []byte(`{"host":"api.test"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(bad, []byte(`["not","an","object"]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	a := newTestApp(t, Options{})
	mustApply(t, a, LoadEnvironment{Path: good})
	if err := a.Apply(LoadEnvironment{Path: bad}); err == nil {
		t.Fatalf("expected load error")
	}
	cur := a.Frame().Current()
	if !cur.EnvLoaded || cur.EnvSource != good {
		t.Fatalf("environment replaced on failure: %+v", cur)
	}
	if len(cur.EnvPreview) != 1 || cur.EnvPreview[0] != [2]string{"host", "api.test"} {
		t.Fatalf("unexpected preview %+v", cur.EnvPreview)
	}
	notes := a.Notifications()
	if len(notes) != 2 || notes[0].Level != LevelSuccess || notes[1].Level != LevelError {
		t.Fatalf("unexpected notifications %+v", notes)
	}

	mustApply(t, a, ClearEnvironment{})
	if a.Frame().Current().EnvLoaded {
		t.Fatalf("expected cleared environment")
	}
	mustApply(t, a, ReloadEnvironment{})
	if !a.Frame().Current().EnvLoaded {
		t.Fatalf("expected reload to restore environment")
	}
}

func TestSessionCommands(t *testing.T) {
	a := newTestApp(t, Options{})
	mustApply(t, a, CreateSession{})
	if a.Active() != "Tab 1" {
		t.Fatalf("expected new tab to become active, got %q", a.Active())
	}
	mustApply(t, a, RenameSession{Old: "Tab 1", New: "Users"})
	if a.Active() != "Users" {
		t.Fatalf("expected active to follow rename, got %q", a.Active())
	}
	mustApply(t, a, CloseSession{Session: "Users"})
	if a.Active() != "Test" {
		t.Fatalf("expected fallback active session, got %q", a.Active())
	}
	if err := a.Apply(CloseSession{}); err == nil {
		t.Fatalf("expected closing last tab to fail")
	}
	if len(a.Frame().Sessions) != 1 {
		t.Fatalf("expected one session left")
	}
}

func TestRowCommandsAndHistorySelect(t *testing.T) {
	a := newTestApp(t, Options{})
	mustApply(t, a, SetURL{URL: "https://example.com/get"})
	mustApply(t, a, AddRow{Target: Query, Key: "q", Value: "a b"})
	mustApply(t, a, AddRow{Target: Headers, Key: "Accept", Value: "*/*"})
	mustApply(t, a, AddRow{Target: Headers, Key: "X-Two", Value: "2"})
	mustApply(t, a, RemoveRow{Target: Headers, Index: 1})
	mustApply(t, a, SetMethod{Method: request.PUT})
	mustApply(t, a, SetBody{Body: "payload"})

	def := a.Frame().Current().Definition
	if def.URL != "https://example.com/get?q=a+b" {
		t.Fatalf("unexpected url %q", def.URL)
	}
	if def.Headers.Len() != 1 || def.Headers.At(0).Key != "Accept" {
		t.Fatalf("unexpected headers %+v", def.Headers)
	}

	a.History().Prepend(history.Item{
		ID:          "9",
		Method:      request.DELETE,
		URL:         "https://api.test/items/1",
		OriginalURL: "https://{host}/items/1",
	})
	mustApply(t, a, SelectHistory{ID: "9"})
	def = a.Frame().Current().Definition
	if def.Method != request.DELETE || def.URL != "https://{host}/items/1" || def.Body != "" {
		t.Fatalf("history item not applied: %+v", def)
	}
	if a.History().Len() != 1 {
		t.Fatalf("selecting must not mutate history")
	}
	if err := a.Apply(SelectHistory{ID: "missing"}); err == nil {
		t.Fatalf("expected error for unknown history id")
	}
	mustApply(t, a, ClearHistory{})
	if len(a.Tick().History) != 0 {
		t.Fatalf("expected cleared history")
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	a := newTestApp(t, Options{Backend: state.NewFileBackend(path)})
	mustApply(t, a, CreateSession{})
	mustApply(t, a, SetURL{URL: "https://{host}/v1?limit=2"})
	view := session.DefaultView()
	view.Pane = session.PaneInfo
	mustApply(t, a, SetView{View: view})
	a.History().Prepend(history.Item{ID: a.History().NextID(), URL: "https://x.test"})
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b := newTestApp(t, Options{Backend: state.NewFileBackend(path)})
	f := b.Tick()
	if f.Active != "Tab 1" || len(f.Sessions) != 2 {
		t.Fatalf("unexpected restored frame: active=%q sessions=%d", f.Active, len(f.Sessions))
	}
	cur := f.Current()
	if cur.Definition.URL != "https://{host}/v1?limit=2" || cur.View.Pane != session.PaneInfo {
		t.Fatalf("unexpected restored session %+v", cur)
	}
	if len(f.History) != 1 {
		t.Fatalf("expected restored history")
	}
}

func TestHistoryIDsContinueAfterRestore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	path := filepath.Join(t.TempDir(), "state.json")

	a := newTestApp(t, Options{Backend: state.NewFileBackend(path)})
	a.History().Prepend(history.Item{ID: "41", URL: "https://x.test"})
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b := newTestApp(t, Options{Backend: state.NewFileBackend(path)})
	mustApply(t, b, SetURL{URL: srv.URL})
	mustApply(t, b, Dispatch{})
	f := tickUntilReady(t, b, "Test")
	if len(f.History) != 2 || f.History[0].ID != "42" {
		t.Fatalf("expected new id 42 on top, got %+v", f.History)
	}
}

func TestCorruptStateFallsBackToDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	a := newTestApp(t, Options{Backend: state.NewFileBackend(path)})
	if a.Active() != "Test" {
		t.Fatalf("expected default session, got %q", a.Active())
	}
	notes := a.Notifications()
	if len(notes) != 1 || notes[0].Level != LevelError {
		t.Fatalf("expected restore failure notification, got %+v", notes)
	}
}

func TestWatcherReloadsEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.env")
	if err := os.WriteFile(path, []byte("HOST=a.test\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	w := watcher.New(watcher.Options{})
	a := newTestApp(t, Options{Watcher: w})
	t.Cleanup(func() { _ = a.Close() })

	mustApply(t, a, LoadEnvironment{Path: path})
	a.Notifications()

	if err := os.WriteFile(path, []byte("HOST=bbbb.test\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	w.Scan()
	cur := a.Tick().Current()
	if len(cur.EnvPreview) != 1 || cur.EnvPreview[0][1] != "bbbb.test" {
		t.Fatalf("environment not reloaded: %+v", cur.EnvPreview)
	}
	notes := a.Notifications()
	if len(notes) != 1 || notes[0].Level != LevelInfo {
		t.Fatalf("unexpected notifications %+v", notes)
	}
}

func TestQueryRowsOnlyGrowThroughURL(t *testing.T) {
	a := newTestApp(t, Options{})
	mustApply(t, a, SetURL{URL: "https://example.com/get"})

	if err := a.Apply(SetRow{Target: Query, Index: 0, Key: "a", Value: "1"}); errdef.CodeOf(err) != errdef.CodeValidation {
		t.Fatalf("expected validation error editing a query row, got %v", err)
	}
	mustApply(t, a, AddRow{Target: Query, Key: "b", Value: "2"})
	def := a.Frame().Current().Definition
	if def.URL != "https://example.com/get?b=2" {
		t.Fatalf("unexpected url %q", def.URL)
	}

	if err := a.Apply(RemoveRow{Target: Query, Index: 0}); errdef.CodeOf(err) != errdef.CodeValidation {
		t.Fatalf("expected validation error removing a query row, got %v", err)
	}
	def = a.Frame().Current().Definition
	if def.URL != "https://example.com/get?b=2" || def.Query.Len() != 1 || def.Query.At(0).Key != "b" {
		t.Fatalf("rejected edit changed the definition: %q %+v", def.URL, def.Query)
	}
}

func TestRenameUsesTrimmedName(t *testing.T) {
	a := newTestApp(t, Options{})
	mustApply(t, a, CreateSession{})
	mustApply(t, a, RenameSession{Old: "Tab 1", New: " Zed "})
	if a.Active() != "Zed" {
		t.Fatalf("expected trimmed active name, got %q", a.Active())
	}
	f := a.Frame()
	if cur := f.Current(); cur.Name != "Zed" {
		t.Fatalf("active tab not found in frame, got %q", cur.Name)
	}
	if _, ok := f.Session("Zed"); !ok {
		t.Fatalf("expected session Zed in %+v", f.Sessions)
	}
}

func TestAbandonedDispatchNeverSurfaces(t *testing.T) {
	cases := []struct {
		name    string
		abandon func(t *testing.T, a *App)
	}{
		{"close", func(t *testing.T, a *App) {
			mustApply(t, a, CloseSession{Session: "Test"})
		}},
		{"rename onto", func(t *testing.T, a *App) {
			mustApply(t, a, RenameSession{Old: "Tab 1", New: "Test"})
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gate := make(chan struct{})
			var release sync.Once
			open := func() { release.Do(func() { close(gate) }) }
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				<-gate
				_, _ = w.Write([]byte("late"))
			}))
			t.Cleanup(srv.Close)
			t.Cleanup(open)

			woke := make(chan struct{}, 1)
			d := dispatch.New(httpclient.NewClient(), history.NewLog(),
				dispatch.WithNotify(func() { woke <- struct{}{} }))
			a := newTestApp(t, Options{Dispatcher: d})

			mustApply(t, a, SetURL{URL: srv.URL + "/slow"})
			mustApply(t, a, Dispatch{})
			mustApply(t, a, CreateSession{})
			tc.abandon(t, a)

			open()
			select {
			case <-woke:
			case <-time.After(5 * time.Second):
				t.Fatalf("abandoned call never completed")
			}

			f := a.Tick()
			if len(f.History) != 0 {
				t.Fatalf("abandoned result reached history: %+v", f.History)
			}
			for _, s := range f.Sessions {
				if s.HasResult || s.Status != session.StatusIdle {
					t.Fatalf("abandoned result surfaced on %q: %+v", s.Name, s)
				}
			}
		})
	}
}
