package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/reqdeck/internal/dispatch"
	"github.com/unkn0wn-root/reqdeck/internal/errdef"
	"github.com/unkn0wn-root/reqdeck/internal/history"
	"github.com/unkn0wn-root/reqdeck/internal/request"
	"github.com/unkn0wn-root/reqdeck/internal/session"
	"github.com/unkn0wn-root/reqdeck/internal/state"
	"github.com/unkn0wn-root/reqdeck/internal/watcher"
)

type Options struct {
	Dispatcher *dispatch.Dispatcher
	// Backend persists state. Nil keeps everything in memory.
	Backend state.Backend
	// Watcher, when set, reloads environments whose source file changes.
	Watcher *watcher.Watcher
	Logger  zerolog.Logger
}

// App is the process-wide core. It is driven from a single goroutine: the
// presentation loop calls Apply and Tick, workers only fill dispatch handles.
type App struct {
	ctx        context.Context
	registry   *session.Registry
	history    *history.Log
	dispatcher *dispatch.Dispatcher
	backend    state.Backend
	watcher    *watcher.Watcher
	logger     zerolog.Logger

	active string
	notes  []Notification
	dirty  bool
	now    func() time.Time
}

// New restores persisted state, or starts with the single "Test" session.
// A state that cannot be read is reported as a notification and replaced
// by the default.
func New(ctx context.Context, opts Options) (*App, error) {
	if opts.Dispatcher == nil {
		return nil, errdef.New(errdef.CodeUnknown, "app requires a dispatcher")
	}
	a := &App{
		ctx:        ctx,
		dispatcher: opts.Dispatcher,
		backend:    opts.Backend,
		watcher:    opts.Watcher,
		logger:     opts.Logger,
		now:        time.Now,
	}

	var snap state.Snapshot
	if a.backend != nil {
		loaded, found, err := a.backend.Load()
		switch {
		case err != nil:
			a.logger.Error().Err(err).Msg("state load failed")
			a.notify(LevelError, "", "Could not restore state: "+errdef.Message(err))
		case found:
			snap = loaded
		}
	}
	a.registry, a.history, a.active = state.Restore(snap)
	a.dispatcher.SetIDSource(a.history)

	if a.watcher != nil {
		for _, s := range a.registry.Sessions() {
			a.track(s.Env.Source)
		}
	}
	return a, nil
}

func (a *App) Active() string {
	return a.active
}

// History exposes the shared log for read access.
func (a *App) History() *history.Log {
	return a.history
}

// Session looks up a session by name; an empty name means the active one.
func (a *App) Session(name string) (*session.Session, bool) {
	if name == "" {
		name = a.active
	}
	return a.registry.Get(name)
}

func (a *App) Dirty() bool {
	return a.dirty
}

// Apply runs one command. Failures are also queued as notifications, so
// interactive callers may ignore the returned error.
func (a *App) Apply(cmd Command) error {
	err := a.apply(cmd)
	if err != nil {
		a.notify(LevelError, sessionOf(cmd), errdef.Message(err))
	}
	return err
}

func (a *App) apply(cmd Command) error {
	switch c := cmd.(type) {
	case Dispatch:
		s, err := a.lookup(c.Session)
		if err != nil {
			return err
		}
		if err := s.Dispatch(a.ctx, a.dispatcher); err != nil {
			return err
		}
		a.dirty = true
		return nil

	case CreateSession:
		s := a.registry.Create()
		a.active = s.Name
		a.dirty = true
		return nil

	case RenameSession:
		name := strings.TrimSpace(c.New)
		if err := a.registry.Rename(c.Old, name); err != nil {
			return err
		}
		if a.active == c.Old {
			a.active = name
		}
		if _, ok := a.registry.Get(a.active); !ok {
			a.active = a.registry.Keys()[0]
		}
		a.dirty = true
		return nil

	case CloseSession:
		name := a.nameOf(c.Session)
		s, ok := a.registry.Get(name)
		if !a.registry.Close(name) {
			if ok {
				return errdef.New(errdef.CodeValidation, "Cannot close the last tab")
			}
			return errdef.New(errdef.CodeValidation, "no tab named %q", name)
		}
		a.forget(s.Env.Source)
		if a.active == name {
			a.active = a.registry.Keys()[0]
		}
		a.dirty = true
		return nil

	case Activate:
		s, err := a.lookup(c.Session)
		if err != nil {
			return err
		}
		a.active = s.Name
		a.dirty = true
		return nil

	case ClearHistory:
		a.history.Clear()
		a.dirty = true
		return nil

	case SelectHistory:
		item, ok := a.history.Get(c.ID)
		if !ok {
			return errdef.New(errdef.CodeHistory, "history item %s not found", c.ID)
		}
		s, err := a.lookup(c.Session)
		if err != nil {
			return err
		}
		s.LoadHistory(item)
		a.dirty = true
		return nil

	case LoadEnvironment:
		s, err := a.lookup(c.Session)
		if err != nil {
			return err
		}
		prev := s.Env.Source
		if err := s.Env.Load(c.Path); err != nil {
			a.logger.Warn().Str("session", s.Name).Str("path", c.Path).Err(err).Msg("environment load failed")
			return err
		}
		if prev != s.Env.Source {
			a.forget(prev)
		}
		a.track(s.Env.Source)
		a.notify(LevelSuccess, s.Name, "Environment loaded")
		a.dirty = true
		return nil

	case ClearEnvironment:
		s, err := a.lookup(c.Session)
		if err != nil {
			return err
		}
		s.Env.Clear()
		a.dirty = true
		return nil

	case ReloadEnvironment:
		s, err := a.lookup(c.Session)
		if err != nil {
			return err
		}
		if err := s.Env.Reload(); err != nil {
			a.logger.Warn().Str("session", s.Name).Err(err).Msg("environment reload failed")
			return err
		}
		a.notify(LevelSuccess, s.Name, "Environment reloaded")
		a.dirty = true
		return nil

	case SetMethod:
		s, err := a.lookup(c.Session)
		if err != nil {
			return err
		}
		if !c.Method.Valid() {
			return errdef.New(errdef.CodeValidation, "unsupported method")
		}
		s.Definition.Method = c.Method
		a.dirty = true
		return nil

	case SetURL:
		s, err := a.lookup(c.Session)
		if err != nil {
			return err
		}
		s.Definition.SetURL(c.URL)
		a.dirty = true
		return nil

	case SetBody:
		s, err := a.lookup(c.Session)
		if err != nil {
			return err
		}
		s.Definition.Body = c.Body
		a.dirty = true
		return nil

	case SetRow:
		if c.Target == Query {
			return errQueryRows
		}
		s, err := a.lookup(c.Session)
		if err != nil {
			return err
		}
		rowsOf(&s.Definition, c.Target).Set(c.Index, c.Key, c.Value)
		a.dirty = true
		return nil

	case AddRow:
		s, err := a.lookup(c.Session)
		if err != nil {
			return err
		}
		if c.Target == Query {
			s.Definition.AddQueryParam(c.Key, c.Value)
		} else if s.Definition.Headers.OnlyPlaceholders() && s.Definition.Headers.Len() == 1 {
			s.Definition.Headers.Set(0, c.Key, c.Value)
		} else {
			s.Definition.Headers.Add(c.Key, c.Value)
		}
		a.dirty = true
		return nil

	case RemoveRow:
		if c.Target == Query {
			return errQueryRows
		}
		s, err := a.lookup(c.Session)
		if err != nil {
			return err
		}
		if !rowsOf(&s.Definition, c.Target).Remove(c.Index) {
			return errdef.New(errdef.CodeValidation, "no row %d", c.Index)
		}
		a.dirty = true
		return nil

	case SetView:
		s, err := a.lookup(c.Session)
		if err != nil {
			return err
		}
		s.View = c.View
		a.dirty = true
		return nil
	}
	return errdef.New(errdef.CodeUnknown, "unknown command %T", cmd)
}

// Tick reconciles pending dispatches, applies environment file changes and
// returns the current frame. It never blocks.
func (a *App) Tick() Frame {
	a.drainWatcher()
	if changed := a.registry.PollAll(a.history); len(changed) > 0 {
		a.dirty = true
	}
	return a.Frame()
}

func (a *App) Frame() Frame {
	f := Frame{Active: a.active, History: a.history.Entries()}
	for _, s := range a.registry.Sessions() {
		f.Sessions = append(f.Sessions, frameOf(s))
	}
	return f
}

// Notifications drains queued notifications, oldest first.
func (a *App) Notifications() []Notification {
	out := a.notes
	a.notes = nil
	return out
}

// Save writes state through the backend and clears the dirty flag.
func (a *App) Save() error {
	if a.backend == nil {
		a.dirty = false
		return nil
	}
	snap := state.Capture(a.registry, a.history, a.active)
	if err := a.backend.Save(snap); err != nil {
		a.logger.Error().Err(err).Msg("state save failed")
		return err
	}
	a.logger.Debug().Int("sessions", len(snap.Sessions)).Int("history", len(snap.History)).Msg("state saved")
	a.dirty = false
	return nil
}

// SaveIfDirty is the autosave entry point.
func (a *App) SaveIfDirty() error {
	if !a.dirty {
		return nil
	}
	return a.Save()
}

// Close saves and releases the backend and watcher.
func (a *App) Close() error {
	err := a.Save()
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.backend != nil {
		err = errors.Join(err, a.backend.Close())
	}
	return err
}

func (a *App) drainWatcher() {
	if a.watcher == nil {
		return
	}
	for {
		select {
		case evt, ok := <-a.watcher.Events():
			if !ok {
				return
			}
			a.handleFileEvent(evt)
		default:
			return
		}
	}
}

func (a *App) handleFileEvent(evt watcher.Event) {
	for _, s := range a.registry.Sessions() {
		if s.Env.Source == "" || !samePath(s.Env.Source, evt.Path) {
			continue
		}
		if evt.Kind == watcher.EventMissing {
			a.notify(LevelError, s.Name, "Environment file missing: "+evt.Path)
			continue
		}
		if err := s.Env.Reload(); err != nil {
			a.notify(LevelError, s.Name, errdef.Message(err))
			continue
		}
		a.logger.Info().Str("session", s.Name).Str("path", evt.Path).Msg("environment auto-reloaded")
		a.notify(LevelInfo, s.Name, "Environment reloaded from disk")
		a.dirty = true
	}
}

func (a *App) track(path string) {
	if a.watcher == nil || path == "" {
		return
	}
	if err := a.watcher.Track(path); err != nil {
		a.logger.Debug().Str("path", path).Err(err).Msg("environment not watched")
	}
}

// forget stops watching path unless another session still uses it.
func (a *App) forget(path string) {
	if a.watcher == nil || path == "" {
		return
	}
	for _, s := range a.registry.Sessions() {
		if samePath(s.Env.Source, path) {
			return
		}
	}
	a.watcher.Forget(path)
}

func (a *App) lookup(name string) (*session.Session, error) {
	name = a.nameOf(name)
	s, ok := a.registry.Get(name)
	if !ok {
		return nil, errdef.New(errdef.CodeValidation, "no tab named %q", name)
	}
	return s, nil
}

func (a *App) nameOf(name string) string {
	if name == "" {
		return a.active
	}
	return name
}

func (a *App) notify(level Level, sess, text string) {
	a.notes = append(a.notes, Notification{Level: level, Text: text, Session: sess, At: a.now()})
}

// Query rows mirror the URL, so only appending through AddRow keeps the two
// in step.
var errQueryRows = errdef.New(errdef.CodeValidation, "query parameters follow the URL; edit the URL instead")

func rowsOf(def *request.Definition, target RowTarget) *request.Rows {
	if target == Query {
		return &def.Query
	}
	return &def.Headers
}

func sessionOf(cmd Command) string {
	switch c := cmd.(type) {
	case Dispatch:
		return c.Session
	case CloseSession:
		return c.Session
	case LoadEnvironment:
		return c.Session
	case ReloadEnvironment:
		return c.Session
	case SelectHistory:
		return c.Session
	}
	return ""
}
