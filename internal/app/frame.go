package app

import (
	"github.com/unkn0wn-root/reqdeck/internal/history"
	"github.com/unkn0wn-root/reqdeck/internal/request"
	"github.com/unkn0wn-root/reqdeck/internal/session"
)

// Frame is the read-only view handed to the renderer after each tick.
type Frame struct {
	Active   string
	Sessions []SessionFrame
	History  []history.Item
}

type SessionFrame struct {
	ID         string
	Name       string
	Status     session.Status
	Result     session.Result
	HasResult  bool
	Definition request.Definition
	EnvLoaded  bool
	EnvSource  string
	EnvPreview [][2]string
	View       session.View
}

// Session returns the frame for name.
func (f Frame) Session(name string) (SessionFrame, bool) {
	for _, s := range f.Sessions {
		if s.Name == name {
			return s, true
		}
	}
	return SessionFrame{}, false
}

// Current returns the frame of the active session.
func (f Frame) Current() SessionFrame {
	s, _ := f.Session(f.Active)
	return s
}

func frameOf(s *session.Session) SessionFrame {
	res, ok := s.Last()
	return SessionFrame{
		ID:         s.ID,
		Name:       s.Name,
		Status:     s.Status(),
		Result:     res,
		HasResult:  ok,
		Definition: s.Definition.Clone(),
		EnvLoaded:  s.Env.Loaded(),
		EnvSource:  s.Env.Source,
		EnvPreview: s.Env.Env.Preview(),
		View:       s.View,
	}
}
