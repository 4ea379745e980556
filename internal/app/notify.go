package app

import "time"

type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a transient message for the user.
type Notification struct {
	Level   Level
	Text    string
	Session string
	At      time.Time
}
