package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unkn0wn-root/reqdeck/internal/app"
)

type pollTickMsg struct{}

type autosaveTickMsg struct{}

type statusLevel int

const (
	statusInfo statusLevel = iota
	statusWarn
	statusError
	statusSuccess
)

type statusMsg struct {
	text  string
	level statusLevel
}

func statusFromNotification(n app.Notification) statusMsg {
	switch n.Level {
	case app.LevelError:
		return statusMsg{text: n.Text, level: statusError}
	case app.LevelSuccess:
		return statusMsg{text: n.Text, level: statusSuccess}
	default:
		return statusMsg{text: n.Text, level: statusInfo}
	}
}

func pollTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

func autosaveTickCmd(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return autosaveTickMsg{}
	})
}

func statusCmd(msg statusMsg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}
