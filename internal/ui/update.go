package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/unkn0wn-root/reqdeck/internal/app"
	"github.com/unkn0wn-root/reqdeck/internal/errdef"
	"github.com/unkn0wn-root/reqdeck/internal/request"
	"github.com/unkn0wn-root/reqdeck/internal/session"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		m.ready = true
		m.applyLayout()
	case pollTickMsg:
		m.refresh(m.app.Tick())
		cmds = append(cmds, pollTickCmd(m.cfg.PollInterval))
	case autosaveTickMsg:
		if err := m.app.SaveIfDirty(); err != nil {
			m.setStatusMessage(statusMsg{text: "Autosave failed: " + errdef.Message(err), level: statusError})
		}
		cmds = append(cmds, autosaveTickCmd(m.cfg.Autosave))
	case statusMsg:
		m.setStatusMessage(typed)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(typed)
		cmds = append(cmds, cmd)
	case tea.KeyMsg:
		if cmd := m.handleKey(typed); cmd != nil {
			cmds = append(cmds, cmd)
		}
	default:
		if cmd := m.forward(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

// forward hands msg to whichever widget owns input right now.
func (m *Model) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.promptKind != promptNone {
		m.prompt, cmd = m.prompt.Update(msg)
		return cmd
	}
	switch m.focus {
	case focusURL:
		before := m.urlInput.Value()
		m.urlInput, cmd = m.urlInput.Update(msg)
		if after := m.urlInput.Value(); after != before {
			m.apply(app.SetURL{URL: after})
		}
	case focusBody:
		before := m.bodyInput.Value()
		m.bodyInput, cmd = m.bodyInput.Update(msg)
		if after := m.bodyInput.Value(); after != before {
			m.apply(app.SetBody{Body: after})
		}
	case focusResponse:
		m.response, cmd = m.response.Update(msg)
	}
	return cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.promptKind != promptNone {
		return m.handlePromptKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Send):
		m.apply(app.Dispatch{})
		return nil
	case key.Matches(msg, m.keys.NewTab):
		m.apply(app.CreateSession{})
		return nil
	case key.Matches(msg, m.keys.CloseTab):
		m.apply(app.CloseSession{})
		return nil
	case key.Matches(msg, m.keys.NextTab):
		m.cycleTab(1)
		return nil
	case key.Matches(msg, m.keys.PrevTab):
		m.cycleTab(-1)
		return nil
	case key.Matches(msg, m.keys.RenameTab):
		return m.openPrompt(promptRename, "Tab name", m.frame.Active)
	case key.Matches(msg, m.keys.Method):
		m.apply(app.SetMethod{Method: m.frame.Current().Definition.Method.Next()})
		return nil
	case key.Matches(msg, m.keys.LoadEnv):
		return m.openPrompt(promptEnv, "Path to .json, .yaml or .env file", m.frame.Current().EnvSource)
	case key.Matches(msg, m.keys.ReloadEnv):
		m.apply(app.ReloadEnvironment{})
		return nil
	case key.Matches(msg, m.keys.ClearEnv):
		m.apply(app.ClearEnvironment{})
		m.setStatusMessage(statusMsg{text: "Environment cleared", level: statusInfo})
		return nil
	case key.Matches(msg, m.keys.NextFocus):
		m.setFocus((m.focus + 1) % focusCount)
		return nil
	case key.Matches(msg, m.keys.PrevFocus):
		m.setFocus((m.focus + focusCount - 1) % focusCount)
		return nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.applyLayout()
		return nil
	}

	switch m.focus {
	case focusHeaders:
		return m.handleRowKey(msg, app.Headers)
	case focusQuery:
		return m.handleRowKey(msg, app.Query)
	case focusResponse:
		return m.handleResponseKey(msg)
	case focusHistory:
		return m.handleHistoryKey(msg)
	}
	return m.forward(msg)
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closePrompt()
		return nil
	case key.Matches(msg, m.keys.Submit):
		kind, value := m.promptKind, strings.TrimSpace(m.prompt.Value())
		m.closePrompt()
		return m.submitPrompt(kind, value)
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return cmd
}

func (m *Model) submitPrompt(kind promptKind, value string) tea.Cmd {
	switch kind {
	case promptRename:
		if value == m.frame.Active {
			return nil
		}
		m.apply(app.RenameSession{Old: m.frame.Active, New: value})
	case promptEnv:
		m.apply(app.LoadEnvironment{Path: value})
	case promptRow:
		k, v := splitRow(value)
		if m.promptIndex < 0 {
			m.apply(app.AddRow{Target: m.promptTarget, Key: k, Value: v})
			m.rowCursor[m.promptTarget] = m.rowsFor(m.promptTarget).Len() - 1
		} else {
			m.apply(app.SetRow{Target: m.promptTarget, Index: m.promptIndex, Key: k, Value: v})
		}
	case promptSave:
		return m.saveBody(value)
	}
	return nil
}

func (m *Model) cycleTab(step int) {
	n := len(m.frame.Sessions)
	if n < 2 {
		return
	}
	idx := 0
	for i, s := range m.frame.Sessions {
		if s.Name == m.frame.Active {
			idx = i
			break
		}
	}
	next := m.frame.Sessions[(idx+step+n)%n]
	m.apply(app.Activate{Session: next.Name})
}

func (m *Model) rowsFor(target app.RowTarget) request.Rows {
	def := m.frame.Current().Definition
	if target == app.Query {
		return def.Query
	}
	return def.Headers
}

func (m *Model) handleRowKey(msg tea.KeyMsg, target app.RowTarget) tea.Cmd {
	rows := m.rowsFor(target)
	cursor := &m.rowCursor[target]
	switch {
	case key.Matches(msg, m.keys.Up):
		*cursor = clampIndex(*cursor-1, rows.Len())
	case key.Matches(msg, m.keys.Down):
		*cursor = clampIndex(*cursor+1, rows.Len())
	case key.Matches(msg, m.keys.AddRow):
		m.promptTarget, m.promptIndex = target, -1
		return m.openPrompt(promptRow, "key: value", "")
	case target == app.Query && (key.Matches(msg, m.keys.EditRow) || key.Matches(msg, m.keys.RemoveRow)):
		m.setStatusMessage(statusMsg{text: "Query rows follow the URL; edit the URL instead", level: statusWarn})
	case key.Matches(msg, m.keys.EditRow):
		p := rows.At(*cursor)
		m.promptTarget, m.promptIndex = target, *cursor
		value := ""
		if p.Key != "" {
			value = p.Key + ": " + p.Value
		}
		return m.openPrompt(promptRow, "key: value", value)
	case key.Matches(msg, m.keys.RemoveRow):
		m.apply(app.RemoveRow{Target: target, Index: *cursor})
	}
	return nil
}

func (m *Model) handleResponseKey(msg tea.KeyMsg) tea.Cmd {
	cur := m.frame.Current()
	view := cur.View
	switch {
	case key.Matches(msg, m.keys.CyclePane):
		view.Pane = view.Pane.Next()
	case key.Matches(msg, m.keys.ToggleWrap):
		view.Wrap = !view.Wrap
	case key.Matches(msg, m.keys.ToggleColor):
		view.Highlight = !view.Highlight
	case key.Matches(msg, m.keys.CopyBody):
		return m.copyResult(false)
	case key.Matches(msg, m.keys.CopyHeaders):
		return m.copyResult(true)
	case key.Matches(msg, m.keys.SaveBody):
		res := cur.Result.Resource
		if !cur.HasResult || res == nil {
			m.setStatusMessage(statusMsg{text: "No response to save", level: statusWarn})
			return nil
		}
		return m.openPrompt(promptSave, "Save body to", res.FilenameHint())
	default:
		return m.forward(msg)
	}
	m.apply(app.SetView{View: view})
	return nil
}

func (m *Model) handleHistoryKey(msg tea.KeyMsg) tea.Cmd {
	entries := m.frame.History
	switch {
	case key.Matches(msg, m.keys.Up):
		m.historyCursor = clampIndex(m.historyCursor-1, len(entries))
	case key.Matches(msg, m.keys.Down):
		m.historyCursor = clampIndex(m.historyCursor+1, len(entries))
	case key.Matches(msg, m.keys.SelectHist):
		if len(entries) == 0 {
			return nil
		}
		item := entries[m.historyCursor]
		m.apply(app.SelectHistory{ID: item.ID})
		m.setStatusMessage(statusMsg{text: "Loaded " + item.Title(), level: statusInfo})
	case key.Matches(msg, m.keys.ClearHist):
		m.apply(app.ClearHistory{})
		m.setStatusMessage(statusMsg{text: "History cleared", level: statusInfo})
	}
	return nil
}

func (m *Model) copyResult(headers bool) tea.Cmd {
	cur := m.frame.Current()
	res := cur.Result.Resource
	if !cur.HasResult || res == nil {
		return statusCmd(statusMsg{text: "No response available to copy", level: statusWarn})
	}
	label, content := "body", res.Text
	if headers {
		label, content = "headers", res.HeadersJSON()
	} else if content == "" && res.Response != nil {
		content = string(res.Response.Body)
	}
	return func() tea.Msg {
		if err := clipboard.WriteAll(content); err != nil {
			return statusMsg{text: "Clipboard unavailable: " + err.Error(), level: statusError}
		}
		return statusMsg{text: fmt.Sprintf("Copied %s (%d bytes)", label, len(content)), level: statusSuccess}
	}
}

func (m *Model) saveBody(path string) tea.Cmd {
	cur := m.frame.Current()
	if !cur.HasResult || cur.Result.Resource == nil {
		return statusCmd(statusMsg{text: "No response to save", level: statusWarn})
	}
	res := cur.Result.Resource
	return func() tea.Msg {
		if err := res.SaveBody(path); err != nil {
			return statusMsg{text: errdef.Message(err), level: statusError}
		}
		return statusMsg{text: "Saved body to " + path, level: statusSuccess}
	}
}

// splitRow parses "key: value". Text without a colon is taken as a key.
func splitRow(s string) (string, string) {
	k, v, _ := strings.Cut(s, ":")
	return strings.TrimSpace(k), strings.TrimSpace(v)
}

func isPending(s app.SessionFrame) bool {
	return s.Status == session.StatusPending
}
