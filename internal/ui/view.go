package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/unkn0wn-root/reqdeck/internal/app"
	"github.com/unkn0wn-root/reqdeck/internal/config"
	"github.com/unkn0wn-root/reqdeck/internal/request"
	"github.com/unkn0wn-root/reqdeck/internal/resource"
	"github.com/unkn0wn-root/reqdeck/internal/session"
)

type layout struct {
	sideWidth      int
	contentHeight  int
	editorWidth    int
	editorHeight   int
	responseWidth  int
	responseHeight int
	bodyHeight     int
	sideBySide     bool
}

func (m Model) computeLayout() layout {
	helpLines := 1
	if m.help.ShowAll {
		helpLines = lipgloss.Height(m.help.View(m.keys))
	}
	// tabs, status line, help
	content := maxInt(m.height-2-helpLines, 8)
	side := int(float64(m.width) * m.cfg.Layout.HistoryWidth)
	main := maxInt(m.width-side, 20)
	l := layout{sideWidth: side, contentHeight: content}
	// Horizontal puts the editor and the response next to each other.
	if m.cfg.Layout.MainSplit == config.LayoutMainSplitHorizontal {
		l.sideBySide = true
		l.editorWidth = maxInt(int(float64(main)*m.cfg.Layout.EditorSplit), 10)
		l.responseWidth = maxInt(main-l.editorWidth, 10)
		l.editorHeight = content
		l.responseHeight = content
	} else {
		l.editorWidth = main
		l.responseWidth = main
		l.editorHeight = int(float64(content) * m.cfg.Layout.EditorSplit)
		l.responseHeight = content - l.editorHeight
	}
	cur := m.frame.Current()
	rows := visibleRows(cur.Definition.Headers.Len()) + visibleRows(cur.Definition.Query.Len())
	// border, url line, three labels
	l.bodyHeight = maxInt(l.editorHeight-2-4-rows, 1)
	return l
}

func (m *Model) applyLayout() {
	if !m.ready {
		return
	}
	l := m.computeLayout()
	inner := maxInt(l.editorWidth-2, 1)
	methodWidth := len(m.frame.Current().Definition.Method.String()) + 1
	m.urlInput.Width = maxInt(inner-methodWidth-1, 1)
	m.bodyInput.SetWidth(inner)
	m.bodyInput.SetHeight(l.bodyHeight)
	m.response.Width = maxInt(l.responseWidth-2, 1)
	m.response.Height = maxInt(l.responseHeight-3, 1)
	m.help.Width = m.width
	m.prompt.Width = maxInt(m.width/2, 20)
	m.syncResponse()
}

// syncResponse rebuilds the viewport content when the shown result or its
// view toggles changed.
func (m *Model) syncResponse() {
	cur := m.frame.Current()
	k := fmt.Sprintf("%s|%p|%s|%v|%d", cur.ID, cur.Result.Resource, cur.Result.Err, cur.View, m.response.Width)
	if k == m.responseKey {
		return
	}
	m.responseKey = k
	m.response.SetContent(renderResult(cur, m.response.Width, m.style))
	m.response.GotoTop()
}

func renderResult(s app.SessionFrame, width int, st styles) string {
	if !s.HasResult {
		return st.dim.Render("No response yet. Press ctrl+r to send.")
	}
	if s.Result.Err != "" {
		return st.errText.Render(s.Result.Err)
	}
	res := s.Result.Resource
	if res == nil {
		return ""
	}
	var text string
	switch s.View.Pane {
	case session.PaneHeaders:
		text = strings.Join(res.HeaderLines(), "\n")
	case session.PaneBody:
		text = res.Display()
		if res.Kind == resource.KindHighlighted && !s.View.Highlight {
			text = res.Text
		}
	case session.PaneInfo:
		text = renderInfo(res)
	}
	if s.View.Wrap && width > 0 {
		text = lipgloss.NewStyle().Width(width).Render(text)
	}
	return text
}

func renderInfo(res *resource.Resource) string {
	resp := res.Response
	lines := []string{
		"Status:  " + res.StatusLine(),
		"URL:     " + resp.EffectiveURL,
		"Request: " + resp.ReqMethod,
		"Elapsed: " + res.Elapsed.String(),
		fmt.Sprintf("Size:    %d bytes", len(resp.Body)),
		"Type:    " + res.Kind.String(),
	}
	if ct := resp.ContentType(); ct != "" {
		lines = append(lines, "Content: "+ct)
	}
	if res.Kind == resource.KindBinary {
		lines = append(lines, "Save as: "+res.FilenameHint())
	}
	return strings.Join(lines, "\n")
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	l := m.computeLayout()
	join := lipgloss.JoinVertical
	if l.sideBySide {
		join = lipgloss.JoinHorizontal
	}
	main := join(lipgloss.Top, m.renderEditor(l), m.renderResponse(l))
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderHistory(l), main)
	if m.promptKind != promptNone {
		body = lipgloss.Place(m.width, lipgloss.Height(body), lipgloss.Center, lipgloss.Center,
			m.style.prompt.Render(m.promptTitle()+"\n"+m.prompt.View()))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabs(),
		body,
		m.renderStatus(),
		m.help.View(m.keys),
	)
}

func (m Model) promptTitle() string {
	switch m.promptKind {
	case promptRename:
		return "Rename tab"
	case promptEnv:
		return "Load environment"
	case promptRow:
		if m.promptTarget == app.Query {
			return "Query parameter"
		}
		return "Header"
	case promptSave:
		return "Save response body"
	}
	return ""
}

func (m Model) paneStyle(focused bool) lipgloss.Style {
	if focused {
		return m.style.focusedPane
	}
	return m.style.pane
}

func (m Model) renderTabs() string {
	parts := make([]string, 0, len(m.frame.Sessions))
	for _, s := range m.frame.Sessions {
		title := runewidth.Truncate(s.Name, tabTitleWidth, "…")
		if isPending(s) {
			title = m.spinner.View() + title
		}
		if s.Name == m.frame.Active {
			parts = append(parts, m.style.activeTab.Render(title))
		} else {
			parts = append(parts, m.style.tab.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderEditor(l layout) string {
	cur := m.frame.Current()
	def := cur.Definition
	method := lipgloss.NewStyle().Bold(true).Foreground(methodColor(def.Method.String())).
		Render(def.Method.String())
	lines := []string{
		method + " " + m.urlInput.View(),
		m.label("Headers", focusHeaders),
	}
	lines = append(lines, m.renderRows(def.Headers, m.rowCursor[app.Headers], m.focus == focusHeaders)...)
	lines = append(lines, m.label("Query (add only)", focusQuery))
	lines = append(lines, m.renderRows(def.Query, m.rowCursor[app.Query], m.focus == focusQuery)...)
	lines = append(lines, m.label("Body", focusBody), m.bodyInput.View())

	focused := m.focus <= focusBody
	return m.paneStyle(focused).
		Width(maxInt(l.editorWidth-2, 1)).
		Height(maxInt(l.editorHeight-2, 1)).
		Render(strings.Join(lines, "\n"))
}

func (m Model) label(text string, f paneFocus) string {
	if m.focus == f {
		return m.style.label.Underline(true).Render(text)
	}
	return m.style.label.Render(text)
}

func visibleRows(n int) int {
	return minInt(maxInt(n, 1), maxVisibleRows)
}

// renderRows shows a window of rows that keeps the cursor visible.
func (m Model) renderRows(rows request.Rows, cursor int, focused bool) []string {
	n := rows.Len()
	start := 0
	if cursor >= maxVisibleRows {
		start = cursor - maxVisibleRows + 1
	}
	end := minInt(start+maxVisibleRows, n)
	out := make([]string, 0, visibleRows(n))
	for i := start; i < end; i++ {
		p := rows.At(i)
		text := m.style.dim.Render("  (empty)")
		if p.Key != "" {
			text = "  " + p.Key + ": " + p.Value
		}
		if focused && i == cursor {
			text = m.style.selected.Render(text)
		}
		out = append(out, text)
	}
	if len(out) == 0 {
		out = append(out, m.style.dim.Render("  (empty)"))
	}
	return out
}

func (m Model) renderResponse(l layout) string {
	cur := m.frame.Current()
	var header string
	switch {
	case isPending(cur):
		header = m.spinner.View() + " Sending..."
	case cur.HasResult && cur.Result.Resource != nil:
		header = cur.Result.Resource.StatusLine()
	case cur.HasResult:
		header = m.style.errText.Render("Request failed")
	default:
		header = m.style.dim.Render("Idle")
	}
	tabs := make([]string, 0, 3)
	for _, p := range []session.Pane{session.PaneHeaders, session.PaneBody, session.PaneInfo} {
		name := strings.ToUpper(p.String()[:1]) + p.String()[1:]
		if p == cur.View.Pane {
			tabs = append(tabs, m.style.label.Render(name))
		} else {
			tabs = append(tabs, m.style.dim.Render(name))
		}
	}
	flags := m.style.dim.Render(fmt.Sprintf("wrap:%s hl:%s", onOff(cur.View.Wrap), onOff(cur.View.Highlight)))
	header = header + "  " + strings.Join(tabs, " | ") + "  " + flags

	return m.paneStyle(m.focus == focusResponse).
		Width(maxInt(l.responseWidth-2, 1)).
		Height(maxInt(l.responseHeight-2, 1)).
		Render(header + "\n" + m.response.View())
}

func (m Model) renderHistory(l layout) string {
	width := maxInt(l.sideWidth-2, 1)
	height := maxInt(l.contentHeight-2, 1)
	lines := []string{m.style.label.Render("History")}
	entries := m.frame.History
	if len(entries) == 0 {
		lines = append(lines, m.style.dim.Render("empty"))
	}
	start := 0
	if visible := height - 1; m.historyCursor >= visible && visible > 0 {
		start = m.historyCursor - visible + 1
	}
	for i := start; i < len(entries) && len(lines) < height; i++ {
		it := entries[i]
		title := runewidth.Truncate(it.Title(), width, "…")
		if i == m.historyCursor && m.focus == focusHistory {
			title = m.style.selected.Render(title)
		} else {
			title = lipgloss.NewStyle().Foreground(methodColor(it.Method.String())).Render(title)
		}
		lines = append(lines, title)
	}
	return m.paneStyle(m.focus == focusHistory).
		Width(width).
		Height(height).
		Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatus() string {
	cur := m.frame.Current()
	env := m.style.dim.Render("env: none")
	if cur.EnvLoaded {
		env = m.style.dim.Render(fmt.Sprintf("env: %s (%d vars)", cur.EnvSource, len(cur.EnvPreview)))
	} else if cur.EnvSource != "" {
		env = m.style.dim.Render("env: " + cur.EnvSource + " (empty)")
	}
	text := m.style.status[m.statusMessage.level].Render(m.statusMessage.text)
	gap := maxInt(m.width-lipgloss.Width(text)-lipgloss.Width(env), 1)
	return text + strings.Repeat(" ", gap) + env
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
