package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unkn0wn-root/reqdeck/internal/app"
	"github.com/unkn0wn-root/reqdeck/internal/bindings"
	"github.com/unkn0wn-root/reqdeck/internal/config"
)

const (
	defaultPollInterval = 100 * time.Millisecond
	maxVisibleRows      = 3
	tabTitleWidth       = 18
)

type paneFocus int

const (
	focusURL paneFocus = iota
	focusHeaders
	focusQuery
	focusBody
	focusResponse
	focusHistory
	focusCount
)

type promptKind int

const (
	promptNone promptKind = iota
	promptRename
	promptEnv
	promptRow
	promptSave
)

type Config struct {
	App    *app.App
	Layout config.LayoutSettings
	// Autosave is the interval between SaveIfDirty calls. Zero disables it.
	Autosave     time.Duration
	PollInterval time.Duration
	Version      string
	// Bindings overrides the default shortcuts. Nil uses the defaults.
	Bindings *bindings.Map
}

// Model renders frames produced by app.App and turns keys into commands.
// It never touches sessions directly.
type Model struct {
	cfg   Config
	app   *app.App
	keys  keyMap
	help  help.Model
	style styles

	frame app.Frame
	focus paneFocus

	urlInput  textinput.Model
	bodyInput textarea.Model
	response  viewport.Model
	spinner   spinner.Model

	prompt       textinput.Model
	promptKind   promptKind
	promptTarget app.RowTarget
	promptIndex  int

	rowCursor     [2]int
	historyCursor int
	responseKey   string

	statusMessage statusMsg

	width  int
	height int
	ready  bool
}

var _ tea.Model = Model{}

func New(cfg Config) Model {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	cfg.Layout = config.NormaliseLayoutSettings(cfg.Layout)

	url := textinput.New()
	url.Placeholder = "https://example.com/{path}"
	url.Prompt = ""

	body := textarea.New()
	body.Placeholder = "Request body"
	body.ShowLineNumbers = false

	prompt := textinput.New()

	m := Model{
		cfg:       cfg,
		app:       cfg.App,
		keys:      newKeyMap(cfg.Bindings),
		help:      help.New(),
		style:     defaultStyles(),
		urlInput:  url,
		bodyInput: body,
		response:  viewport.New(0, 0),
		spinner:   createRequestSpinner(),
		prompt:    prompt,
	}
	m.urlInput.Focus()
	m.refresh(m.app.Frame())
	return m
}

func createRequestSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return s
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		pollTickCmd(m.cfg.PollInterval),
		autosaveTickCmd(m.cfg.Autosave),
	)
}

// Frame returns the last frame the model rendered from.
func (m Model) Frame() app.Frame {
	return m.frame
}

func (m Model) Focus() paneFocus {
	return m.focus
}

func (m *Model) setStatusMessage(msg statusMsg) {
	m.statusMessage = msg
}

// refresh adopts a new frame. Inputs are only rewritten when the active
// definition no longer matches them, so typing keeps its cursor.
func (m *Model) refresh(f app.Frame) {
	m.frame = f
	for _, n := range m.app.Notifications() {
		m.setStatusMessage(statusFromNotification(n))
	}
	cur := f.Current()
	if m.urlInput.Value() != cur.Definition.URL {
		m.urlInput.SetValue(cur.Definition.URL)
	}
	if m.bodyInput.Value() != cur.Definition.Body {
		m.bodyInput.SetValue(cur.Definition.Body)
	}
	for i, rows := range [2]int{cur.Definition.Headers.Len(), cur.Definition.Query.Len()} {
		m.rowCursor[i] = clampIndex(m.rowCursor[i], rows)
	}
	m.historyCursor = clampIndex(m.historyCursor, len(f.History))
	if m.ready {
		m.applyLayout()
	} else {
		m.syncResponse()
	}
}

// apply forwards cmd to the core and re-renders from its new frame.
func (m *Model) apply(cmd app.Command) {
	_ = m.app.Apply(cmd)
	m.refresh(m.app.Frame())
}

func (m *Model) setFocus(f paneFocus) {
	m.focus = f
	m.urlInput.Blur()
	m.bodyInput.Blur()
	switch f {
	case focusURL:
		m.urlInput.Focus()
	case focusBody:
		m.bodyInput.Focus()
	}
}

func (m *Model) openPrompt(kind promptKind, placeholder, value string) tea.Cmd {
	m.promptKind = kind
	m.prompt.Placeholder = placeholder
	m.prompt.SetValue(value)
	m.prompt.CursorEnd()
	m.urlInput.Blur()
	m.bodyInput.Blur()
	return m.prompt.Focus()
}

func (m *Model) closePrompt() {
	m.promptKind = promptNone
	m.prompt.Blur()
	m.prompt.SetValue("")
	m.setFocus(m.focus)
}

func clampIndex(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
