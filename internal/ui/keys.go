package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/unkn0wn-root/reqdeck/internal/bindings"
)

type keyMap struct {
	Send        key.Binding
	NextFocus   key.Binding
	PrevFocus   key.Binding
	NewTab      key.Binding
	CloseTab    key.Binding
	NextTab     key.Binding
	PrevTab     key.Binding
	RenameTab   key.Binding
	Method      key.Binding
	LoadEnv     key.Binding
	ReloadEnv   key.Binding
	ClearEnv    key.Binding
	Quit        key.Binding
	Cancel      key.Binding
	Submit      key.Binding
	Up          key.Binding
	Down        key.Binding
	AddRow      key.Binding
	EditRow     key.Binding
	RemoveRow   key.Binding
	CyclePane   key.Binding
	ToggleWrap  key.Binding
	ToggleColor key.Binding
	CopyBody    key.Binding
	CopyHeaders key.Binding
	SaveBody    key.Binding
	SelectHist  key.Binding
	ClearHist   key.Binding
	Help        key.Binding
}

func newKeyMap(m *bindings.Map) keyMap {
	if m == nil {
		m = bindings.DefaultMap()
	}
	bind := func(id bindings.ActionID) key.Binding {
		keys := m.Keys(id)
		if len(keys) == 0 {
			b := key.NewBinding()
			b.SetEnabled(false)
			return b
		}
		return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], bindings.Help(id)))
	}
	return keyMap{
		Send:        bind(bindings.ActionSend),
		NextFocus:   bind(bindings.ActionNextFocus),
		PrevFocus:   bind(bindings.ActionPrevFocus),
		NewTab:      bind(bindings.ActionNewTab),
		CloseTab:    bind(bindings.ActionCloseTab),
		NextTab:     bind(bindings.ActionNextTab),
		PrevTab:     bind(bindings.ActionPrevTab),
		RenameTab:   bind(bindings.ActionRenameTab),
		Method:      bind(bindings.ActionCycleMethod),
		LoadEnv:     bind(bindings.ActionLoadEnv),
		ReloadEnv:   bind(bindings.ActionReloadEnv),
		ClearEnv:    bind(bindings.ActionClearEnv),
		Quit:        bind(bindings.ActionQuit),
		Cancel:      bind(bindings.ActionCancel),
		Submit:      bind(bindings.ActionSubmit),
		Up:          bind(bindings.ActionUp),
		Down:        bind(bindings.ActionDown),
		AddRow:      bind(bindings.ActionAddRow),
		EditRow:     bind(bindings.ActionEditRow),
		RemoveRow:   bind(bindings.ActionRemoveRow),
		CyclePane:   bind(bindings.ActionCyclePane),
		ToggleWrap:  bind(bindings.ActionToggleWrap),
		ToggleColor: bind(bindings.ActionToggleColor),
		CopyBody:    bind(bindings.ActionCopyBody),
		CopyHeaders: bind(bindings.ActionCopyHeaders),
		SaveBody:    bind(bindings.ActionSaveBody),
		SelectHist:  bind(bindings.ActionSelectHistory),
		ClearHist:   bind(bindings.ActionClearHistory),
		Help:        bind(bindings.ActionToggleHelp),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.NextFocus, k.NewTab, k.CloseTab, k.NextTab, k.Method, k.LoadEnv, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.Method, k.NextFocus, k.PrevFocus, k.Quit},
		{k.NewTab, k.CloseTab, k.NextTab, k.PrevTab, k.RenameTab},
		{k.LoadEnv, k.ReloadEnv, k.ClearEnv},
		{k.AddRow, k.EditRow, k.RemoveRow},
		{k.CyclePane, k.ToggleWrap, k.ToggleColor, k.CopyBody, k.CopyHeaders, k.SaveBody},
		{k.SelectHist, k.ClearHist},
	}
}
