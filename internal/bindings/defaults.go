package bindings

const (
	ActionSend          ActionID = "send"
	ActionNextFocus     ActionID = "next_focus"
	ActionPrevFocus     ActionID = "prev_focus"
	ActionNewTab        ActionID = "new_tab"
	ActionCloseTab      ActionID = "close_tab"
	ActionNextTab       ActionID = "next_tab"
	ActionPrevTab       ActionID = "prev_tab"
	ActionRenameTab     ActionID = "rename_tab"
	ActionCycleMethod   ActionID = "cycle_method"
	ActionLoadEnv       ActionID = "load_env"
	ActionReloadEnv     ActionID = "reload_env"
	ActionClearEnv      ActionID = "clear_env"
	ActionToggleHelp    ActionID = "toggle_help"
	ActionQuit          ActionID = "quit"
	ActionUp            ActionID = "up"
	ActionDown          ActionID = "down"
	ActionAddRow        ActionID = "add_row"
	ActionEditRow       ActionID = "edit_row"
	ActionRemoveRow     ActionID = "remove_row"
	ActionCyclePane     ActionID = "cycle_pane"
	ActionToggleWrap    ActionID = "toggle_wrap"
	ActionToggleColor   ActionID = "toggle_highlight"
	ActionCopyBody      ActionID = "copy_body"
	ActionCopyHeaders   ActionID = "copy_headers"
	ActionSaveBody      ActionID = "save_body"
	ActionSelectHistory ActionID = "select_history"
	ActionClearHistory  ActionID = "clear_history"
	ActionSubmit        ActionID = "submit"
	ActionCancel        ActionID = "cancel"
)

type definition struct {
	id       ActionID
	scope    Scope
	defaults []string
	help     string
}

var definitions = []definition{
	{ActionSend, ScopeGlobal, []string{"ctrl+r"}, "send"},
	{ActionNextFocus, ScopeGlobal, []string{"tab"}, "next field"},
	{ActionPrevFocus, ScopeGlobal, []string{"shift+tab"}, "prev field"},
	{ActionNewTab, ScopeGlobal, []string{"ctrl+t"}, "new tab"},
	{ActionCloseTab, ScopeGlobal, []string{"alt+w"}, "close tab"},
	{ActionNextTab, ScopeGlobal, []string{"ctrl+n", "ctrl+pgdown"}, "next tab"},
	{ActionPrevTab, ScopeGlobal, []string{"ctrl+p", "ctrl+pgup"}, "prev tab"},
	{ActionRenameTab, ScopeGlobal, []string{"f2"}, "rename tab"},
	{ActionCycleMethod, ScopeGlobal, []string{"ctrl+g"}, "method"},
	{ActionLoadEnv, ScopeGlobal, []string{"ctrl+o"}, "load env"},
	{ActionReloadEnv, ScopeGlobal, []string{"ctrl+e"}, "reload env"},
	{ActionClearEnv, ScopeGlobal, []string{"ctrl+x"}, "clear env"},
	{ActionToggleHelp, ScopeGlobal, []string{"f1"}, "help"},
	{ActionQuit, ScopeGlobal, []string{"ctrl+c", "ctrl+q"}, "quit"},
	{ActionUp, ScopeList, []string{"up", "k"}, "up"},
	{ActionDown, ScopeList, []string{"down", "j"}, "down"},
	{ActionAddRow, ScopeRows, []string{"a"}, "add row"},
	{ActionEditRow, ScopeRows, []string{"enter", "e"}, "edit row"},
	{ActionRemoveRow, ScopeRows, []string{"d", "delete"}, "remove row"},
	{ActionCyclePane, ScopeResponse, []string{"v"}, "headers/body/info"},
	{ActionToggleWrap, ScopeResponse, []string{"w"}, "wrap"},
	{ActionToggleColor, ScopeResponse, []string{"h"}, "highlight"},
	{ActionCopyBody, ScopeResponse, []string{"y"}, "copy body"},
	{ActionCopyHeaders, ScopeResponse, []string{"Y"}, "copy headers"},
	{ActionSaveBody, ScopeResponse, []string{"s"}, "save body"},
	{ActionSelectHistory, ScopeHistory, []string{"enter"}, "load into tab"},
	{ActionClearHistory, ScopeHistory, []string{"x"}, "clear history"},
	{ActionSubmit, ScopePrompt, []string{"enter"}, "confirm"},
	{ActionCancel, ScopePrompt, []string{"esc"}, "cancel"},
}

var definitionLookup = func() map[ActionID]definition {
	out := make(map[ActionID]definition, len(definitions))
	for _, def := range definitions {
		out[def.id] = def
	}
	return out
}()
