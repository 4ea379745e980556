package app

import (
	"github.com/unkn0wn-root/reqdeck/internal/request"
	"github.com/unkn0wn-root/reqdeck/internal/session"
)

// Command is a request from the presentation layer. The core state is only
// ever changed through Apply.
type Command interface {
	command()
}

// Session-scoped commands use the active session when Session is empty.

type Dispatch struct{ Session string }

type CreateSession struct{}

type RenameSession struct{ Old, New string }

type CloseSession struct{ Session string }

type Activate struct{ Session string }

type ClearHistory struct{}

type SelectHistory struct {
	ID      string
	Session string
}

type LoadEnvironment struct {
	Session string
	Path    string
}

type ClearEnvironment struct{ Session string }

type ReloadEnvironment struct{ Session string }

type SetMethod struct {
	Session string
	Method  request.Method
}

type SetURL struct {
	Session string
	URL     string
}

type SetBody struct {
	Session string
	Body    string
}

// RowTarget selects the header or query rows of a definition.
type RowTarget int

const (
	Headers RowTarget = iota
	Query
)

// SetRow edits a header row. Query rows are rejected.
type SetRow struct {
	Session string
	Target  RowTarget
	Index   int
	Key     string
	Value   string
}

// AddRow appends a row. For Query it also extends the URL.
type AddRow struct {
	Session string
	Target  RowTarget
	Key     string
	Value   string
}

// RemoveRow drops a header row. Query rows are rejected.
type RemoveRow struct {
	Session string
	Target  RowTarget
	Index   int
}

type SetView struct {
	Session string
	View    session.View
}

func (Dispatch) command()          {}
func (CreateSession) command()     {}
func (RenameSession) command()     {}
func (CloseSession) command()      {}
func (Activate) command()          {}
func (ClearHistory) command()      {}
func (SelectHistory) command()     {}
func (LoadEnvironment) command()   {}
func (ClearEnvironment) command()  {}
func (ReloadEnvironment) command() {}
func (SetMethod) command()         {}
func (SetURL) command()            {}
func (SetBody) command()           {}
func (SetRow) command()            {}
func (AddRow) command()            {}
func (RemoveRow) command()         {}
func (SetView) command()           {}
