package vars

import (
	"fmt"
	"strings"
)

// Entry is one named variable. Value keeps whatever the source decoded to;
// only string values are usable for substitution.
type Entry struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Environment is an ordered set of variables. The zero value is the
// "not loaded" environment.
type Environment struct {
	Entries []Entry `json:"entries,omitempty"`
}

func (e Environment) Len() int {
	return len(e.Entries)
}

func (e Environment) Loaded() bool {
	return len(e.Entries) > 0
}

func (e Environment) Get(name string) (any, bool) {
	for _, entry := range e.Entries {
		if entry.Name == name {
			return entry.Value, true
		}
	}
	return nil, false
}

// Set replaces an existing variable in place or appends a new one.
func (e *Environment) Set(name string, value any) {
	for i := range e.Entries {
		if e.Entries[i].Name == name {
			e.Entries[i].Value = value
			return
		}
	}
	e.Entries = append(e.Entries, Entry{Name: name, Value: value})
}

func (e Environment) Clone() Environment {
	if len(e.Entries) == 0 {
		return Environment{}
	}
	return Environment{Entries: append([]Entry(nil), e.Entries...)}
}

// Preview lists variables for display; values that cannot be substituted
// show as "Invalid value".
func (e Environment) Preview() [][2]string {
	out := make([][2]string, 0, len(e.Entries))
	for _, entry := range e.Entries {
		display := "Invalid value"
		if s, ok := entry.Value.(string); ok {
			display = s
		}
		out = append(out, [2]string{entry.Name, display})
	}
	return out
}

func (e Environment) String() string {
	parts := make([]string, 0, len(e.Entries))
	for _, entry := range e.Entries {
		parts = append(parts, fmt.Sprintf("%s=%v", entry.Name, entry.Value))
	}
	return strings.Join(parts, " ")
}
