package bindings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Format identifies the serialization format for shortcut configs.
type Format string

const (
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// Source describes where the bindings config was loaded from.
type Source struct {
	Path   string
	Format Format
}

// ActionID uniquely identifies a shortcut action.
type ActionID string

// Scope is the focus area in which an action is active. Global actions
// apply everywhere, so their keys may not be reused by any other scope.
type Scope string

const (
	ScopeGlobal   Scope = "global"
	ScopeList     Scope = "list"
	ScopeRows     Scope = "rows"
	ScopeResponse Scope = "response"
	ScopeHistory  Scope = "history"
	ScopePrompt   Scope = "prompt"
)

func overlaps(a, b Scope) bool {
	if a == b || a == ScopeGlobal || b == ScopeGlobal {
		return true
	}
	list := func(x, y Scope) bool {
		return x == ScopeList && (y == ScopeRows || y == ScopeHistory)
	}
	return list(a, b) || list(b, a)
}

// Map stores the resolved keys of every action.
type Map struct {
	keys map[ActionID][]string
}

// Load attempts to read bindings from bindings.toml/json in dir. Missing files fall back to defaults.
func Load(dir string) (*Map, Source, error) {
	candidates := []Source{
		{Path: filepath.Join(dir, "bindings.toml"), Format: FormatTOML},
		{Path: filepath.Join(dir, "bindings.json"), Format: FormatJSON},
	}

	var accumulated error
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate.Path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			accumulated = errors.Join(
				accumulated,
				fmt.Errorf("read bindings %q: %w", candidate.Path, err),
			)
			continue
		}

		overrides, err := parseConfig(data, candidate.Format)
		if err != nil {
			return nil, Source{}, fmt.Errorf("parse bindings %q: %w", candidate.Path, err)
		}
		built, err := buildMap(overrides)
		if err != nil {
			return nil, Source{}, fmt.Errorf("apply bindings %q: %w", candidate.Path, err)
		}
		return built, candidate, nil
	}

	if accumulated != nil {
		return nil, Source{}, accumulated
	}
	return DefaultMap(), Source{Path: candidates[0].Path, Format: FormatTOML}, nil
}

// DefaultMap builds the built-in bindings without consulting disk.
func DefaultMap() *Map {
	m, err := buildMap(nil)
	if err != nil {
		panic(err)
	}
	return m
}

// Keys returns the keys bound to action in bubbletea notation.
func (m *Map) Keys(action ActionID) []string {
	if m == nil {
		m = DefaultMap()
	}
	return append([]string(nil), m.keys[action]...)
}

// Lookup finds the action bound to key within scope or globally.
func (m *Map) Lookup(scope Scope, key string) (ActionID, bool) {
	if m == nil {
		return "", false
	}
	for _, def := range definitions {
		if def.scope != scope && def.scope != ScopeGlobal {
			continue
		}
		for _, k := range m.keys[def.id] {
			if k == key {
				return def.id, true
			}
		}
	}
	return "", false
}

// Help returns the short description shown in the help bar.
func Help(action ActionID) string {
	if def, ok := definitionLookup[action]; ok {
		return def.help
	}
	return ""
}

type configFile struct {
	Bindings map[string][]string `json:"bindings" toml:"bindings"`
}

func parseConfig(data []byte, format Format) (map[ActionID][]string, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var payload configFile
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	overrides := make(map[ActionID][]string, len(payload.Bindings))
	for name, specs := range payload.Bindings {
		id := ActionID(name)
		if _, ok := definitionLookup[id]; !ok {
			return nil, fmt.Errorf("unknown action %q", name)
		}
		keys := make([]string, 0, len(specs))
		for _, spec := range specs {
			key, err := normalizeStep(spec)
			if err != nil {
				return nil, fmt.Errorf("action %q: %w", name, err)
			}
			keys = append(keys, key)
		}
		overrides[id] = keys
	}
	return overrides, nil
}

func buildMap(overrides map[ActionID][]string) (*Map, error) {
	keys := make(map[ActionID][]string, len(definitions))
	for _, def := range definitions {
		src := def.defaults
		if o, ok := overrides[def.id]; ok {
			src = o
		}
		seen := make(map[string]struct{}, len(src))
		for _, k := range src {
			if _, dup := seen[k]; dup {
				return nil, fmt.Errorf("action %s: duplicate binding %q", def.id, k)
			}
			seen[k] = struct{}{}
		}
		keys[def.id] = append([]string(nil), src...)
	}

	for i, a := range definitions {
		for _, b := range definitions[i+1:] {
			if !overlaps(a.scope, b.scope) {
				continue
			}
			for _, k := range keys[a.id] {
				for _, other := range keys[b.id] {
					if k == other {
						return nil, fmt.Errorf("binding %q assigned to both %s and %s", k, a.id, b.id)
					}
				}
			}
		}
	}
	return &Map{keys: keys}, nil
}

// normalizeStep canonicalises a key spec to the form bubbletea reports,
// e.g. "Ctrl+R" -> "ctrl+r" and "option+w" -> "alt+w". Single printable
// characters keep their case.
func normalizeStep(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty key step")
	}
	if strings.ContainsAny(raw, " \t") {
		return "", fmt.Errorf("binding %q: multi-step sequences are not supported", raw)
	}
	if len([]rune(raw)) == 1 || !strings.Contains(raw, "+") {
		if len([]rune(raw)) == 1 {
			return raw, nil
		}
		return strings.ToLower(raw), nil
	}

	var keyParts []string
	modSet := make(map[string]struct{})
	for _, part := range strings.Split(raw, "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch lower := strings.ToLower(part); lower {
		case "ctrl", "control":
			modSet["ctrl"] = struct{}{}
		case "alt", "option", "meta":
			modSet["alt"] = struct{}{}
		case "shift":
			modSet["shift"] = struct{}{}
		default:
			keyParts = append(keyParts, lower)
		}
	}
	if len(keyParts) == 0 {
		return "", fmt.Errorf("binding %q missing key", raw)
	}
	key := strings.Join(keyParts, "+")
	mods := orderedModifiers(modSet)
	if len(mods) == 0 {
		return key, nil
	}
	return strings.Join(append(mods, key), "+"), nil
}

func orderedModifiers(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	order := []string{"alt", "ctrl", "shift"}
	out := make([]string, 0, len(set))
	for _, mod := range order {
		if _, ok := set[mod]; ok {
			out = append(out, mod)
		}
	}
	return out
}

// KnownActions returns the sorted list of action identifiers.
func KnownActions() []ActionID {
	ids := make([]ActionID, 0, len(definitions))
	for _, def := range definitions {
		ids = append(ids, def.id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
