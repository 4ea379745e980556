package vars

import (
	"strings"

	"github.com/unkn0wn-root/reqdeck/internal/errdef"
)

// Store is the environment owned by one session together with the source
// it was last loaded from.
type Store struct {
	Env    Environment `json:"environment"`
	Source string      `json:"source,omitempty"`
}

// Load reads path and replaces the environment wholesale. On failure the
// current environment is left untouched.
func (s *Store) Load(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errdef.New(errdef.CodeEnvironment, "environment path is empty")
	}
	env, err := LoadFile(path)
	if err != nil {
		return err
	}
	s.Env = env
	s.Source = path
	return nil
}

// Reload re-reads the remembered source.
func (s *Store) Reload() error {
	if s.Source == "" {
		return errdef.New(errdef.CodeEnvironment, "no environment source to reload")
	}
	return s.Load(s.Source)
}

// Clear empties the environment. The source is kept so Reload still works.
func (s *Store) Clear() {
	s.Env = Environment{}
}

func (s *Store) Loaded() bool {
	return s.Env.Loaded()
}

func (s Store) Clone() Store {
	return Store{Env: s.Env.Clone(), Source: s.Source}
}
