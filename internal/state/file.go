package state

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/unkn0wn-root/reqdeck/internal/config"
	"github.com/unkn0wn-root/reqdeck/internal/errdef"
)

// FileBackend keeps the snapshot in a single JSON document.
type FileBackend struct {
	path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (b *FileBackend) Path() string {
	return b.path
}

func (b *FileBackend) Load() (Snapshot, bool, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, errdef.Wrap(errdef.CodeState, err, "read state")
	}
	if len(data) == 0 {
		return Snapshot{}, false, nil
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, errdef.Wrap(errdef.CodeState, err, "parse state")
	}
	return snap, true, nil
}

func (b *FileBackend) Save(snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "create state dir")
	}
	snap.Version = Version
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return errdef.Wrap(errdef.CodeState, err, "encode state")
	}
	if err := config.WriteFileAtomic(b.path, data, 0o644); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "write state")
	}
	return nil
}

func (b *FileBackend) Close() error { return nil }
