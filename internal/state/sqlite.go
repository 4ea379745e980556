package state

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/unkn0wn-root/reqdeck/internal/errdef"
	"github.com/unkn0wn-root/reqdeck/internal/history"
)

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	position   INTEGER NOT NULL,
	definition TEXT NOT NULL,
	env        TEXT NOT NULL,
	view       TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS history (
	position    INTEGER PRIMARY KEY,
	id          TEXT NOT NULL,
	executed_at DATETIME,
	method      TEXT NOT NULL,
	url         TEXT NOT NULL,
	item        TEXT NOT NULL
);
`

// SQLiteBackend stores sessions and history in separate tables.
type SQLiteBackend struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errdef.Wrap(errdef.CodeFilesystem, err, "create state dir")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeState, err, "open state db")
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errdef.Wrap(errdef.CodeState, err, "init state schema")
	}
	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func (b *SQLiteBackend) Load() (Snapshot, bool, error) {
	snap := Snapshot{Version: Version}
	found := false

	rows, err := b.db.Query(`SELECT key, value FROM meta`)
	if err != nil {
		return Snapshot{}, false, errdef.Wrap(errdef.CodeState, err, "query meta")
	}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			rows.Close()
			return Snapshot{}, false, errdef.Wrap(errdef.CodeState, err, "scan meta")
		}
		found = true
		switch key {
		case "active":
			snap.Active = value
		case "counter":
			snap.Counter, _ = strconv.Atoi(value)
		}
	}
	rows.Close()

	rows, err = b.db.Query(`SELECT id, name, definition, env, view FROM sessions ORDER BY position`)
	if err != nil {
		return Snapshot{}, false, errdef.Wrap(errdef.CodeState, err, "query sessions")
	}
	defer rows.Close()
	for rows.Next() {
		var st SessionState
		var def, env, view string
		if err := rows.Scan(&st.ID, &st.Name, &def, &env, &view); err != nil {
			return Snapshot{}, false, errdef.Wrap(errdef.CodeState, err, "scan session")
		}
		if err := decodeColumns(
			[]string{def, env, view},
			[]any{&st.Definition, &st.Env, &st.View},
		); err != nil {
			return Snapshot{}, false, errdef.Wrap(errdef.CodeState, err, "decode session %q", st.Name)
		}
		snap.Sessions = append(snap.Sessions, st)
		found = true
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, false, errdef.Wrap(errdef.CodeState, err, "iterate sessions")
	}
	rows.Close()

	hrows, err := b.db.Query(`SELECT item FROM history ORDER BY position`)
	if err != nil {
		return Snapshot{}, false, errdef.Wrap(errdef.CodeState, err, "query history")
	}
	defer hrows.Close()
	for hrows.Next() {
		var raw string
		if err := hrows.Scan(&raw); err != nil {
			return Snapshot{}, false, errdef.Wrap(errdef.CodeState, err, "scan history")
		}
		var it history.Item
		if err := json.Unmarshal([]byte(raw), &it); err != nil {
			return Snapshot{}, false, errdef.Wrap(errdef.CodeHistory, err, "decode history item")
		}
		snap.History = append(snap.History, it)
		found = true
	}
	if err := hrows.Err(); err != nil {
		return Snapshot{}, false, errdef.Wrap(errdef.CodeState, err, "iterate history")
	}
	return snap, found, nil
}

// Save replaces the stored snapshot inside one transaction.
func (b *SQLiteBackend) Save(snap Snapshot) (err error) {
	tx, err := b.db.Begin()
	if err != nil {
		return errdef.Wrap(errdef.CodeState, err, "begin state tx")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{`DELETE FROM meta`, `DELETE FROM sessions`, `DELETE FROM history`} {
		if _, err = tx.Exec(stmt); err != nil {
			return errdef.Wrap(errdef.CodeState, err, "clear state")
		}
	}

	meta := map[string]string{
		"version": strconv.Itoa(Version),
		"active":  snap.Active,
		"counter": strconv.Itoa(snap.Counter),
	}
	for k, v := range meta {
		if _, err = tx.Exec(`INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return errdef.Wrap(errdef.CodeState, err, "write meta")
		}
	}

	for i, st := range snap.Sessions {
		var cols []string
		cols, err = encodeColumns(st.Definition, st.Env, st.View)
		if err != nil {
			return errdef.Wrap(errdef.CodeState, err, "encode session %q", st.Name)
		}
		if _, err = tx.Exec(
			`INSERT INTO sessions (id, name, position, definition, env, view) VALUES (?, ?, ?, ?, ?, ?)`,
			st.ID, st.Name, i, cols[0], cols[1], cols[2],
		); err != nil {
			return errdef.Wrap(errdef.CodeState, err, "write session %q", st.Name)
		}
	}

	for i, it := range snap.History {
		var raw []byte
		raw, err = json.Marshal(it)
		if err != nil {
			return errdef.Wrap(errdef.CodeHistory, err, "encode history item")
		}
		var executed any
		if !it.ExecutedAt.IsZero() {
			executed = it.ExecutedAt.UTC().Format(time.RFC3339Nano)
		}
		if _, err = tx.Exec(
			`INSERT INTO history (id, position, executed_at, method, url, item) VALUES (?, ?, ?, ?, ?, ?)`,
			it.ID, i, executed, it.Method.String(), it.URL, string(raw),
		); err != nil {
			return errdef.Wrap(errdef.CodeState, err, "write history item %s", it.ID)
		}
	}

	if err = tx.Commit(); err != nil {
		return errdef.Wrap(errdef.CodeState, err, "commit state")
	}
	return nil
}

func encodeColumns(values ...any) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out = append(out, string(data))
	}
	return out, nil
}

func decodeColumns(raw []string, targets []any) error {
	for i := range raw {
		if err := json.Unmarshal([]byte(raw[i]), targets[i]); err != nil {
			return err
		}
	}
	return nil
}
