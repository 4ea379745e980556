package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

const (
	SettingsFormatTOML SettingsFormat = "toml"
	SettingsFormatJSON SettingsFormat = "json"
)

const (
	StateBackendJSON   = "json"
	StateBackendSQLite = "sqlite"

	DefaultHighlightStyle = "monokai"
	DefaultMaxBodyBytes   = 50 * 1024 * 1024
)

type Settings struct {
	LogLevel    string              `json:"log_level"   toml:"log_level"`
	HTTP        HTTPSettings        `json:"http"        toml:"http"`
	State       StateSettings       `json:"state"       toml:"state"`
	Environment EnvironmentSettings `json:"environment" toml:"environment"`
	Highlight   HighlightSettings   `json:"highlight"   toml:"highlight"`
	Layout      LayoutSettings      `json:"layout"      toml:"layout"`
}

type HTTPSettings struct {
	Timeout         Duration `json:"timeout"          toml:"timeout"`
	FollowRedirects bool     `json:"follow_redirects" toml:"follow_redirects"`
	Insecure        bool     `json:"insecure"         toml:"insecure"`
	Proxy           string   `json:"proxy"            toml:"proxy"`
	HTTP2           bool     `json:"http2"            toml:"http2"`
	MaxBodyBytes    int64    `json:"max_body_bytes"   toml:"max_body_bytes"`
}

type StateSettings struct {
	Backend  string   `json:"backend"  toml:"backend"`
	Autosave Duration `json:"autosave" toml:"autosave"`
}

type EnvironmentSettings struct {
	Watch bool `json:"watch" toml:"watch"`
}

type HighlightSettings struct {
	Enabled bool   `json:"enabled" toml:"enabled"`
	Style   string `json:"style"   toml:"style"`
}

// Duration reads and writes as a Go duration string such as "30s".
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func DefaultSettings() Settings {
	return Settings{
		LogLevel: zerolog.InfoLevel.String(),
		HTTP: HTTPSettings{
			Timeout:         Duration(30 * time.Second),
			FollowRedirects: true,
			HTTP2:           true,
			MaxBodyBytes:    DefaultMaxBodyBytes,
		},
		State: StateSettings{
			Backend:  StateBackendJSON,
			Autosave: Duration(10 * time.Second),
		},
		Highlight: HighlightSettings{Enabled: true, Style: DefaultHighlightStyle},
		Layout:    DefaultLayoutSettings(),
	}
}

// Normalise fills unset or invalid values with defaults.
func (s Settings) Normalise() Settings {
	def := DefaultSettings()
	if _, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s.LogLevel))); err != nil ||
		strings.TrimSpace(s.LogLevel) == "" {
		s.LogLevel = def.LogLevel
	}
	s.LogLevel = strings.ToLower(strings.TrimSpace(s.LogLevel))
	if s.HTTP.Timeout < 0 {
		s.HTTP.Timeout = def.HTTP.Timeout
	}
	if s.HTTP.MaxBodyBytes <= 0 {
		s.HTTP.MaxBodyBytes = def.HTTP.MaxBodyBytes
	}
	switch strings.ToLower(strings.TrimSpace(s.State.Backend)) {
	case StateBackendSQLite:
		s.State.Backend = StateBackendSQLite
	default:
		s.State.Backend = StateBackendJSON
	}
	if s.State.Autosave < 0 {
		s.State.Autosave = def.State.Autosave
	}
	if strings.TrimSpace(s.Highlight.Style) == "" {
		s.Highlight.Style = def.Highlight.Style
	}
	s.Layout = NormaliseLayoutSettings(s.Layout)
	return s
}

type SettingsFormat string
type SettingsHandle struct {
	Path   string
	Format SettingsFormat
}

// tries loading TOML first, then JSON, then returns empty settings if neither exists.
// parse errors fail immediately but missing files just skip to the next format.
func LoadSettings() (Settings, SettingsHandle, error) {
	dir := Dir()
	candidates := []SettingsHandle{
		{Path: filepath.Join(dir, "settings.toml"), Format: SettingsFormatTOML},
		{Path: filepath.Join(dir, "settings.json"), Format: SettingsFormatJSON},
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
				fmt.Errorf("read settings %q: %w", candidate.Path, err),
			)
			continue
		}

		settings, err := decodeSettings(data, candidate.Format)
		if err != nil {
			return Settings{}, SettingsHandle{}, fmt.Errorf(
				"parse settings %q: %w",
				candidate.Path,
				err,
			)
		}
		return settings.Normalise(), candidate, nil
	}

	if accumulated != nil {
		return Settings{}, SettingsHandle{}, accumulated
	}

	return DefaultSettings(), SettingsHandle{
			Path:   candidates[0].Path,
			Format: SettingsFormatTOML,
		}, nil
}

func decodeSettings(data []byte, format SettingsFormat) (Settings, error) {
	settings := DefaultSettings()
	switch format {
	case SettingsFormatTOML:
		if err := toml.Unmarshal(data, &settings); err != nil {
			return Settings{}, err
		}
	case SettingsFormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&settings); err != nil {
			return Settings{}, err
		}
	default:
		return Settings{}, fmt.Errorf("unsupported settings format %q", format)
	}
	return settings, nil
}

func SaveSettings(settings Settings, handle SettingsHandle) error {
	settings = settings.Normalise()
	path := handle.Path
	format := handle.Format
	if path == "" {
		path = filepath.Join(Dir(), "settings.toml")
	}
	if format == "" {
		format = SettingsFormatTOML
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure settings directory: %w", err)
	}

	var (
		data []byte
		err  error
	)

	switch format {
	case SettingsFormatTOML:
		data, err = toml.Marshal(settings)
	case SettingsFormatJSON:
		buffer := &bytes.Buffer{}
		encoder := json.NewEncoder(buffer)
		encoder.SetIndent("", "  ")
		if err = encoder.Encode(settings); err == nil {
			data = buffer.Bytes()
		}
	default:
		return fmt.Errorf("unsupported settings format %q", format)
	}
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings %q: %w", path, err)
	}
	return nil
}

// write to temp file then rename so readers never see partial/corrupt data.
// rename is atomic on most filesystems so the file is always valid.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".reqdeck-*.tmp")
	if err != nil {
		return err
	}

	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		closeErr := tmp.Close()
		if closeErr != nil {
			return errors.Join(err, closeErr)
		}
		return err
	}

	if err := tmp.Chmod(perm); err != nil {
		closeErr := tmp.Close()
		if closeErr != nil {
			return errors.Join(err, closeErr)
		}
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	return nil
}
