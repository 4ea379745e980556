package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	envConfigDir = "REQDECK_CONFIG_DIR"
	appDirName   = "reqdeck"
)

// Dir is the directory holding settings, state and logs.
func Dir() string {
	if dir := strings.TrimSpace(os.Getenv(envConfigDir)); dir != "" {
		return dir
	}
	if base, err := os.UserConfigDir(); err == nil && base != "" {
		return filepath.Join(base, appDirName)
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, "."+appDirName)
	}
	return "." + appDirName
}

func StatePath() string {
	return filepath.Join(Dir(), "state.json")
}

func DBPath() string {
	return filepath.Join(Dir(), "state.db")
}

func LogPath() string {
	return filepath.Join(Dir(), "reqdeck.log")
}
