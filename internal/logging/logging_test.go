package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "reqdeck.log")
	logger, closer, err := New(Options{Path: path, Level: "debug"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug().Str("session", "Test").Msg("dispatch started")
	logger.Trace().Msg("hidden")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"message":"dispatch started"`) ||
		!strings.Contains(out, `"session":"Test"`) {
		t.Fatalf("unexpected log output %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("trace record should be filtered at debug level")
	}
}

func TestNewWithoutSinksIsNop(t *testing.T) {
	logger, closer, err := New(Options{Level: "bogus"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info().Msg("dropped")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
