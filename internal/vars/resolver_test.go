package vars

import (
	"testing"

	"github.com/unkn0wn-root/reqdeck/internal/errdef"
)

func TestResolveSubstitutesEveryOccurrence(t *testing.T) {
	t.Parallel()

	env := Environment{Entries: []Entry{
		{Name: "host", Value: "api.test"},
		{Name: "v", Value: "2"},
	}}
	out, err := Resolve("https://{host}/v{v}/{host}", env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "https://api.test/v2/api.test" {
		t.Fatalf("unexpected expansion %q", out)
	}
}

func TestResolveLeavesUnknownPlaceholders(t *testing.T) {
	t.Parallel()

	out, err := Resolve("{missing}/{{host}}", Environment{Entries: []Entry{{Name: "host", Value: "h"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "{missing}/{h}" {
		t.Fatalf("unexpected expansion %q", out)
	}
}

func TestResolveMalformedValueReturnsPartialResult(t *testing.T) {
	t.Parallel()

	env := Environment{Entries: []Entry{
		{Name: "port", Value: float64(8080)},
		{Name: "host", Value: "localhost"},
	}}
	out, err := Resolve("http://{host}:{port}", env)
	if err == nil {
		t.Fatalf("expected malformed value error")
	}
	if errdef.CodeOf(err) != errdef.CodeValidation {
		t.Fatalf("expected validation code, got %q", errdef.CodeOf(err))
	}
	if out != "http://localhost:{port}" {
		t.Fatalf("expected partial substitution, got %q", out)
	}
}

func TestResolveFirstEntryWinsOnOverlap(t *testing.T) {
	t.Parallel()

	env := Environment{Entries: []Entry{
		{Name: "a", Value: "{b}"},
		{Name: "b", Value: "x"},
	}}
	out, err := Resolve("{a}", env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "x" {
		t.Fatalf("expected chained substitution in entry order, got %q", out)
	}

	reversed := Environment{Entries: []Entry{env.Entries[1], env.Entries[0]}}
	out, _ = Resolve("{a}", reversed)
	if out != "{b}" {
		t.Fatalf("expected later entry to be applied last, got %q", out)
	}
}

func TestResolveIsIdempotentOnceSubstituted(t *testing.T) {
	t.Parallel()

	env := Environment{Entries: []Entry{
		{Name: "host", Value: "api.test"},
		{Name: "token", Value: "abc"},
	}}
	templates := []string{
		"",
		"https://{host}/x?t={token}",
		"{token}{token}{host}",
		"no placeholders",
		"{unknown}",
	}
	for _, tmpl := range templates {
		once, err := Resolve(tmpl, env)
		if err != nil {
			t.Fatalf("resolve %q: %v", tmpl, err)
		}
		twice, err := Resolve(once, env)
		if err != nil {
			t.Fatalf("resolve twice %q: %v", tmpl, err)
		}
		if once != twice {
			t.Fatalf("resolve not idempotent for %q: %q vs %q", tmpl, once, twice)
		}
	}
}

func TestResolveEmptyEnvironment(t *testing.T) {
	t.Parallel()

	out, err := Resolve("https://{host}/get", Environment{})
	if err != nil || out != "https://{host}/get" {
		t.Fatalf("expected template unchanged, got %q (%v)", out, err)
	}
}
