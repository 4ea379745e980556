package vars

import (
	"strings"

	"github.com/unkn0wn-root/reqdeck/internal/errdef"
)

// Resolve replaces every literal {name} in template with the matching
// environment value, walking entries in their loaded order. Overlapping
// names are settled by whichever entry comes first.
//
// A non-string value yields an error but the remaining entries are still
// applied, so callers get the partially substituted text back. Any error
// must stop a dispatch.
func Resolve(template string, env Environment) (string, error) {
	out := template
	var firstErr error
	for _, entry := range env.Entries {
		value, ok := entry.Value.(string)
		if !ok {
			if firstErr == nil {
				firstErr = errdef.New(
					errdef.CodeValidation,
					"malformed environment value for %q",
					entry.Name,
				)
			}
			continue
		}
		out = strings.ReplaceAll(out, placeholder(entry.Name), value)
	}
	return out, firstErr
}

// ResolveLoose is Resolve for call sites that already validated the
// environment and only want the substituted text.
func ResolveLoose(template string, env Environment) string {
	out, _ := Resolve(template, env)
	return out
}

func placeholder(name string) string {
	return "{" + name + "}"
}
