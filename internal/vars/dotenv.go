package vars

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/unkn0wn-root/reqdeck/internal/errdef"
)

// IsDotEnvPath matches ".env", ".env.<suffix>" and "<name>.env".
func IsDotEnvPath(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(base, ".json") {
		return false
	}
	return base == ".env" || strings.HasPrefix(base, ".env.") || strings.HasSuffix(base, ".env")
}

// dotenv reads KEY=value lines. Values may reference keys defined above
// them (or the process environment) as $NAME or ${NAME}; single-quoted
// values are taken literally.
type dotenv struct {
	path string
	line int
	seen map[string]string
	env  Environment
}

func parseDotEnv(r io.Reader, path string) (Environment, error) {
	p := &dotenv{path: path, seen: make(map[string]string)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		p.line++
		if err := p.parseLine(sc.Text()); err != nil {
			return Environment{}, err
		}
	}
	if err := sc.Err(); err != nil {
		return Environment{}, errdef.Wrap(errdef.CodeFilesystem, err, "read env file %s", path)
	}
	return p.env, nil
}

func (p *dotenv) errorf(format string, args ...any) error {
	return errdef.New(errdef.CodeParse, "%s line %d: "+format, append([]any{filepath.Base(p.path), p.line}, args...)...)
}

func (p *dotenv) parseLine(raw string) error {
	line := strings.TrimSpace(raw)
	if line == "" || line[0] == '#' || line[0] == ';' {
		return nil
	}
	if rest, ok := cutExport(line); ok {
		line = rest
	}
	key, value, ok := strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	if !ok {
		return p.errorf("expected KEY=value")
	}
	if key == "" {
		return p.errorf("missing key")
	}

	value = strings.TrimLeft(value, " \t")
	var err error
	switch {
	case strings.HasPrefix(value, "'"):
		value, err = p.quoted(value, '\'')
	case strings.HasPrefix(value, `"`):
		if value, err = p.quoted(value, '"'); err == nil {
			value, err = p.expand(value)
		}
	default:
		value, err = p.expand(stripComment(value))
	}
	if err != nil {
		return err
	}
	p.seen[key] = value
	p.env.Set(key, value)
	return nil
}

func cutExport(line string) (string, bool) {
	if len(line) < 7 || !strings.EqualFold(line[:6], "export") {
		return "", false
	}
	if line[6] != ' ' && line[6] != '\t' {
		return "", false
	}
	return strings.TrimSpace(line[7:]), true
}

// quoted returns the text between the opening quote and its match. Only a
// comment may follow the closing quote.
func (p *dotenv) quoted(s string, quote byte) (string, error) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			if i+1 == len(s) {
				return "", p.errorf("unfinished escape")
			}
			i++
			if quote == '"' {
				b.WriteByte(unescape(s[i]))
			} else {
				b.WriteByte(s[i])
			}
		case c == quote:
			if tail := strings.TrimSpace(s[i+1:]); tail != "" && tail[0] != '#' && tail[0] != ';' {
				return "", p.errorf("unexpected content after quoted value")
			}
			return b.String(), nil
		default:
			b.WriteByte(c)
		}
	}
	return "", p.errorf("unterminated quoted value")
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	case '0':
		return 0
	}
	return c
}

// stripComment drops a # or ; comment that starts the value or follows whitespace.
func stripComment(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] != '#' && s[i] != ';' {
			continue
		}
		if i == 0 || s[i-1] == ' ' || s[i-1] == '\t' {
			return strings.TrimSpace(s[:i])
		}
	}
	return strings.TrimSpace(s)
}

// expand substitutes references in one pass; `\$` yields a literal dollar.
func (p *dotenv) expand(s string) (string, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) && s[i+1] == '$' {
			b.WriteByte('$')
			i++
			continue
		}
		if c != '$' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}

		var name string
		switch next := s[i+1]; {
		case next == '{':
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				return "", p.errorf("missing closing brace for ${")
			}
			name = strings.TrimSpace(s[i+2 : i+2+end])
			if name == "" {
				return "", p.errorf("empty variable name")
			}
			i += 2 + end
		case isNameChar(next):
			j := i + 1
			for j < len(s) && isNameChar(s[j]) {
				j++
			}
			name = s[i+1 : j]
			i = j - 1
		default:
			b.WriteByte(c)
			continue
		}

		v, err := p.lookup(name)
		if err != nil {
			return "", err
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

// lookup prefers keys defined earlier in the file, then the process
// environment as written and upper-cased.
func (p *dotenv) lookup(name string) (string, error) {
	if v, ok := p.seen[name]; ok {
		return v, nil
	}
	if v, ok := os.LookupEnv(name); ok {
		return v, nil
	}
	if v, ok := os.LookupEnv(strings.ToUpper(name)); ok {
		return v, nil
	}
	return "", p.errorf("variable %q is not defined", name)
}

func isNameChar(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
