package resource

import (
	"bytes"
	"net/url"
	"path"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
	"github.com/muesli/termenv"
)

const DefaultStyle = "monokai"

// highlight renders text with a lexer picked by mime type, then by the URL
// extension. ok is false when no lexer claims the content.
func highlight(text, mimeType, rawURL string, opts Options) (string, bool) {
	lexer := lexerFor(mimeType, rawURL)
	if lexer == nil {
		return "", false
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(opts.Style)
	if opts.Style == "" || style == nil {
		style = styles.Get(DefaultStyle)
	}
	if style == nil {
		style = styles.Fallback
	}

	name := opts.Formatter
	if name == "" {
		name = FormatterFor(termenv.ColorProfile())
	}
	formatter := formatters.Get(name)
	if formatter == nil {
		formatter = formatters.Fallback
	}

	it, err := lexer.Tokenise(nil, text)
	if err != nil {
		return "", false
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, it); err != nil {
		return "", false
	}
	return buf.String(), true
}

func lexerFor(mimeType, rawURL string) chroma.Lexer {
	if mimeType != "" {
		if l := lexers.MatchMimeType(mimeType); l != nil {
			return l
		}
	}
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		if base := path.Base(u.Path); path.Ext(base) != "" {
			if l := lexers.Match(base); l != nil {
				return l
			}
		}
	}
	return nil
}

// FormatterFor maps a terminal color profile to a chroma formatter name.
func FormatterFor(p termenv.Profile) string {
	switch p {
	case termenv.TrueColor:
		return "terminal16m"
	case termenv.ANSI256:
		return "terminal256"
	case termenv.ANSI:
		return "terminal16"
	default:
		return "noop"
	}
}
