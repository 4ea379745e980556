package main

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/fatih/color"

	"github.com/unkn0wn-root/reqdeck/internal/errdef"
	"github.com/unkn0wn-root/reqdeck/internal/history"
	"github.com/unkn0wn-root/reqdeck/internal/resource"
)

var (
	successColor   = color.New(color.FgGreen, color.Bold)
	redirectColor  = color.New(color.FgYellow, color.Bold)
	clientErrColor = color.New(color.FgRed, color.Bold)
	serverErrColor = color.New(color.FgRed, color.Bold, color.BgWhite)
	headerKeyColor = color.New(color.FgCyan)
	methodColor    = color.New(color.FgMagenta, color.Bold)
	urlColor       = color.New(color.FgBlue)
	dimColor       = color.New(color.Faint)
	errorColor     = color.New(color.FgRed)
	warnColor      = color.New(color.FgYellow)
)

// sanitize escapes control characters so response data cannot drive the
// terminal. Highlighted text is trusted and never passed through here.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(r)
		case r == 0x7f || (unicode.IsControl(r) && r < 0x20):
			fmt.Fprintf(&b, "\\x%02x", r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func statusColor(code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return successColor
	case code >= 300 && code < 400:
		return redirectColor
	case code >= 400 && code < 500:
		return clientErrColor
	default:
		return serverErrColor
	}
}

func printResource(w io.Writer, res *resource.Resource, showHeaders bool) {
	resp := res.Response
	statusColor(resp.StatusCode).Fprintln(w, sanitize(res.StatusLine()))
	if showHeaders {
		for _, line := range res.HeaderLines() {
			name, value, _ := strings.Cut(line, ": ")
			headerKeyColor.Fprintf(w, "%s: ", sanitize(name))
			fmt.Fprintln(w, sanitize(value))
		}
	}
	fmt.Fprintln(w)

	switch res.Kind {
	case resource.KindHighlighted:
		fmt.Fprintln(w, res.Highlighted)
	case resource.KindText:
		if res.Text == "" {
			dimColor.Fprintln(w, "(empty body)")
			return
		}
		fmt.Fprintln(w, sanitize(res.Text))
	default:
		dimColor.Fprintln(w, res.Display())
		if res.Kind == resource.KindBinary && len(resp.Body) > 0 {
			dimColor.Fprintf(w, "Suggested filename: %s\n", res.FilenameHint())
		}
	}
}

func printHistory(w io.Writer, items []history.Item) {
	if len(items) == 0 {
		dimColor.Fprintln(w, "History is empty")
		return
	}
	for _, it := range items {
		dimColor.Fprintf(w, "%4s  %s  ", it.ID, it.ExecutedAt.Local().Format("2006-01-02 15:04:05"))
		methodColor.Fprintf(w, "%-6s ", it.Method.String())
		urlColor.Fprint(w, sanitize(it.URL))
		if it.StatusCode > 0 {
			fmt.Fprint(w, "  ")
			statusColor(it.StatusCode).Fprintf(w, "%d", it.StatusCode)
		}
		if it.Duration > 0 {
			dimColor.Fprintf(w, "  %s", it.Duration.Round(time.Millisecond))
		}
		fmt.Fprintln(w)
	}
}

func printError(w io.Writer, err error) {
	errorColor.Fprintf(w, "error: %s\n", errdef.Message(err))
}

func printWarning(w io.Writer, msg string) {
	warnColor.Fprintf(w, "warning: %s\n", msg)
}

func printSuccess(w io.Writer, msg string) {
	successColor.Fprintln(w, msg)
}
