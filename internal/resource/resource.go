package resource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/unkn0wn-root/reqdeck/internal/binaryview"
	"github.com/unkn0wn-root/reqdeck/internal/errdef"
	"github.com/unkn0wn-root/reqdeck/internal/httpclient"
)

type Kind int

const (
	KindBinary Kind = iota
	KindText
	KindHighlighted
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindHighlighted:
		return "highlighted"
	case KindImage:
		return "image"
	default:
		return "binary"
	}
}

// Resource is the success artifact of a dispatch: the raw response plus a
// decoded view chosen from the declared content type.
type Resource struct {
	Response *httpclient.Response
	Elapsed  time.Duration
	Kind     Kind

	// Text is set for text and highlighted results. Highlighted keeps the
	// terminal-colored rendering next to the plain text.
	Text        string
	Highlighted string

	Image       image.Image
	ImageFormat string
}

// Options tunes how text bodies are decoded.
type Options struct {
	Highlight bool
	Style     string
	Formatter string
}

// New decodes resp into a Resource. A missing content type is never sniffed
// and always yields a binary result.
func New(resp *httpclient.Response, elapsed time.Duration, opts Options) *Resource {
	res := &Resource{Response: resp, Elapsed: elapsed, Kind: KindBinary}
	if resp == nil {
		return res
	}
	ct := resp.ContentType()
	if ct == "" {
		return res
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
	}

	if strings.HasPrefix(mt, "image/") {
		img, format, err := image.Decode(bytes.NewReader(resp.Body))
		if err == nil {
			res.Kind = KindImage
			res.Image = img
			res.ImageFormat = format
		}
		return res
	}

	if !isTextual(mt) || !utf8.Valid(resp.Body) {
		return res
	}
	res.Kind = KindText
	res.Text = string(resp.Body)
	if mt == "application/json" || strings.HasSuffix(mt, "+json") {
		res.Text = prettyJSON(resp.Body)
	}
	if opts.Highlight {
		if out, ok := highlight(res.Text, mt, resp.EffectiveURL, opts); ok {
			res.Kind = KindHighlighted
			res.Highlighted = out
		}
	}
	return res
}

func isTextual(mt string) bool {
	if strings.HasPrefix(mt, "text/") {
		return true
	}
	switch mt {
	case "application/json", "application/xml", "application/javascript",
		"application/x-www-form-urlencoded", "application/graphql",
		"application/x-yaml", "application/yaml", "application/toml":
		return true
	}
	return strings.HasSuffix(mt, "+json") || strings.HasSuffix(mt, "+xml")
}

func prettyJSON(body []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(body), "", "  "); err != nil {
		return string(body)
	}
	return buf.String()
}

// Display returns what a text view should show.
func (r *Resource) Display() string {
	if r == nil {
		return ""
	}
	switch r.Kind {
	case KindHighlighted:
		return r.Highlighted
	case KindText:
		return r.Text
	case KindImage:
		b := r.Image.Bounds()
		return fmt.Sprintf("<%s image %dx%d, %d bytes>",
			r.ImageFormat, b.Dx(), b.Dy(), r.size())
	default:
		return fmt.Sprintf("<binary, %d bytes>", r.size())
	}
}

func (r *Resource) size() int {
	if r.Response == nil {
		return 0
	}
	return len(r.Response.Body)
}

// StatusLine renders e.g. "200 OK  HTTP/1.1  142ms".
func (r *Resource) StatusLine() string {
	if r == nil || r.Response == nil {
		return ""
	}
	resp := r.Response
	parts := []string{fmt.Sprintf("%d %s", resp.StatusCode, resp.StatusText)}
	if resp.Proto != "" {
		parts = append(parts, resp.Proto)
	}
	parts = append(parts, r.Elapsed.Round(time.Millisecond).String())
	if resp.Truncated {
		parts = append(parts, "truncated")
	}
	return strings.Join(parts, "  ")
}

// HeadersJSON renders response headers as an indented JSON object with
// sorted keys. Multi-valued headers are joined with ", ".
func (r *Resource) HeadersJSON() string {
	if r == nil || r.Response == nil {
		return "{}"
	}
	return headersJSON(r.Response.Headers)
}

func headersJSON(h http.Header) string {
	flat := make(map[string]string, len(h))
	for k, v := range h {
		flat[k] = strings.Join(v, ", ")
	}
	data, err := json.MarshalIndent(flat, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// HeaderLines lists headers as "Name: value" in name order.
func (r *Resource) HeaderLines() []string {
	if r == nil || r.Response == nil {
		return nil
	}
	keys := make([]string, 0, len(r.Response.Headers))
	for k := range r.Response.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+strings.Join(r.Response.Headers[k], ", "))
	}
	return lines
}

// FilenameHint suggests a name for saving the body.
func (r *Resource) FilenameHint() string {
	if r == nil || r.Response == nil {
		return binaryview.FilenameHint("", "", "")
	}
	return binaryview.FilenameHint(
		r.Response.Headers.Get("Content-Disposition"),
		r.Response.EffectiveURL,
		r.Response.ContentType(),
	)
}

// SaveBody writes the raw response payload to path.
func (r *Resource) SaveBody(path string) error {
	if r == nil || r.Response == nil {
		return errdef.New(errdef.CodeFilesystem, "no response to save")
	}
	if strings.TrimSpace(path) == "" {
		return errdef.New(errdef.CodeFilesystem, "save path is empty")
	}
	if err := os.WriteFile(path, r.Response.Body, 0o644); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "write %s", path)
	}
	return nil
}
