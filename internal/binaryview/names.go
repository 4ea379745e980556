package binaryview

import (
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"unicode"
)

const fallbackBase = "response"

// FilenameHint picks a file name for saving a response body.
// Content-Disposition wins, then the URL basename, then a mime derived name.
func FilenameHint(disposition, rawURL, contentType string) string {
	if name := dispositionName(disposition); name != "" {
		return withExtension(name, contentType)
	}
	if name := urlName(rawURL); name != "" {
		return withExtension(name, contentType)
	}
	return withExtension(fallbackBase, contentType)
}

func dispositionName(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	// mime decodes filename* (RFC 5987) into "filename" and prefers it.
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := sanitize(params["filename"]); name != "" {
			return name
		}
	}
	for _, part := range strings.Split(header, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "filename") {
			continue
		}
		return sanitize(strings.Trim(strings.TrimSpace(value), `"`))
	}
	return ""
}

func urlName(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" || strings.HasSuffix(u.Path, "/") {
		return ""
	}
	return sanitize(path.Base(u.Path))
}

func sanitize(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(`<>:"|?*`, r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimLeft(name, ".")
	name = strings.TrimSpace(name)
	if name == "" || name == "/" {
		return ""
	}
	return name
}

func withExtension(name, contentType string) string {
	if filepath.Ext(name) != "" {
		return name
	}
	return name + extensionFor(contentType)
}

func extensionFor(contentType string) string {
	mt, _, err := mime.ParseMediaType(strings.TrimSpace(contentType))
	if err != nil || mt == "" || mt == "application/octet-stream" {
		return ".bin"
	}
	exts, err := mime.ExtensionsByType(mt)
	if err != nil || len(exts) == 0 {
		return ".bin"
	}
	return exts[0]
}
