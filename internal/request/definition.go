package request

import (
	"net/url"
	"strings"
)

// Definition is the editable shape of one pending request.
type Definition struct {
	Method  Method `json:"method"`
	URL     string `json:"url"`
	Headers Rows   `json:"headers"`
	Query   Rows   `json:"query"`
	Body    string `json:"body"`
}

func Default() Definition {
	return Definition{
		Method:  GET,
		Headers: PlaceholderRows(),
		Query:   PlaceholderRows(),
	}
}

func (d Definition) Clone() Definition {
	out := d
	out.Headers = d.Headers.Clone()
	out.Query = d.Query.Clone()
	return out
}

// SetURL replaces the URL text and re-derives the query rows from it.
// The mirror is one way: editing rows never rewrites the URL.
func (d *Definition) SetURL(raw string) {
	d.URL = raw
	d.Query = RowsFromPairs(SplitQuery(rawQuery(raw)))
}

// AddQueryParam appends key=value to both the URL and the query rows. A lone
// placeholder row is reused instead of appended to.
func (d *Definition) AddQueryParam(key, value string) {
	sep := "?"
	if strings.Contains(d.URL, "?") {
		sep = "&"
	}
	d.URL += sep + url.QueryEscape(key) + "=" + url.QueryEscape(value)
	if d.Query.OnlyPlaceholders() {
		d.Query.Set(0, key, value)
		return
	}
	d.Query.Add(key, value)
}

// SplitQuery decodes an application/x-www-form-urlencoded query string into
// ordered pairs. Undecodable segments are kept verbatim.
func SplitQuery(query string) []Pair {
	if query == "" {
		return nil
	}
	var pairs []Pair
	for _, part := range strings.Split(query, "&") {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		pairs = append(pairs, Pair{Key: unescape(key), Value: unescape(value)})
	}
	return pairs
}

func rawQuery(raw string) string {
	_, query, ok := strings.Cut(raw, "?")
	if !ok {
		return ""
	}
	if idx := strings.IndexByte(query, '#'); idx >= 0 {
		query = query[:idx]
	}
	return query
}

func unescape(s string) string {
	if out, err := url.QueryUnescape(s); err == nil {
		return out
	}
	return s
}
