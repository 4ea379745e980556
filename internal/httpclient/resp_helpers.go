package httpclient

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

func effURL(req *http.Request, resp *http.Response) string {
	if resp != nil && resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	if req != nil && req.URL != nil {
		return req.URL.String()
	}
	return ""
}

func cloneHdr(h http.Header) http.Header {
	if h == nil {
		return nil
	}
	return h.Clone()
}

// reason phrase as sent by the server, falling back to the canonical text
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

func respFromHTTP(sent *http.Request, resp *http.Response, body []byte, dur time.Duration) *Response {
	// Prefer the final request attached to the response, since redirects and transports can mutate it.
	final := sent
	if resp.Request != nil {
		final = resp.Request
	}
	out := &Response{
		Status:       resp.Status,
		StatusCode:   resp.StatusCode,
		StatusText:   statusText(resp),
		Proto:        resp.Proto,
		Headers:      cloneHdr(resp.Header),
		Body:         body,
		Duration:     dur,
		EffectiveURL: effURL(sent, resp),
	}
	if final != nil {
		out.ReqMethod = final.Method
		out.ReqHeaders = cloneHdr(final.Header)
	}
	return out
}
