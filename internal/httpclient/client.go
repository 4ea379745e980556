package httpclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/unkn0wn-root/reqdeck/internal/errdef"
	"github.com/unkn0wn-root/reqdeck/internal/telemetry"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 50 * 1024 * 1024
)

type Options struct {
	Timeout            time.Duration
	FollowRedirects    bool
	InsecureSkipVerify bool
	ProxyURL           string
	HTTP2              bool
	MaxBodyBytes       int64
}

func DefaultOptions() Options {
	return Options{
		Timeout:         DefaultTimeout,
		FollowRedirects: true,
		HTTP2:           true,
		MaxBodyBytes:    DefaultMaxBodyBytes,
	}
}

// Request is a fully resolved outbound call. A nil Body sends no payload.
type Request struct {
	Method  string
	URL     string
	Header  http.Header
	Body    []byte
	Session string
}

type Response struct {
	Status       string
	StatusCode   int
	StatusText   string
	Proto        string
	Headers      http.Header
	Body         []byte
	Truncated    bool
	Duration     time.Duration
	EffectiveURL string
	ReqMethod    string
	ReqHeaders   http.Header
}

// ContentType returns the declared content type, or "" when absent.
func (r *Response) ContentType() string {
	if r == nil || r.Headers == nil {
		return ""
	}
	return strings.TrimSpace(r.Headers.Get("Content-Type"))
}

type Client struct {
	jar         http.CookieJar
	httpFactory func(Options) (*http.Client, error)
	telemetry   telemetry.Instrumenter

	mu      sync.Mutex
	clients map[Options]*http.Client
}

func NewClient() *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{jar: jar, telemetry: telemetry.Noop()}
	c.httpFactory = c.buildHTTPClient
	return c
}

func (c *Client) resolveHTTPFactory() func(Options) (*http.Client, error) {
	if c == nil {
		return nil
	}
	if c.httpFactory != nil {
		return c.httpFactory
	}
	return c.buildHTTPClient
}

// SetHTTPFactory allows callers to override how http.Client instances are created.
// Passing nil restores the default factory.
func (c *Client) SetHTTPFactory(factory func(Options) (*http.Client, error)) {
	c.httpFactory = factory
}

// SetTelemetry configures the instrumenter used to emit OpenTelemetry spans. Passing nil restores the no-op implementation.
func (c *Client) SetTelemetry(instr telemetry.Instrumenter) {
	if instr == nil {
		instr = telemetry.Noop()
	}
	c.telemetry = instr
}

// Execute performs one round trip. The span is always ended, failure or not.
func (c *Client) Execute(ctx context.Context, req *Request, opts Options) (resp *Response, err error) {
	if req == nil {
		return nil, errdef.New(errdef.CodeHTTP, "request is nil")
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "build request")
	}
	for name, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(name, value)
		}
	}

	factory := c.resolveHTTPFactory()
	if factory == nil {
		return nil, errdef.New(errdef.CodeHTTP, "http client factory unavailable")
	}
	client, err := factory(opts)
	if err != nil {
		return nil, err
	}

	instrumenter := c.telemetry
	if instrumenter == nil {
		instrumenter = telemetry.Noop()
	}
	spanCtx, span := instrumenter.Start(httpReq.Context(), telemetry.RequestStart{
		Session:     req.Session,
		HTTPRequest: httpReq,
	})
	httpReq = httpReq.WithContext(spanCtx)
	defer func() {
		result := telemetry.RequestResult{Err: err}
		if resp != nil {
			result.StatusCode = resp.StatusCode
			result.BodyBytes = len(resp.Body)
			result.Truncated = resp.Truncated
		}
		span.End(result)
	}()

	start := time.Now()
	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "perform request")
	}
	defer func() {
		if closeErr := httpResp.Body.Close(); closeErr != nil && err == nil {
			err = errdef.Wrap(errdef.CodeHTTP, closeErr, "close response body")
		}
	}()

	limit := opts.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	data, err := io.ReadAll(io.LimitReader(httpResp.Body, limit+1))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "read response body")
	}
	truncated := int64(len(data)) > limit
	if truncated {
		data = data[:limit]
	}

	resp = respFromHTTP(httpReq, httpResp, data, time.Since(start))
	resp.Truncated = truncated
	return resp, nil
}
