package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/reqdeck/internal/errdef"
	"github.com/unkn0wn-root/reqdeck/internal/history"
	"github.com/unkn0wn-root/reqdeck/internal/httpclient"
	"github.com/unkn0wn-root/reqdeck/internal/request"
	"github.com/unkn0wn-root/reqdeck/internal/resource"
	"github.com/unkn0wn-root/reqdeck/internal/vars"
)

// Executor performs the outbound call. *httpclient.Client satisfies it.
type Executor interface {
	Execute(ctx context.Context, req *httpclient.Request, opts httpclient.Options) (*httpclient.Response, error)
}

// IDSource hands out history ids. *history.Log satisfies it.
type IDSource interface {
	NextID() string
}

type Dispatcher struct {
	exec     Executor
	ids      IDSource
	opts     httpclient.Options
	resource resource.Options
	logger   zerolog.Logger
	notify   func()
	now      func() time.Time
}

type Option func(*Dispatcher)

func WithHTTPOptions(opts httpclient.Options) Option {
	return func(d *Dispatcher) { d.opts = opts }
}

func WithResourceOptions(opts resource.Options) Option {
	return func(d *Dispatcher) { d.resource = opts }
}

func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithNotify registers a wake-up hook run on the worker after each outcome
// is stored.
func WithNotify(fn func()) Option {
	return func(d *Dispatcher) { d.notify = fn }
}

func New(exec Executor, ids IDSource, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		exec:   exec,
		ids:    ids,
		opts:   httpclient.DefaultOptions(),
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetIDSource swaps where history ids come from. The app points it at the
// restored log so ids keep increasing across restarts.
func (d *Dispatcher) SetIDSource(ids IDSource) {
	if ids != nil {
		d.ids = ids
	}
}

// Job is one dispatch request from a session.
type Job struct {
	// SessionID is the session's stable id. It tags the handle and log lines
	// and survives renames.
	SessionID string
	// Session is the display name at dispatch time.
	Session    string
	Generation uint64
	Definition *request.Definition
	Env        vars.Environment
}

// Dispatch resolves the job's definition and starts the call on a worker
// goroutine. Validation failures are returned before any network activity
// and produce no handle. On success the definition's query rows have been
// re-derived from the resolved URL.
func (d *Dispatcher) Dispatch(ctx context.Context, job Job) (*Handle, error) {
	def := job.Definition
	if def == nil {
		return nil, errdef.New(errdef.CodeValidation, "no request to send")
	}
	if !def.Method.Valid() {
		return nil, errdef.New(errdef.CodeValidation, "unsupported method %d", int(def.Method))
	}

	log := d.logger.With().
		Str("session_id", job.SessionID).
		Str("session", job.Session).
		Logger()

	resolvedURL, err := vars.Resolve(def.URL, job.Env)
	if err != nil {
		log.Warn().Err(err).Msg("dispatch aborted")
		return nil, err
	}
	parsed, err := ParseURL(resolvedURL)
	if err != nil {
		log.Warn().Err(err).Msg("dispatch aborted")
		return nil, err
	}

	var query []request.Pair
	for i, p := range request.SplitQuery(parsed.RawQuery) {
		key, kerr := vars.Resolve(p.Key, job.Env)
		value, verr := vars.Resolve(p.Value, job.Env)
		if err := errors.Join(kerr, verr); err != nil {
			return nil, errdef.Wrap(errdef.CodeValidation, err, "resolve query parameter")
		}
		def.Query.Set(i, key, value)
		query = append(query, request.Pair{Key: key, Value: value})
	}

	header := http.Header{}
	var headers []request.Pair
	for _, p := range def.Headers.Pairs() {
		key, kerr := vars.Resolve(p.Key, job.Env)
		value, verr := vars.Resolve(p.Value, job.Env)
		if err := errors.Join(kerr, verr); err != nil {
			return nil, errdef.Wrap(errdef.CodeValidation, err, "resolve header")
		}
		header.Add(key, value)
		headers = append(headers, request.Pair{Key: key, Value: value})
	}

	out := &httpclient.Request{
		Method:  def.Method.String(),
		URL:     resolvedURL,
		Header:  header,
		Session: job.Session,
	}
	// Any non-empty body is sent verbatim, GET and DELETE included.
	if def.Body != "" {
		out.Body = []byte(def.Body)
	}

	start := d.now()
	item := history.Item{
		ID:          d.ids.NextID(),
		ExecutedAt:  start,
		Session:     job.Session,
		Method:      def.Method,
		URL:         resolvedURL,
		OriginalURL: def.URL,
		Headers:     headers,
		Query:       query,
		Body:        def.Body,
	}
	h := newHandle(job.SessionID, job.Generation, item)

	log.Debug().
		Str("method", out.Method).
		Str("url", resolvedURL).
		Uint64("generation", job.Generation).
		Msg("dispatch started")

	go d.run(ctx, log, h, out, start)
	return h, nil
}

func (d *Dispatcher) run(ctx context.Context, log zerolog.Logger, h *Handle, req *httpclient.Request, start time.Time) {
	resp, err := d.exec.Execute(ctx, req, d.opts)
	elapsed := time.Since(start)

	out := Outcome{StatusCode: statusOf(resp), Elapsed: elapsed}
	if err != nil {
		out.Err = TransportMessage(err)
		log.Info().
			Str("url", req.URL).
			Dur("elapsed", elapsed).
			Str("error", out.Err).
			Msg("dispatch failed")
	} else {
		out.Resource = resource.New(resp, elapsed, d.resource)
		log.Info().
			Str("method", req.Method).
			Str("url", req.URL).
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("dispatch finished")
	}
	h.resolve(out)
	if d.notify != nil {
		d.notify()
	}
}

func statusOf(resp *httpclient.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

// ParseURL is the strict check applied to a resolved URL: it must parse,
// use http or https, name a host and contain no whitespace.
func ParseURL(raw string) (*url.URL, error) {
	u, err := parseURL(raw)
	if err != nil {
		return nil, errdef.New(errdef.CodeParse, "Error parsing URL: %s", err.Error())
	}
	return u, nil
}

func parseURL(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("empty URL")
	}
	if strings.ContainsAny(raw, " \t\r\n") {
		return nil, errors.New("URL contains whitespace")
	}
	u, err := url.Parse(raw)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return nil, uerr.Err
		}
		return nil, err
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	case "":
		return nil, errors.New("missing scheme")
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("missing host")
	}
	return u, nil
}

// TransportMessage is the text shown for a failed call: the transport's own
// message, or "Error" when it has none.
func TransportMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *errdef.Error
	if errors.As(err, &e) && e.Err != nil {
		err = e.Err
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "Error"
	}
	return msg
}
