// Package telemetry emits one OpenTelemetry client span per dispatched
// request. Without an endpoint or explicit exporter it is a no-op.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/unkn0wn-root/reqdeck/internal/telemetry"

const (
	attrSession   = attribute.Key("reqdeck.session")
	attrBytes     = attribute.Key("reqdeck.response.bytes")
	attrTruncated = attribute.Key("reqdeck.response.truncated")
	attrElapsed   = attribute.Key("reqdeck.request.duration_ms")
	attrHost      = attribute.Key("http.host")
)

type Instrumenter interface {
	Start(ctx context.Context, info RequestStart) (context.Context, RequestSpan)
	Shutdown(ctx context.Context) error
}

type RequestStart struct {
	// Session is the display name of the tab that issued the request.
	Session     string
	HTTPRequest *http.Request
}

type RequestResult struct {
	Err        error
	StatusCode int
	BodyBytes  int
	Truncated  bool
}

// RequestSpan is ended exactly once; later calls are ignored.
type RequestSpan interface {
	End(result RequestResult)
}

type settings struct {
	exporter   sdktrace.SpanExporter
	processors []sdktrace.SpanProcessor
}

type Option func(*settings)

// WithSpanProcessor adds a processor, typically a tracetest recorder.
func WithSpanProcessor(proc sdktrace.SpanProcessor) Option {
	return func(s *settings) {
		if proc != nil {
			s.processors = append(s.processors, proc)
		}
	}
}

// WithExporter replaces the OTLP exporter built from Config.
func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(s *settings) {
		if exp != nil {
			s.exporter = exp
		}
	}
}

type tracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	once     sync.Once
	err      error
}

func New(cfg Config, opts ...Option) (Instrumenter, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	if !cfg.Enabled() && s.exporter == nil && len(s.processors) == 0 {
		return Noop(), nil
	}

	res, err := resource.New(
		context.Background(),
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(serviceAttributes(cfg)...),
	)
	if err != nil {
		return nil, err
	}

	exp := s.exporter
	if exp == nil && cfg.Enabled() {
		if exp, err = dialExporter(cfg); err != nil {
			return nil, err
		}
	}

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if exp != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
	}
	for _, p := range s.processors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(p))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)
	return &tracer{tracer: tp.Tracer(instrumentationName), provider: tp}, nil
}

func (t *tracer) Start(ctx context.Context, info RequestStart) (context.Context, RequestSpan) {
	req := info.HTTPRequest
	if req == nil {
		return ctx, noopSpan{}
	}
	ctx, span := t.tracer.Start(ctx, spanName(req),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(requestAttributes(req, info.Session)...),
	)
	return ctx, &requestSpan{span: span, started: time.Now()}
}

// Shutdown flushes pending spans. Only the first call does any work.
func (t *tracer) Shutdown(ctx context.Context) error {
	t.once.Do(func() { t.err = t.provider.Shutdown(ctx) })
	return t.err
}

type requestSpan struct {
	span    trace.Span
	started time.Time
	once    sync.Once
}

func (r *requestSpan) End(result RequestResult) {
	r.once.Do(func() {
		attrs := []attribute.KeyValue{
			attrElapsed.Int64(time.Since(r.started).Milliseconds()),
		}
		if result.StatusCode > 0 {
			attrs = append(attrs, semconv.HTTPStatusCodeKey.Int(result.StatusCode))
		}
		if result.BodyBytes > 0 {
			attrs = append(attrs, attrBytes.Int(result.BodyBytes))
		}
		if result.Truncated {
			attrs = append(attrs, attrTruncated.Bool(true))
		}
		r.span.SetAttributes(attrs...)
		if result.Err != nil {
			r.span.RecordError(result.Err)
		}
		r.span.SetStatus(statusOf(result))
		r.span.End()
	})
}

// statusOf marks transport failures and 4xx/5xx responses as errors.
func statusOf(result RequestResult) (codes.Code, string) {
	switch {
	case result.Err != nil:
		return codes.Error, result.Err.Error()
	case result.StatusCode >= 400:
		return codes.Error, fmt.Sprintf("HTTP %d", result.StatusCode)
	}
	return codes.Ok, "OK"
}

func Noop() Instrumenter { return noopInstrumenter{} }

type noopInstrumenter struct{}

func (noopInstrumenter) Start(ctx context.Context, _ RequestStart) (context.Context, RequestSpan) {
	return ctx, noopSpan{}
}

func (noopInstrumenter) Shutdown(context.Context) error { return nil }

type noopSpan struct{}

func (noopSpan) End(RequestResult) {}

func dialExporter(cfg Config) (sdktrace.SpanExporter, error) {
	if !cfg.Enabled() {
		return nil, errors.New("telemetry endpoint is required")
	}
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
	}
	return otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
}

func serviceAttributes(cfg Config) []attribute.KeyValue {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = defaultServiceName
	}
	attrs := []attribute.KeyValue{semconv.ServiceName(name)}
	if v := strings.TrimSpace(cfg.Version); v != "" {
		attrs = append(attrs, semconv.ServiceVersion(v))
	}
	return attrs
}

func requestAttributes(req *http.Request, session string) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if req.Method != "" {
		attrs = append(attrs, semconv.HTTPMethodKey.String(req.Method))
	}
	if u := req.URL; u != nil {
		if u.Scheme != "" {
			attrs = append(attrs, semconv.HTTPSchemeKey.String(u.Scheme))
		}
		if u.Host != "" {
			attrs = append(attrs, attrHost.String(u.Host))
		}
		attrs = append(attrs,
			semconv.HTTPTargetKey.String(u.RequestURI()),
			semconv.HTTPURLKey.String(u.String()),
		)
	}
	if name := strings.TrimSpace(session); name != "" {
		attrs = append(attrs, attrSession.String(name))
	}
	return attrs
}

// spanName is "METHOD host", or just the method when the host is unknown.
func spanName(req *http.Request) string {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	if req.URL != nil && req.URL.Host != "" {
		return method + " " + req.URL.Host
	}
	return method
}
