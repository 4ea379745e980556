package telemetry

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envEndpoint    = "REQDECK_TRACE_OTEL_ENDPOINT"
	envInsecure    = "REQDECK_TRACE_OTEL_INSECURE"
	envService     = "REQDECK_TRACE_OTEL_SERVICE"
	envDialTimeout = "REQDECK_TRACE_OTEL_DIAL_TIMEOUT"
	envHeaders     = "REQDECK_TRACE_OTEL_HEADERS"

	defaultServiceName = "reqdeck"
	defaultDialTimeout = 5 * time.Second
)

// Config controls OTLP span export. An empty Endpoint disables tracing.
type Config struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
	Version     string
	DialTimeout time.Duration
	Headers     map[string]string
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

// ConfigFromEnv reads the tracing settings through lookup, falling back to os.Getenv.
// Malformed values are ignored rather than treated as errors.
func ConfigFromEnv(lookup func(string) string) Config {
	if lookup == nil {
		lookup = os.Getenv
	}
	cfg := Config{
		Endpoint:    strings.TrimSpace(lookup(envEndpoint)),
		ServiceName: strings.TrimSpace(lookup(envService)),
		DialTimeout: defaultDialTimeout,
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultServiceName
	}
	if raw := strings.TrimSpace(lookup(envInsecure)); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			cfg.Insecure = v
		}
	}
	if raw := strings.TrimSpace(lookup(envDialTimeout)); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.DialTimeout = d
		}
	}
	if headers, err := ParseHeaders(lookup(envHeaders)); err == nil {
		cfg.Headers = headers
	}
	return cfg
}

// ParseHeaders parses comma separated key=value pairs.
func ParseHeaders(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	headers := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid header %q: expected key=value", part)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid header %q: empty key", part)
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers, nil
}
