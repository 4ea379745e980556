package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http2"

	"github.com/unkn0wn-root/reqdeck/internal/errdef"
)

func newTransport(opts Options) (*http.Transport, error) {
	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	t := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	if opts.ProxyURL != "" {
		u, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, errdef.Wrap(errdef.CodeHTTP, err, "parse proxy url")
		}
		t.Proxy = http.ProxyURL(u)
	}
	if opts.InsecureSkipVerify {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	// x/net/http2 also negotiates h2 when a custom TLS config is set.
	if opts.HTTP2 {
		if err := http2.ConfigureTransport(t); err != nil {
			return nil, errdef.Wrap(errdef.CodeHTTP, err, "enable http2")
		}
	}
	return t, nil
}

// stopAtRedirect hands the 3xx response back instead of following it.
func stopAtRedirect(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

// buildHTTPClient returns one client per distinct Options so keep-alive
// connections are reused across calls instead of stranded in throwaway
// transports.
func (c *Client) buildHTTPClient(opts Options) (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hc, ok := c.clients[opts]; ok {
		return hc, nil
	}
	t, err := newTransport(opts)
	if err != nil {
		return nil, err
	}
	hc := &http.Client{Transport: t, Jar: c.jar, Timeout: opts.Timeout}
	if !opts.FollowRedirects {
		hc.CheckRedirect = stopAtRedirect
	}
	if c.clients == nil {
		c.clients = make(map[Options]*http.Client)
	}
	c.clients[opts] = hc
	return hc, nil
}

// CloseIdleConnections releases pooled connections of every cached client.
// In-flight calls are not interrupted.
func (c *Client) CloseIdleConnections() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, hc := range c.clients {
		hc.CloseIdleConnections()
	}
}
