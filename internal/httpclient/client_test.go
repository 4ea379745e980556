package httpclient

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/reqdeck/internal/errdef"
)

func TestExecuteSendsHeadersAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if got := r.Header.Get("X-Token"); got != "abc" {
			t.Errorf("unexpected header %q", got)
		}
		data, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"echo":` + string(data) + `}`))
	}))
	defer srv.Close()

	client := NewClient()
	resp, err := client.Execute(context.Background(), &Request{
		Method: http.MethodPost,
		URL:    srv.URL + "/items",
		Header: http.Header{"X-Token": []string{"abc"}},
		Body:   []byte(`1`),
	}, DefaultOptions())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.StatusCode != http.StatusCreated || resp.StatusText != "Created" {
		t.Fatalf("unexpected status %d %q", resp.StatusCode, resp.StatusText)
	}
	if string(resp.Body) != `{"echo":1}` {
		t.Fatalf("unexpected body %q", resp.Body)
	}
	if resp.ContentType() != "application/json" {
		t.Fatalf("unexpected content type %q", resp.ContentType())
	}
	if resp.EffectiveURL != srv.URL+"/items" || resp.ReqMethod != http.MethodPost {
		t.Fatalf("unexpected request echo %q %q", resp.EffectiveURL, resp.ReqMethod)
	}
}

func TestExecuteTruncatesLargeBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	opts := DefaultOptions()
	opts.MaxBodyBytes = 16
	resp, err := NewClient().Execute(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL}, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !resp.Truncated || len(resp.Body) != 16 {
		t.Fatalf("expected truncated 16 byte body, got %d (truncated=%v)", len(resp.Body), resp.Truncated)
	}
}

func TestExecuteRedirectPolicy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/start" {
			http.Redirect(w, r, "/end", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("done"))
	}))
	defer srv.Close()

	req := &Request{Method: http.MethodGet, URL: srv.URL + "/start"}
	resp, err := NewClient().Execute(context.Background(), req, DefaultOptions())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.StatusCode != http.StatusOK || !strings.HasSuffix(resp.EffectiveURL, "/end") {
		t.Fatalf("expected followed redirect, got %d %s", resp.StatusCode, resp.EffectiveURL)
	}

	opts := DefaultOptions()
	opts.FollowRedirects = false
	resp, err = NewClient().Execute(context.Background(), req, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 without following, got %d", resp.StatusCode)
	}
}

func TestExecuteTransportErrorIsHTTPCode(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	opts := DefaultOptions()
	opts.Timeout = 2 * time.Second
	_, err := NewClient().Execute(context.Background(), &Request{Method: http.MethodGet, URL: addr}, opts)
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if errdef.CodeOf(err) != errdef.CodeHTTP {
		t.Fatalf("expected http error code, got %v", errdef.CodeOf(err))
	}
}

func TestExecuteRejectsBadProxy(t *testing.T) {
	opts := DefaultOptions()
	opts.ProxyURL = "://bad"
	_, err := NewClient().Execute(context.Background(), &Request{Method: http.MethodGet, URL: "http://example.invalid"}, opts)
	if err == nil {
		t.Fatalf("expected proxy parse error")
	}
}

func TestExecuteUsesCustomFactory(t *testing.T) {
	client := NewClient()
	called := false
	client.SetHTTPFactory(func(Options) (*http.Client, error) {
		called = true
		return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusTeapot,
				Status:     "418 I'm a teapot",
				Header:     http.Header{},
				Body:       io.NopCloser(strings.NewReader("")),
				Request:    r,
			}, nil
		})}, nil
	})
	resp, err := client.Execute(context.Background(), &Request{Method: http.MethodGet, URL: "http://example.test"}, DefaultOptions())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !called || resp.StatusCode != http.StatusTeapot || resp.StatusText != "I'm a teapot" {
		t.Fatalf("unexpected response %d %q (factory called=%v)", resp.StatusCode, resp.StatusText, called)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestExecuteReusesConnections(t *testing.T) {
	var mu sync.Mutex
	opened := 0
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	srv.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateNew {
			mu.Lock()
			opened++
			mu.Unlock()
		}
	}
	srv.Start()
	defer srv.Close()

	client := NewClient()
	for i := 0; i < 3; i++ {
		if _, err := client.Execute(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL}, DefaultOptions()); err != nil {
			t.Fatalf("Execute %d: %v", i, err)
		}
	}
	mu.Lock()
	got := opened
	mu.Unlock()
	if got != 1 {
		t.Fatalf("expected one pooled connection, opened %d", got)
	}

	client.CloseIdleConnections()
	first, _ := client.buildHTTPClient(DefaultOptions())
	other := DefaultOptions()
	other.FollowRedirects = false
	second, _ := client.buildHTTPClient(other)
	if first == second {
		t.Fatalf("distinct options must not share a client")
	}
	if again, _ := client.buildHTTPClient(DefaultOptions()); again != first {
		t.Fatalf("expected cached client for equal options")
	}
}
