// Package webclient performs form and query requests against the remote
// account service the way the official mobile app does: mobile user agent,
// session cookies on every request, bounded response bodies.
package webclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultUserAgent mimics the Android app.
	DefaultUserAgent = "Dalvik/2.1.0 (Linux; U; Android 9; Valve Steam App Version/3)"
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxBodyBytes bounds the response body that is read into memory.
	DefaultMaxBodyBytes int64 = 4 << 20
)

var (
	// ErrBodyTooLarge is returned when the response exceeds MaxBodyBytes.
	ErrBodyTooLarge = errors.New("webclient: response body too large")
)

// StatusError is returned for responses with status >= 400.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webclient: %s %s returned status %d", e.Method, e.URL, e.Code)
}

// Client is the transport used by the remote endpoint adapters.
type Client interface {
	Get(ctx context.Context, rawURL string, cookies []*http.Cookie) ([]byte, error)
	Post(ctx context.Context, rawURL string, cookies []*http.Cookie, form url.Values) ([]byte, error)
}

// Config configures the HTTP client.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64

	// TracerProvider and MeterProvider instrument outgoing requests when set.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider

	// Transport overrides the base round tripper, mostly for tests.
	Transport http.RoundTripper
}

// HTTP implements Client on net/http with otelhttp instrumentation.
type HTTP struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

// New builds an HTTP client.
func New(cfg Config) *HTTP {
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	opts := []otelhttp.Option{
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "steam " + r.Method + " " + r.URL.Path
		}),
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(cfg.TracerProvider))
	}
	if cfg.MeterProvider != nil {
		opts = append(opts, otelhttp.WithMeterProvider(cfg.MeterProvider))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	return &HTTP{
		client: &http.Client{
			Transport: otelhttp.NewTransport(base, opts...),
			Timeout:   timeout,
		},
		userAgent: ua,
		maxBody:   maxBody,
	}
}

// Get issues a GET request with cookies attached.
func (h *HTTP) Get(ctx context.Context, rawURL string, cookies []*http.Cookie) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("webclient: build request: %w", err)
	}

	return h.do(req, cookies)
}

// Post issues a form-encoded POST request with cookies attached.
func (h *HTTP) Post(ctx context.Context, rawURL string, cookies []*http.Cookie, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("webclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")

	return h.do(req, cookies)
}

func (h *HTTP) do(req *http.Request, cookies []*http.Cookie) ([]byte, error) {
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "text/javascript, text/html, application/xml, text/xml, */*")
	if header := CookieHeader(cookies); header != "" {
		req.Header.Set("Cookie", header)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webclient: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("webclient: read body: %w", err)
	}
	if int64(len(body)) > h.maxBody {
		return nil, ErrBodyTooLarge
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{Method: req.Method, URL: req.URL.Path, Code: resp.StatusCode}
	}

	return body, nil
}

// CookieHeader joins cookies into a Cookie header value. Values are written
// verbatim: http.Cookie.String would quote values containing spaces, which
// the remote service does not accept for the client version cookie.
func CookieHeader(cookies []*http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}

	return strings.Join(parts, "; ")
}
