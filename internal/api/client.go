package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"lebem.uz/storefront/internal/observability"
)

const (
	defaultTimeout = 8 * time.Second
	// CSRFCookieName is the cookie carrying the backend's anti-forgery token.
	CSRFCookieName = "csrftoken"
	// CSRFHeaderName echoes the anti-forgery token on every request.
	CSRFHeaderName = "X-CSRFToken"
	maxErrorBody   = 256
)

// ErrNoBaseURL is returned by NewClient when the API base URL is missing.
var ErrNoBaseURL = errors.New("api: base url is required")

// Client issues JSON calls against the catalogue/review backend.
type Client struct {
	base *url.URL
	jar  http.CookieJar
	rest *resty.Client
}

// Option customises the client.
type Option func(*clientOptions)

type clientOptions struct {
	timeout   time.Duration
	transport http.RoundTripper
	tracer    trace.TracerProvider
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithTransport swaps the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) {
		o.transport = rt
	}
}

// WithTracerProvider pins the provider for client spans. Without it spans
// come from the provider of the caller's span, or the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *clientOptions) {
		o.tracer = tp
	}
}

// NewClient builds a client for the backend rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrNoBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	options := clientOptions{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&options)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("api: cookie jar: %w", err)
	}

	rest := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(options.timeout).
		SetCookieJar(jar).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if options.transport != nil {
		rest.SetTransport(options.transport)
	}

	c := &Client{base: base, jar: jar, rest: rest}
	traced := tracing{provider: options.tracer}
	rest.OnBeforeRequest(traced.onBeforeRequest)
	rest.OnBeforeRequest(c.attachCSRF)
	rest.OnAfterResponse(logResponse)
	rest.OnAfterResponse(traced.onAfterResponse)
	rest.OnError(traced.onError)
	return c, nil
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.base.String() }

// CSRFToken returns the anti-forgery token currently held in the cookie jar.
func (c *Client) CSRFToken() string {
	for _, ck := range c.jar.Cookies(c.base) {
		if ck.Name == CSRFCookieName {
			if v, err := url.QueryUnescape(ck.Value); err == nil {
				return v
			}
			return ck.Value
		}
	}
	return ""
}

func (c *Client) attachCSRF(_ *resty.Client, req *resty.Request) error {
	if token := c.CSRFToken(); token != "" {
		req.SetHeader(CSRFHeaderName, token)
	}
	if lang := languageFrom(req.Context()); lang != "" {
		req.SetHeader("Accept-Language", lang)
	}
	return nil
}

func logResponse(_ *resty.Client, res *resty.Response) error {
	logger := observability.FromContext(res.Request.Context())
	logger.Debug("api response",
		zap.String("method", res.Request.Method),
		zap.String("url", res.Request.URL),
		zap.Int("status", res.StatusCode()),
		zap.Duration("duration", res.Time()),
	)
	return nil
}

// Call performs a request against path and decodes the JSON response into out
// (which may be nil). body, when non-nil, is sent as JSON.
func (c *Client) Call(ctx context.Context, method, path string, body, out any) error {
	return c.call(ctx, method, path, nil, body, out)
}

// Get is Call with GET and optional query parameters.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.call(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req := c.rest.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode %s %s: %w", method, path, err)
		}
		req.SetBody(payload)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return &NetworkError{Method: method, URL: c.resolve(path), Err: err}
	}
	if !resp.IsSuccess() {
		return &NetworkError{
			Method: method,
			URL:    resp.Request.URL,
			Status: resp.StatusCode(),
			Body:   truncate(resp.String(), maxErrorBody),
			Err:    ErrStatus,
		}
	}
	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &NetworkError{
			Method: method,
			URL:    resp.Request.URL,
			Status: resp.StatusCode(),
			Err:    fmt.Errorf("%w: %v", ErrDecode, err),
		}
	}
	return nil
}

// FetchText performs a plain-text GET. rawURL may be absolute or relative to
// the API base.
func (c *Client) FetchText(ctx context.Context, rawURL string) (string, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html, text/plain;q=0.9, */*;q=0.1").
		Get(rawURL)
	if err != nil {
		return "", &NetworkError{Method: http.MethodGet, URL: c.resolve(rawURL), Err: err}
	}
	if !resp.IsSuccess() {
		return "", &NetworkError{
			Method: http.MethodGet,
			URL:    resp.Request.URL,
			Status: resp.StatusCode(),
			Body:   truncate(resp.String(), maxErrorBody),
			Err:    ErrStatus,
		}
	}
	return resp.String(), nil
}

func (c *Client) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return path
	}
	return c.base.ResolveReference(ref).String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}

type langKey struct{}

// WithLanguage asks the backend for translated fields in lang.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

func languageFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(langKey{}).(string)
	return v
}
