package unogs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RemainingHeader carries the number of requests left in the current window
const RemainingHeader = "X-RateLimit-Requests-Remaining"

// Request is one outbound API call
type Request struct {
	Endpoint string
	Params   []Param
	Header   http.Header
}

// Response is what the transport hands back, regardless of status
type Response struct {
	StatusCode int
	Reason     string
	Body       []byte
	Header     http.Header
}

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/transport.go -package=mocks github.com/s0up4200/nfx/unogs Transport

// Transport performs requests against the API
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// HTTPTransport is the net/http implementation of Transport. It injects the
// RapidAPI credential and spaces consecutive requests.
type HTTPTransport struct {
	apiKey     string
	httpClient *http.Client
	pacer      *rate.Limiter
	logger     zerolog.Logger
}

// Option configures an HTTPTransport
type Option func(*HTTPTransport)

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(t *HTTPTransport) {
		if timeout > 0 {
			t.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(t *HTTPTransport) {
		t.httpClient = hc
	}
}

// WithRequestInterval sets the minimum delay between requests. Zero disables pacing.
func WithRequestInterval(interval time.Duration) Option {
	return func(t *HTTPTransport) {
		if interval <= 0 {
			t.pacer = nil
			return
		}
		t.pacer = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// NewHTTPTransport creates a transport authenticating with apiKey
func NewHTTPTransport(apiKey string, logger zerolog.Logger, opts ...Option) (*HTTPTransport, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	t := &HTTPTransport{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		pacer:  rate.NewLimiter(rate.Every(time.Second), 1),
		logger: logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Do performs the request. Only transport-level failures are returned as
// errors; non-2xx statuses are reported through the Response.
func (t *HTTPTransport) Do(ctx context.Context, r *Request) (*Response, error) {
	if t.pacer != nil {
		if err := t.pacer.Wait(ctx); err != nil {
			return nil, fmt.Errorf("request pacing: %w", err)
		}
	}

	endpoint, err := url.Parse(r.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	endpoint.RawQuery = Values(r.Params).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range r.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("x-rapidapi-key", t.apiKey)
	req.Header.Set("x-rapidapi-host", endpoint.Host)
	req.Header.Set("Accept", "application/json")

	t.logger.Debug().
		Str("method", req.Method).
		Str("host", endpoint.Host).
		Str("path", endpoint.Path).
		Msg("Making uNoGS API request")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Reason:     reasonPhrase(resp),
		Body:       body,
		Header:     resp.Header,
	}, nil
}

// reasonPhrase extracts "Not Found" from "404 Not Found"
func reasonPhrase(resp *http.Response) string {
	if _, reason, ok := strings.Cut(resp.Status, " "); ok {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}
