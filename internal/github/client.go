// MIT License
//
// Copyright (c) 2025 Mike Lane
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/go-github/v66/github"
	"github.com/google/go-querystring/query"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// ErrNoRedirect is returned when an endpoint expected to redirect answers without a Location
var ErrNoRedirect = errors.New("expected redirect")

// Client is the shared Actions API client. It owns the generic verb helpers
// and every endpoint binding is a method on it.
type Client struct {
	client      *github.Client
	noRedirect  *http.Client
	downloader  *http.Client
	retryConfig *RetryConfig
	limiter     *rate.Limiter
	logger      logr.Logger
	metrics     *Metrics
}

type settings struct {
	token      string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	retry      *RetryConfig
	limiter    *rate.Limiter
	logger     logr.Logger
	metrics    *Metrics
}

// Option configures a Client
type Option func(*settings) error

// WithToken authenticates every request with a static token
func WithToken(token string) Option {
	return func(s *settings) error {
		s.token = token
		return nil
	}
}

// WithBaseURL points the client at a different API root, such as
// https://ghe.example.com/api/v3 for GitHub Enterprise Server.
func WithBaseURL(baseURL string) Option {
	return func(s *settings) error {
		if _, err := url.Parse(baseURL); err != nil {
			return fmt.Errorf("invalid base URL %q: %w", baseURL, err)
		}
		s.baseURL = baseURL
		return nil
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(s *settings) error {
		s.userAgent = ua
		return nil
	}
}

// WithHTTPClient uses httpClient's transport as the base of the transport chain
func WithHTTPClient(httpClient *http.Client) Option {
	return func(s *settings) error {
		s.httpClient = httpClient
		return nil
	}
}

// WithRetryConfig replaces the default retry behavior. A nil config disables retries.
func WithRetryConfig(cfg *RetryConfig) Option {
	return func(s *settings) error {
		s.retry = cfg
		return nil
	}
}

// WithRateLimit throttles outgoing requests to rps with the given burst
func WithRateLimit(rps float64, burst int) Option {
	return func(s *settings) error {
		if rps <= 0 {
			s.limiter = nil
			return nil
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		return nil
	}
}

// WithLogger sets the logger used for request and retry logging
func WithLogger(logger logr.Logger) Option {
	return func(s *settings) error {
		s.logger = logger
		return nil
	}
}

// WithMetrics records request metrics into m
func WithMetrics(m *Metrics) Option {
	return func(s *settings) error {
		s.metrics = m
		return nil
	}
}

// NewClient creates a new Actions API client
func NewClient(opts ...Option) (*Client, error) {
	s := &settings{
		retry:  DefaultRetryConfig(),
		logger: logr.Discard(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{}
	if s.httpClient != nil {
		copied := *s.httpClient
		httpClient = &copied
	}

	transport := httpClient.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if s.token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: s.token}),
			Base:   transport,
		}
	}
	httpClient.Transport = otelhttp.NewTransport(transport)

	gh := github.NewClient(httpClient)
	if s.baseURL != "" {
		baseURL := s.baseURL
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", s.baseURL, err)
		}
		gh.BaseURL = u
	}
	if s.userAgent != "" {
		gh.UserAgent = s.userAgent
	}

	base := http.DefaultTransport
	if s.httpClient != nil && s.httpClient.Transport != nil {
		base = s.httpClient.Transport
	}
	downloader := &http.Client{Transport: otelhttp.NewTransport(base), Timeout: httpClient.Timeout}

	noRedirect := *httpClient
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Client{
		client:      gh,
		noRedirect:  &noRedirect,
		downloader:  downloader,
		retryConfig: s.retry,
		limiter:     s.limiter,
		logger:      s.logger,
		metrics:     s.metrics,
	}, nil
}

// Get issues a GET request. opts may be nil, url.Values, or a struct with url tags.
func (c *Client) Get(ctx context.Context, path string, opts any, v any) (*Response, error) {
	u, err := addOptions(path, opts)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodGet, u, nil, v)
}

// Put issues a PUT request
func (c *Client) Put(ctx context.Context, path string, body any, v any) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, body, v)
}

// Post issues a POST request
func (c *Client) Post(ctx context.Context, path string, body any, v any) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body, v)
}

// Delete issues a DELETE request
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// BooleanFromResponse issues the request and reports success as a boolean.
// Any 2xx is true, 404 is false without an error, any other failure is
// returned.
func (c *Client) BooleanFromResponse(ctx context.Context, method, path string, body any) (bool, error) {
	resp, err := c.do(ctx, method, path, body, nil)
	if err != nil {
		// go-github reports 202 Accepted as an error
		var accepted *github.AcceptedError
		if errors.As(err, &accepted) {
			return true, nil
		}
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}

	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}

// Redirect issues a GET without following redirects and returns the Location.
// Log and archive downloads are served this way.
func (c *Client) Redirect(ctx context.Context, path string) (*url.URL, error) {
	var location *url.URL

	err := c.executeWithRetry(ctx, http.MethodGet, func() error {
		req, err := c.client.NewRequest(http.MethodGet, path, nil)
		if err != nil {
			return err
		}

		start := time.Now()
		resp, err := c.noRedirect.Do(req.WithContext(ctx))
		if err != nil {
			c.observe(http.MethodGet, path, 0, time.Since(start))
			return err
		}
		defer resp.Body.Close() //nolint:errcheck
		c.observe(http.MethodGet, path, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusFound, http.StatusMovedPermanently, http.StatusTemporaryRedirect:
		default:
			if err := github.CheckResponse(resp); err != nil {
				return err
			}
			return fmt.Errorf("%w: %s answered %d", ErrNoRedirect, path, resp.StatusCode)
		}

		loc := resp.Header.Get("Location")
		if loc == "" {
			return fmt.Errorf("%w: %s answered %d without Location", ErrNoRedirect, path, resp.StatusCode)
		}
		location, err = url.Parse(loc)
		if err != nil {
			return fmt.Errorf("invalid Location header: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}

	return location, nil
}

// do executes a single API call with retry and throttling
func (c *Client) do(ctx context.Context, method, path string, body, v any) (*Response, error) {
	var resp *Response

	err := c.executeWithRetry(ctx, method, func() error {
		req, err := c.client.NewRequest(method, path, body)
		if err != nil {
			return err
		}

		start := time.Now()
		var doErr error
		resp, doErr = c.client.Do(ctx, req, v)

		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		c.observe(method, path, status, time.Since(start))

		return doErr
	})
	if err != nil {
		return resp, fmt.Errorf("%s %s: %w", method, path, err)
	}

	return resp, nil
}

func (c *Client) observe(method, path string, status int, d time.Duration) {
	c.logger.V(1).Info("GitHub API request", "method", method, "path", path, "status", status, "duration", d)
	if c.metrics == nil {
		return
	}
	code := "error"
	if status != 0 {
		code = strconv.Itoa(status)
	}
	c.metrics.requests.WithLabelValues(method, code).Inc()
	c.metrics.duration.WithLabelValues(method).Observe(d.Seconds())
}

// addOptions appends opts to path as query parameters
func addOptions(path string, opts any) (string, error) {
	if opts == nil {
		return path, nil
	}
	if v := reflect.ValueOf(opts); v.Kind() == reflect.Ptr && v.IsNil() {
		return path, nil
	}

	u, err := url.Parse(path)
	if err != nil {
		return path, err
	}

	var values url.Values
	switch o := opts.(type) {
	case url.Values:
		values = o
	case map[string]string:
		values = url.Values{}
		for k, val := range o {
			values.Set(k, val)
		}
	default:
		values, err = query.Values(opts)
		if err != nil {
			return path, fmt.Errorf("encode query options: %w", err)
		}
	}

	q := u.Query()
	for k, vals := range values {
		for _, val := range vals {
			q.Add(k, val)
		}
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func isNotFound(err error) bool {
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}
