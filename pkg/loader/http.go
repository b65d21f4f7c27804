package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/ssgelm/cookiejarparser"
)

const (
	// DefaultTimeout bounds a single schema fetch, including retries.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxResponseSize is the largest response body GetContent will
	// read (8 MiB). Documents beyond it are rejected, not truncated.
	DefaultMaxResponseSize = 8 << 20

	// DefaultUserAgent identifies schema fetches to remote servers.
	DefaultUserAgent = "json-schema-validator"
)

// HTTPError is returned when a server answers a schema fetch with a non-2xx
// status code.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s", e.StatusCode, e.URL)
}

// HTTPLoader fetches schema content over http and https. Transient failures
// (connection errors, 429, most 5xx responses) are retried with exponential
// backoff before giving up.
type HTTPLoader struct {
	client    *retryablehttp.Client
	userAgent string
	headers   http.Header
	maxSize   int64
}

// HTTPOption configures an HTTPLoader.
type HTTPOption func(*HTTPLoader) error

// WithTimeout caps the total time spent on one fetch, retries included.
func WithTimeout(d time.Duration) HTTPOption {
	return func(l *HTTPLoader) error {
		l.client.HTTPClient.Timeout = d
		return nil
	}
}

// WithUserAgent overrides the User-Agent header sent with every fetch.
func WithUserAgent(ua string) HTTPOption {
	return func(l *HTTPLoader) error {
		l.userAgent = ua
		return nil
	}
}

// WithMaxResponseSize overrides the response body size limit.
func WithMaxResponseSize(n int64) HTTPOption {
	return func(l *HTTPLoader) error {
		if n <= 0 {
			return fmt.Errorf("max response size must be positive, got %d", n)
		}
		l.maxSize = n
		return nil
	}
}

// WithHeader adds a header to every fetch, e.g. an Authorization token for a
// private schema host.
func WithHeader(key, value string) HTTPOption {
	return func(l *HTTPLoader) error {
		l.headers.Add(key, value)
		return nil
	}
}

// WithRetryMax sets how many times a failed fetch is retried.
func WithRetryMax(n int) HTTPOption {
	return func(l *HTTPLoader) error {
		l.client.RetryMax = n
		return nil
	}
}

// WithRetryWait sets the bounds for the backoff between retries.
func WithRetryWait(minWait, maxWait time.Duration) HTTPOption {
	return func(l *HTTPLoader) error {
		l.client.RetryWaitMin = minWait
		l.client.RetryWaitMax = maxWait
		return nil
	}
}

// WithCookieFile loads a curl/Netscape cookie file into the loader's cookie
// jar, for schema hosts behind cookie-based authentication.
func WithCookieFile(path string) HTTPOption {
	return func(l *HTTPLoader) error {
		jar, err := cookiejarparser.LoadCookieJarFile(path)
		if err != nil {
			return fmt.Errorf("loading cookie jar from %q: %w", path, err)
		}
		l.client.HTTPClient.Jar = jar
		return nil
	}
}

// WithHTTPClient replaces the underlying HTTP client, preserving the retry
// policy around it.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(l *HTTPLoader) error {
		l.client.HTTPClient = c
		return nil
	}
}

// NewHTTPLoader creates an HTTPLoader with the default fetch policy, adjusted
// by opts.
func NewHTTPLoader(opts ...HTTPOption) (*HTTPLoader, error) {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.HTTPClient.Timeout = DefaultTimeout

	l := &HTTPLoader{
		client:    client,
		userAgent: DefaultUserAgent,
		headers:   http.Header{},
		maxSize:   DefaultMaxResponseSize,
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// GetContent fetches the document at uri. Responses with a non-2xx status
// yield an *HTTPError; bodies larger than the configured limit are rejected.
func (l *HTTPLoader) GetContent(ctx context.Context, uri string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %q: %w", uri, err)
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "application/json")
	for key, values := range l.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %q: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &HTTPError{URL: uri, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	if resp.ContentLength > l.maxSize {
		return nil, fmt.Errorf("response from %q is %d bytes, limit is %d", uri, resp.ContentLength, l.maxSize)
	}

	// Read one byte past the limit so an oversized body without a
	// Content-Length header is detected rather than silently truncated.
	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading response from %q: %w", uri, err)
	}
	if int64(len(body)) > l.maxSize {
		return nil, fmt.Errorf("response from %q exceeds %d bytes", uri, l.maxSize)
	}
	return body, nil
}
