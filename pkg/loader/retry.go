package loader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

func defaultBackOff() backoff.BackOff {
	// Schema hosts can fail transiently (overloaded server, flaky DNS).
	// We retry each fetch up to 4 times on failure, after around 1 second,
	// 3 seconds, and 9 seconds (randomized exponential backoff).
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 1 * time.Second
	exponentialBackoff.Multiplier = 3
	return backoff.WithMaxRetries(exponentialBackoff, 4)
}

// Retry wraps l with randomized exponential backoff on transient failures.
// Context cancellation, HTTP client errors (4xx), and unregistered schemes
// are permanent and fail without further attempts.
func Retry(l Loader) Loader {
	return RetryWithBackOff(l, defaultBackOff)
}

// RetryWithBackOff is Retry with a custom backoff policy. newBackOff is
// called once per fetch, so policies carry no state between fetches.
func RetryWithBackOff(l Loader, newBackOff func() backoff.BackOff) Loader {
	return &retryLoader{next: l, newBackOff: newBackOff}
}

type retryLoader struct {
	next       Loader
	newBackOff func() backoff.BackOff
}

func (r *retryLoader) GetContent(ctx context.Context, uri string) ([]byte, error) {
	var content []byte
	err := backoff.Retry(func() error {
		var err error
		content, err = r.next.GetContent(ctx, uri)
		if err == nil {
			return nil
		}
		err = fmt.Errorf("while fetching %q: %w", uri, err)

		var httpErr *HTTPError
		if errors.As(err, &httpErr) &&
			httpErr.StatusCode >= http.StatusBadRequest &&
			httpErr.StatusCode < http.StatusInternalServerError {
			// The server understood the request and rejected it;
			// retrying cannot change the answer.
			return backoff.Permanent(err)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		if errors.Is(err, ErrSchemeNotRegistered) {
			// A missing loader is a configuration problem, not a
			// transient one.
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(r.newBackOff(), ctx))
	if err != nil {
		return nil, err
	}
	return content, nil
}
