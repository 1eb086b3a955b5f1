// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"io"
	"math"
	"net/http"
	"time"
)

// RetryBaseDelay is the starting backoff after the index rate-limits a
// request. Tests override it to avoid real sleeps.
var RetryBaseDelay = 10 * time.Second

const defaultMaxRetries = 5

// DoWithRetry sends req and waits out the index's rate limiting: each
// HTTP 429 doubles the backoff, starting at RetryBaseDelay. Any other
// status, including other errors the index reports, is returned to the
// caller untouched on the first attempt.
//
// maxRetries <= 0 uses the default of 5. The 429 body is drained and
// closed before each wait so the connection can be reused; a context
// cancelled mid-wait returns ctx.Err(). Once retries run out the last
// 429 response itself is returned for the caller to inspect.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		// Out of retries; hand back the 429 itself.
		if attempt >= maxRetries {
			return resp, nil
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
