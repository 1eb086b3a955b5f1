// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves pages and file streams from the document index,
// carrying the operator's auth context on every request.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/libgrab/internal/auth"
	"github.com/pdiddy/libgrab/pkg/types"
)

// Error reports a failed fetch. Status is 0 for transport-level failures.
type Error struct {
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsFetchError reports whether err is (or wraps) a fetch Error.
func IsFetchError(err error) bool {
	var fe *Error
	return errors.As(err, &fe)
}

// Client fetches from the index. A zero MaxRetries uses the retry default.
type Client struct {
	http      *http.Client
	auth      auth.Context
	userAgent string
	retries   int
}

// defaultAccept mirrors what a browser sends; some index frontends vary
// markup on the Accept header.
const defaultAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

// New builds a Client from HTTP settings and an auth context.
func New(cfg types.HTTPConfig, authCtx auth.Context) *Client {
	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		auth:      authCtx,
		userAgent: cfg.UserAgent,
		retries:   cfg.MaxRetries,
	}
}

// Page fetches url and returns the response body as a string. Non-2xx
// statuses and transport failures return a *Error.
func (c *Client) Page(ctx context.Context, url string) (string, error) {
	resp, err := c.get(ctx, url, defaultAccept)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{URL: url, Err: fmt.Errorf("reading body: %w", err)}
	}
	return string(body), nil
}

// Stream fetches url and returns the open response for the caller to
// stream and close. The retriever uses it for mirror attempts.
func (c *Client) Stream(ctx context.Context, url string) (*http.Response, error) {
	return c.get(ctx, url, "*/*")
}

func (c *Client) get(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	req.Header.Set("Accept", accept)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	c.auth.Apply(req)

	resp, err := DoWithRetry(ctx, c.http, req, c.retries)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &Error{URL: url, Status: resp.StatusCode}
	}
	return resp, nil
}
