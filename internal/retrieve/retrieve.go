// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve downloads a chosen candidate through its mirror list.
// Each mirror attempt walks an explicit state machine
// (Pending → Connecting → Streaming → Committed | Aborted); an abort
// cleans up after itself and hands control back for the next mirror, so
// no failure mode can leave a truncated file at the output path.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/libgrab/pkg/types"
)

// State identifies where a mirror attempt is in its lifecycle.
type State int

const (
	StatePending State = iota
	StateConnecting
	StateStreaming
	StateCommitted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// AttemptError records one aborted mirror attempt and the state it
// aborted from.
type AttemptError struct {
	Mirror types.MirrorLink
	From   State
	Err    error
}

func (e AttemptError) Error() string {
	return fmt.Sprintf("mirror %s aborted while %s: %v", e.Mirror.URL, e.From, e.Err)
}

func (e AttemptError) Unwrap() error { return e.Err }

// AllMirrorsFailedError means every mirror for the chosen candidate was
// tried and aborted. It is terminal for that candidate.
type AllMirrorsFailedError struct {
	CandidateID string
	Attempts    []AttemptError
}

func (e *AllMirrorsFailedError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("candidate %s: no usable mirrors", e.CandidateID)
	}
	last := e.Attempts[len(e.Attempts)-1]
	return fmt.Sprintf("candidate %s: all %d mirrors failed (last: %v)",
		e.CandidateID, len(e.Attempts), last)
}

// errExternalMirror marks mirrors that need manual off-site steps.
var errExternalMirror = errors.New("external mirror requires manual steps")

// Streamer issues a download request and returns the open response.
// fetch.Client satisfies it.
type Streamer interface {
	Stream(ctx context.Context, url string) (*http.Response, error)
}

// defaultMinBytes is the smallest body accepted as a real file. Mirror
// error pages and empty responses fall under it.
const defaultMinBytes = 1024

// Retriever streams the first working mirror to the output directory.
type Retriever struct {
	client   Streamer
	dir      string
	minBytes int64
	w        io.Writer
}

// New builds a Retriever writing into cfg.OutputDir, reporting progress
// prose to w.
func New(client Streamer, cfg types.DownloadConfig, w io.Writer) *Retriever {
	minBytes := cfg.MinBytes
	if minBytes <= 0 {
		minBytes = defaultMinBytes
	}
	return &Retriever{client: client, dir: cfg.OutputDir, minBytes: minBytes, w: w}
}

// Download tries each mirror in order and commits the first success.
// A failed attempt (timeout, bad status, empty body, type mismatch)
// aborts that attempt only and advances to the next mirror. External
// mirrors are recorded but not driven. A cancelled context stops the
// whole loop and returns ctx.Err(); exhausting the list returns
// *AllMirrorsFailedError.
func (r *Retriever) Download(ctx context.Context, cand types.Candidate, mirrors []types.MirrorLink) (*types.DownloadResult, error) {
	var attempts []AttemptError

	for _, mirror := range mirrors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if mirror.Kind == types.MirrorExternal {
			fmt.Fprintf(r.w, "skipping external mirror %s\n", mirror.URL)
			attempts = append(attempts, AttemptError{Mirror: mirror, From: StatePending, Err: errExternalMirror})
			continue
		}

		fmt.Fprintf(r.w, "trying mirror: %s\n", mirror.URL)
		result, attemptErr := r.attempt(ctx, cand, mirror)
		if attemptErr == nil {
			fmt.Fprintf(r.w, "committed: %s (%d bytes)\n", result.Path, result.BytesWritten)
			return result, nil
		}

		// Run-level cancellation aborts the whole loop; the attempt has
		// already cleaned up its temp file.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		fmt.Fprintf(r.w, "  %v\n", attemptErr)
		attempts = append(attempts, *attemptErr)
	}

	return nil, &AllMirrorsFailedError{CandidateID: cand.ID, Attempts: attempts}
}

// attempt runs the state machine for a single mirror. On any failure it
// removes the temp file and reports the state it aborted from; the
// caller returns the machine to Pending for the next mirror.
func (r *Retriever) attempt(ctx context.Context, cand types.Candidate, mirror types.MirrorLink) (*types.DownloadResult, *AttemptError) {
	abort := func(from State, err error) *AttemptError {
		return &AttemptError{Mirror: mirror, From: from, Err: err}
	}

	// Connecting.
	resp, err := r.client.Stream(ctx, mirror.URL)
	if err != nil {
		return nil, abort(StateConnecting, err)
	}
	defer resp.Body.Close()

	if resp.ContentLength >= 0 && resp.ContentLength < r.minBytes {
		return nil, abort(StateConnecting, fmt.Errorf("declared length %d below minimum %d", resp.ContentLength, r.minBytes))
	}
	if err := checkContentType(cand.Format, resp.Header.Get("Content-Type")); err != nil {
		return nil, abort(StateConnecting, err)
	}

	// Streaming. No bytes touch the final path until commit.
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, abort(StateStreaming, fmt.Errorf("creating output directory: %w", err))
	}
	tmpFile, err := os.CreateTemp(r.dir, ".libgrab-*.tmp")
	if err != nil {
		return nil, abort(StateStreaming, fmt.Errorf("creating temp file: %w", err))
	}
	tmpPath := tmpFile.Name()

	written, copyErr := io.Copy(tmpFile, &contextReader{ctx: ctx, r: resp.Body})
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return nil, abort(StateStreaming, fmt.Errorf("streaming body: %w", copyErr))
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return nil, abort(StateStreaming, fmt.Errorf("closing temp file: %w", closeErr))
	}
	if written < r.minBytes {
		os.Remove(tmpPath)
		return nil, abort(StateStreaming, fmt.Errorf("body of %d bytes below minimum %d", written, r.minBytes))
	}

	// Last cooperative cancellation point before the file becomes
	// visible at the output path.
	if err := ctx.Err(); err != nil {
		os.Remove(tmpPath)
		return nil, abort(StateStreaming, err)
	}

	// Committed.
	destPath, err := uniquePath(r.dir, Filename(cand, resp.Header))
	if err != nil {
		os.Remove(tmpPath)
		return nil, abort(StateStreaming, err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return nil, abort(StateStreaming, fmt.Errorf("renaming temp file: %w", err))
	}

	return &types.DownloadResult{Path: destPath, BytesWritten: written, Mirror: mirror}, nil
}

// mimeByFormat lists the content types a mirror legitimately serves for
// each format, beyond the generic octet-stream.
var mimeByFormat = map[string]string{
	"epub": "application/epub+zip",
	"pdf":  "application/pdf",
	"mobi": "application/x-mobipocket-ebook",
	"azw3": "application/vnd.amazon.ebook",
	"fb2":  "application/x-fictionbook+xml",
	"djvu": "image/vnd.djvu",
	"cbr":  "application/vnd.comicbook-rar",
}

// checkContentType rejects responses that cannot be the requested file:
// HTML is a mirror error or interstitial page, and a declared type that
// contradicts the candidate's format means the mirror is serving
// something else. A missing header or generic octet-stream passes.
func checkContentType(format, contentType string) error {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "" {
		return nil
	}
	if strings.Contains(ct, "text/html") {
		return fmt.Errorf("mirror returned an HTML page (%s)", contentType)
	}
	if format == types.Unknown || format == "" {
		return nil
	}
	if strings.Contains(ct, "octet-stream") || strings.Contains(ct, format) {
		return nil
	}
	if want, ok := mimeByFormat[format]; ok && strings.Contains(ct, want) {
		return nil
	}
	return fmt.Errorf("content type %q does not match format %q", contentType, format)
}

// uniquePath resolves on-disk collisions with a numeric suffix:
// "title.epub", "title (1).epub", "title (2).epub", ...
func uniquePath(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	path := filepath.Join(dir, name)
	for n := 1; ; n++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		} else if err != nil {
			return "", fmt.Errorf("checking %s: %w", path, err)
		}
		if n > 10000 {
			return "", fmt.Errorf("cannot find a free name for %s in %s", name, dir)
		}
		path = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
	}
}

// contextReader aborts an in-flight body copy when the context ends.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
