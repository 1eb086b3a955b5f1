// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one query end to end: search fetch, extraction,
// filtering, ranking, selection, mirror resolution, retrieval, and the
// bookkeeping around a committed file. One Run handles one download; in
// shell mode runs execute strictly sequentially, sharing only the
// read-only policy and the output directory.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/libgrab/internal/extract"
	"github.com/pdiddy/libgrab/internal/fetch"
	"github.com/pdiddy/libgrab/internal/pick"
	"github.com/pdiddy/libgrab/internal/policy"
	"github.com/pdiddy/libgrab/internal/retrieve"
	"github.com/pdiddy/libgrab/pkg/types"
)

// Fetcher returns a page body for a URL.
type Fetcher interface {
	Page(ctx context.Context, url string) (string, error)
}

// Downloader drives the mirror loop for a chosen candidate.
type Downloader interface {
	Download(ctx context.Context, cand types.Candidate, mirrors []types.MirrorLink) (*types.DownloadResult, error)
}

// Recorder persists completed downloads. history.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, rec types.DownloadRecord) error
	Seen(ctx context.Context, candidateID string) (bool, error)
}

// Pipeline wires the stages of a run. All fields but History are
// required; a nil History disables bookkeeping.
type Pipeline struct {
	Fetcher   Fetcher
	Retriever Downloader
	Selector  pick.Selector
	Policy    *policy.Policy
	History   Recorder

	// BaseURL is the index root the search URL is built on.
	BaseURL string

	// OutputDir receives the metadata/ record for each download.
	OutputDir string

	// Fallback is how many further ranked candidates to try when the
	// chosen candidate's mirrors are exhausted or it exposes none.
	// Zero terminates the run instead; falling back is always explicit
	// and reported, never silent.
	Fallback int

	// W receives progress prose. The pipeline writes prose only; result
	// classification is the Outcome.
	W io.Writer
}

// Run executes one query and classifies how it ended. It never panics
// on bad pages or dead mirrors; every failure path maps to an Outcome
// kind with the underlying typed error attached.
func (p *Pipeline) Run(ctx context.Context, query string) types.Outcome {
	searchURL := fetch.SearchURL(p.BaseURL, query, p.Policy)
	fmt.Fprintf(p.W, "searching: %s\n", query)

	page, err := p.Fetcher.Page(ctx, searchURL)
	if err != nil {
		if ctx.Err() != nil {
			return types.Outcome{Kind: types.OutcomeCancelled}
		}
		return types.Outcome{Kind: types.OutcomeNetworkFailure, Err: err}
	}

	candidates, err := extract.Results(page, searchURL)
	if err != nil {
		return types.Outcome{Kind: types.OutcomeParseFailure, Err: err}
	}
	fmt.Fprintf(p.W, "found %d results\n", len(candidates))

	ranked := policy.Rank(policy.Filter(candidates, p.Policy), p.Policy)
	if dropped := len(candidates) - len(ranked); dropped > 0 {
		fmt.Fprintf(p.W, "filtered out %d results\n", dropped)
	}

	idx, err := p.Selector.Pick(ctx, ranked)
	switch {
	case errors.Is(err, pick.ErrCancelled), ctx.Err() != nil && err != nil:
		return types.Outcome{Kind: types.OutcomeCancelled}
	case errors.Is(err, pick.ErrNoCandidate):
		return types.Outcome{Kind: types.OutcomeNoCandidate, Err: err}
	case err != nil:
		return types.Outcome{Kind: types.OutcomeNetworkFailure, Err: err}
	}

	return p.retrieveFrom(ctx, query, ranked, idx)
}

// retrieveFrom works down the ranked list starting at idx, trying at
// most 1+Fallback candidates.
func (p *Pipeline) retrieveFrom(ctx context.Context, query string, ranked []types.Candidate, idx int) types.Outcome {
	lastKind := types.OutcomeAllMirrorsFailed
	var lastErr error
	var lastCand *types.Candidate

	tries := p.Fallback + 1
	for n := 0; n < tries && idx < len(ranked); n, idx = n+1, idx+1 {
		cand := ranked[idx]
		lastCand = &cand

		if n > 0 {
			fmt.Fprintf(p.W, "falling back to next ranked candidate (%d of %d extra)\n", n, p.Fallback)
		}
		fmt.Fprintf(p.W, "selected: %s by %s [%s]\n", cand.Title, cand.Author, cand.Format)
		p.noteIfSeen(ctx, cand.ID)

		kind, result, err := p.tryCandidate(ctx, cand)
		if err == nil {
			p.bookkeep(ctx, query, cand, result)
			return types.Outcome{Kind: types.OutcomeSuccess, Download: result, Candidate: &cand}
		}
		if ctx.Err() != nil {
			return types.Outcome{Kind: types.OutcomeCancelled, Candidate: &cand}
		}

		fmt.Fprintf(p.W, "candidate failed: %v\n", err)
		lastKind, lastErr = kind, err
	}

	return types.Outcome{Kind: lastKind, Candidate: lastCand, Err: lastErr}
}

// tryCandidate resolves one candidate's mirrors and attempts the
// download. The returned kind classifies the failure for the case where
// no fallback candidate remains.
func (p *Pipeline) tryCandidate(ctx context.Context, cand types.Candidate) (types.OutcomeKind, *types.DownloadResult, error) {
	detail, err := p.Fetcher.Page(ctx, cand.DetailURL)
	if err != nil {
		return types.OutcomeNetworkFailure, nil, err
	}

	mirrors, err := extract.Mirrors(detail, cand.DetailURL, cand.ID)
	if err != nil {
		// Zero mirrors exhausts the candidate the same way dead
		// mirrors do; drifted detail markup stays a parse failure.
		var noMirror *extract.NoMirrorError
		if errors.As(err, &noMirror) {
			return types.OutcomeAllMirrorsFailed, nil, err
		}
		return types.OutcomeParseFailure, nil, err
	}
	fmt.Fprintf(p.W, "resolved %d mirrors\n", len(mirrors))

	result, err := p.Retriever.Download(ctx, cand, mirrors)
	if err != nil {
		var allFailed *retrieve.AllMirrorsFailedError
		if errors.As(err, &allFailed) {
			return types.OutcomeAllMirrorsFailed, nil, err
		}
		return types.OutcomeNetworkFailure, nil, err
	}
	return types.OutcomeSuccess, result, nil
}

// noteIfSeen tells the operator when the history already holds this
// candidate. It is informational only; the run proceeds.
func (p *Pipeline) noteIfSeen(ctx context.Context, candidateID string) {
	if p.History == nil {
		return
	}
	if seen, err := p.History.Seen(ctx, candidateID); err == nil && seen {
		fmt.Fprintf(p.W, "note: %s was downloaded before\n", candidateID)
	}
}

// bookkeep writes the YAML metadata record and the history row for a
// committed download. Neither failure demotes the outcome: the file is
// already on disk.
func (p *Pipeline) bookkeep(ctx context.Context, query string, cand types.Candidate, result *types.DownloadResult) {
	rec := types.DownloadRecord{
		ID:          cand.ID,
		Query:       query,
		Title:       cand.Title,
		Author:      cand.Author,
		Format:      cand.Format,
		Language:    cand.Language,
		ContentType: cand.ContentType,
		MirrorURL:   result.Mirror.URL,
		Path:        result.Path,
		Bytes:       result.BytesWritten,
		RetrievedAt: time.Now().UTC(),
	}

	if err := writeRecord(rec, p.OutputDir); err != nil {
		fmt.Fprintf(p.W, "warning: writing metadata record: %v\n", err)
	}
	if p.History != nil {
		if err := p.History.Record(ctx, rec); err != nil {
			fmt.Fprintf(p.W, "warning: recording history: %v\n", err)
		}
	}
}
