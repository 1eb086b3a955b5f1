// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/libgrab/internal/auth"
	"github.com/pdiddy/libgrab/internal/pick"
	"github.com/pdiddy/libgrab/internal/policy"
	"github.com/pdiddy/libgrab/pkg/types"
)

// A download timeout must bound a mirror attempt even when the search
// client is configured with a much longer one.
func TestBuildPipelineUsesDownloadTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	cfg := types.Config{
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{Timeout: 10 * time.Second},
			BaseURL:    ts.URL,
		},
		Policy: policy.DefaultConfig(),
		Download: types.DownloadConfig{
			HTTPConfig: types.HTTPConfig{Timeout: 100 * time.Millisecond},
			OutputDir:  t.TempDir(),
		},
	}

	p, closeHistory, err := buildPipeline(cfg, auth.Context{}, pick.Auto{}, io.Discard)
	require.NoError(t, err)
	defer closeHistory()

	cand := types.Candidate{ID: "abc123", Title: "Stalled", Format: "epub"}
	mirrors := []types.MirrorLink{
		{URL: ts.URL + "/fast_download/abc123/0/0", Kind: types.MirrorDirect, Rank: 1},
	}

	start := time.Now()
	_, err = p.Retriever.Download(context.Background(), cand, mirrors)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Less(t, elapsed, time.Second, "mirror attempt should be cut off by the download timeout")
}
