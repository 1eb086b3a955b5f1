// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/libgrab/internal/auth"
	"github.com/pdiddy/libgrab/internal/fetch"
	"github.com/pdiddy/libgrab/pkg/types"
)

// payload is comfortably above the test minimum body size.
var payload = bytes.Repeat([]byte("x"), 4096)

func testCandidate() types.Candidate {
	return types.Candidate{
		ID:     "aaaa1111",
		Title:  "The Count of Monte Cristo",
		Author: "Alexandre Dumas",
		Format: "epub",
	}
}

func testRetriever(t *testing.T, timeout time.Duration) (*Retriever, string) {
	t.Helper()
	dir := t.TempDir()
	client := fetch.New(types.HTTPConfig{Timeout: timeout, UserAgent: "libgrab-test"}, auth.Context{})
	r := New(client, types.DownloadConfig{OutputDir: dir, MinBytes: 100}, &bytes.Buffer{})
	return r, dir
}

func direct(url string) types.MirrorLink {
	return types.MirrorLink{URL: url, Kind: types.MirrorDirect}
}

func serveBody(t *testing.T, contentType string, body []byte) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.Write(body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestDownloadFirstMirrorSucceeds(t *testing.T) {
	ts := serveBody(t, "application/epub+zip", payload)
	r, dir := testRetriever(t, 5*time.Second)

	result, err := r.Download(context.Background(), testCandidate(), []types.MirrorLink{direct(ts.URL)})
	require.NoError(t, err)

	assert.Equal(t, int64(len(payload)), result.BytesWritten)
	assert.Equal(t, filepath.Join(dir, "The Count of Monte Cristo - Alexandre Dumas.epub"), result.Path)

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

// TestDownloadAdvancesPastTimeout is the slow-mirror scenario: the first
// mirror stalls past the per-attempt timeout, the retriever aborts that
// attempt and commits from the next mirror.
func TestDownloadAdvancesPastTimeout(t *testing.T) {
	stalled := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(2 * time.Second)
		w.Write(payload)
	}))
	defer stalled.Close()
	good := serveBody(t, "application/epub+zip", payload)

	r, _ := testRetriever(t, 100*time.Millisecond)

	result, err := r.Download(context.Background(), testCandidate(), []types.MirrorLink{
		direct(stalled.URL),
		direct(good.URL),
	})
	require.NoError(t, err)
	assert.Equal(t, good.URL, result.Mirror.URL)
}

func TestDownloadRejectsBadResponses(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		errPart string
	}{
		{
			name: "non-2xx status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "gone", http.StatusServiceUnavailable)
			},
			errPart: "503",
		},
		{
			name: "html error page",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.Write(payload)
			},
			errPart: "HTML page",
		},
		{
			name: "content type mismatch",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "image/png")
				w.Write(payload)
			},
			errPart: "does not match format",
		},
		{
			name: "body too small",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/epub+zip")
				w.Write([]byte("nope"))
			},
			errPart: "below minimum",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			r, dir := testRetriever(t, 5*time.Second)
			_, err := r.Download(context.Background(), testCandidate(), []types.MirrorLink{direct(ts.URL)})

			var amf *AllMirrorsFailedError
			require.ErrorAs(t, err, &amf)
			require.Len(t, amf.Attempts, 1)
			assert.Contains(t, amf.Attempts[0].Error(), tt.errPart)

			assertNoResidue(t, dir)
		})
	}
}

func TestDownloadExhaustsAllMirrors(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no", http.StatusBadGateway)
	}))
	defer bad.Close()

	r, dir := testRetriever(t, 5*time.Second)
	mirrors := []types.MirrorLink{direct(bad.URL + "/a"), direct(bad.URL + "/b")}

	_, err := r.Download(context.Background(), testCandidate(), mirrors)
	var amf *AllMirrorsFailedError
	require.ErrorAs(t, err, &amf)
	assert.Equal(t, "aaaa1111", amf.CandidateID)
	assert.Len(t, amf.Attempts, 2)

	// No truncated or partial file remains anywhere in the output dir.
	assertNoResidue(t, dir)
}

func TestDownloadSkipsExternalMirrors(t *testing.T) {
	good := serveBody(t, "application/epub+zip", payload)
	var out bytes.Buffer
	client := fetch.New(types.HTTPConfig{Timeout: 5 * time.Second}, auth.Context{})
	r := New(client, types.DownloadConfig{OutputDir: t.TempDir(), MinBytes: 100}, &out)

	result, err := r.Download(context.Background(), testCandidate(), []types.MirrorLink{
		{URL: "https://elsewhere.example/file", Kind: types.MirrorExternal},
		direct(good.URL),
	})
	require.NoError(t, err)
	assert.Equal(t, good.URL, result.Mirror.URL)
	assert.Contains(t, out.String(), "skipping external mirror")
}

func TestDownloadOnlyExternalMirrorsFails(t *testing.T) {
	r, dir := testRetriever(t, time.Second)
	_, err := r.Download(context.Background(), testCandidate(), []types.MirrorLink{
		{URL: "https://elsewhere.example/file", Kind: types.MirrorExternal},
	})

	var amf *AllMirrorsFailedError
	require.ErrorAs(t, err, &amf)
	require.Len(t, amf.Attempts, 1)
	assert.ErrorIs(t, amf.Attempts[0].Err, errExternalMirror)
	assertNoResidue(t, dir)
}

func TestDownloadCollisionSuffix(t *testing.T) {
	ts := serveBody(t, "application/epub+zip", payload)
	r, dir := testRetriever(t, 5*time.Second)
	cand := testCandidate()

	first, err := r.Download(context.Background(), cand, []types.MirrorLink{direct(ts.URL)})
	require.NoError(t, err)
	second, err := r.Download(context.Background(), cand, []types.MirrorLink{direct(ts.URL)})
	require.NoError(t, err)
	third, err := r.Download(context.Background(), cand, []types.MirrorLink{direct(ts.URL)})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "The Count of Monte Cristo - Alexandre Dumas.epub"), first.Path)
	assert.Equal(t, filepath.Join(dir, "The Count of Monte Cristo - Alexandre Dumas (1).epub"), second.Path)
	assert.Equal(t, filepath.Join(dir, "The Count of Monte Cristo - Alexandre Dumas (2).epub"), third.Path)
}

func TestDownloadCancelledMidStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/epub+zip")
		w.Write(payload[:2048])
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		cancel()
		<-release
		w.Write(payload[2048:])
	}))
	defer ts.Close()
	defer close(release)

	r, dir := testRetriever(t, 10*time.Second)
	_, err := r.Download(ctx, testCandidate(), []types.MirrorLink{direct(ts.URL)})
	assert.ErrorIs(t, err, context.Canceled)

	assertNoResidue(t, dir)
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name   string
		cand   types.Candidate
		header http.Header
		want   string
	}{
		{
			name: "title and author",
			cand: types.Candidate{Title: "Dune", Author: "Frank Herbert", Format: "epub"},
			want: "Dune - Frank Herbert.epub",
		},
		{
			name: "content disposition wins with forced extension",
			cand: types.Candidate{Title: "Dune", Author: "Frank Herbert", Format: "epub"},
			header: http.Header{
				"Content-Disposition": []string{`attachment; filename="dune_v3.mobi"`},
			},
			want: "dune_v3.epub",
		},
		{
			name: "unsafe characters stripped",
			cand: types.Candidate{Title: `What? A "Title": <Part 1/2>`, Author: "A*B", Format: "pdf"},
			want: "What A Title Part 12 - AB.pdf",
		},
		{
			name: "unknown author omitted",
			cand: types.Candidate{Title: "Anonymous Work", Author: types.Unknown, Format: "pdf"},
			want: "Anonymous Work.pdf",
		},
		{
			name: "unknown format gets neutral extension",
			cand: types.Candidate{Title: "Mystery", Author: "X", Format: types.Unknown},
			want: "Mystery - X.bin",
		},
		{
			name: "everything unsanitizable falls back to id",
			cand: types.Candidate{ID: "aaaa1111", Title: `???`, Author: "", Format: "epub"},
			want: "aaaa1111.epub",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := tt.header
			if header == nil {
				header = http.Header{}
			}
			assert.Equal(t, tt.want, Filename(tt.cand, header))
		})
	}
}

func TestSanitizeLongName(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := Sanitize(long)
	assert.LessOrEqual(t, len(got), maxNameLen)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "streaming", StateStreaming.String())
	assert.Equal(t, "committed", StateCommitted.String())
	assert.Equal(t, "aborted", StateAborted.String())
}

// assertNoResidue verifies no file, temp or final, is left in dir.
func assertNoResidue(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		t.Errorf("residual file left behind: %s", e.Name())
	}
}
