// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/libgrab/pkg/types"
)

// mib is a variable so size expectations truncate at runtime like parseSize.
var mib = float64(1 << 20)

const resultsPage = `<!DOCTYPE html>
<html><body>
<div class="results">
  <a href="/md5/aaaa1111">
    <h3>The Count of Monte Cristo</h3>
    <div class="italic">Alexandre Dumas</div>
    <div class="relative top-[-1] text-gray-500">English [en], .epub, direct download, 1.9MB, Book (fiction)</div>
  </a>
  <a href="/md5/bbbb2222">
    <h3>Monte Cristo (scan)</h3>
    <div class="italic">A. Dumas</div>
    <div class="text-gray-500">German [de], .pdf, external download, 12.5MB, Book (non-fiction)</div>
  </a>
  <div class="italic mt-2">3 partial matches</div>
  <!--<a href="/md5/cccc3333">
    <h3>Le Comte de Monte-Cristo</h3>
    <div class="italic">Dumas</div>
    <div class="text-gray-500">French [fr], .mobi, torrents available, 800KB, Book (fiction)</div>
  </a>-->
  <a href="/md5/dddd4444">
    <h3>Mystery Item</h3>
    <div class="text-gray-500">Klingon [tlhIngan], .tar.gz, carrier pigeon, soon, Hologram</div>
  </a>
</div>
</body></html>`

func TestResults(t *testing.T) {
	cands, err := Results(resultsPage, "https://index.example/search?q=monte+cristo")
	require.NoError(t, err)
	require.Len(t, cands, 4)

	first := cands[0]
	assert.Equal(t, "aaaa1111", first.ID)
	assert.Equal(t, "The Count of Monte Cristo", first.Title)
	assert.Equal(t, "Alexandre Dumas", first.Author)
	assert.Equal(t, "epub", first.Format)
	assert.Equal(t, "en", first.Language)
	assert.Equal(t, "direct_download", first.AccessType)
	assert.Equal(t, "book_fiction", first.ContentType)
	assert.Equal(t, int64(1.9*mib), first.SizeBytes)
	assert.Equal(t, "https://index.example/md5/aaaa1111", first.DetailURL)
	assert.False(t, first.PartialMatch)
	assert.Equal(t, 0, first.Position)

	second := cands[1]
	assert.Equal(t, "pdf", second.Format)
	assert.Equal(t, "de", second.Language)
	assert.Equal(t, "external_download", second.AccessType)
	assert.Equal(t, "book_nonfiction", second.ContentType)
	assert.False(t, second.PartialMatch)

	// The commented-out row below the partial banner is still parsed.
	third := cands[2]
	assert.Equal(t, "cccc3333", third.ID)
	assert.Equal(t, "mobi", third.Format)
	assert.Equal(t, "torrents_available", third.AccessType)
	assert.True(t, third.PartialMatch)
	assert.Equal(t, 2, third.Position)

	// Unrecognized values degrade to the unknown sentinel.
	fourth := cands[3]
	assert.Equal(t, types.Unknown, fourth.Author)
	assert.Equal(t, types.Unknown, fourth.Language)
	assert.Equal(t, types.Unknown, fourth.Format)
	assert.Equal(t, types.Unknown, fourth.AccessType)
	assert.Equal(t, types.Unknown, fourth.ContentType)
	assert.Zero(t, fourth.SizeBytes)
	assert.True(t, fourth.PartialMatch)
}

func TestResultsPageOrder(t *testing.T) {
	cands, err := Results(resultsPage, "https://index.example/search")
	require.NoError(t, err)
	for i, c := range cands {
		assert.Equal(t, i, c.Position)
	}
}

func TestResultsParseError(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty page", ""},
		{"no result links", `<html><body><p>No files found.</p></body></html>`},
		{"unrelated links only", `<html><body><a href="/donate">Donate</a></body></html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Results(tt.raw, "https://index.example/search")
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, "https://index.example/search", pe.URL)
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"800KB", 800 * 1024, true},
		{"1.9MB", int64(1.9 * mib), true},
		{"2 GB", 2 << 30, true},
		{"13mb", 13 << 20, true},
		{"large", 0, false},
		{"MB", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseSize(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

const detailPage = `<!DOCTYPE html>
<html><body>
<h1>The Count of Monte Cristo</h1>
<ul class="list-inside">
  <li><a href="/slow_download/aaaa1111/0/2">Slow Partner Server #2</a></li>
  <li><a href="/fast_download/aaaa1111/0/1">Fast Partner Server #2</a></li>
  <li><a href="/fast_download/aaaa1111/0/0">Fast Partner Server #1</a></li>
  <li><a href="https://mirror-elsewhere.example/file/aaaa1111">Libgen.li</a></li>
  <li><a href="/slow_download/aaaa1111/0/1">Slow Partner Server #1</a></li>
  <li><a href="/datasets">Datasets</a></li>
</ul>
</body></html>`

func TestMirrorsOrdering(t *testing.T) {
	mirrors, err := Mirrors(detailPage, "https://index.example/md5/aaaa1111", "aaaa1111")
	require.NoError(t, err)
	require.Len(t, mirrors, 5)

	// Fast partners by declared rank, then slow partners, then external.
	assert.Equal(t, "Fast Partner Server #1", mirrors[0].Label)
	assert.Equal(t, "Fast Partner Server #2", mirrors[1].Label)
	assert.Equal(t, "Slow Partner Server #1", mirrors[2].Label)
	assert.Equal(t, "Slow Partner Server #2", mirrors[3].Label)
	assert.Equal(t, "Libgen.li", mirrors[4].Label)

	for _, m := range mirrors[:4] {
		assert.Equal(t, types.MirrorDirect, m.Kind)
	}
	assert.Equal(t, types.MirrorExternal, mirrors[4].Kind)

	// Relative links resolve against the detail page.
	assert.Equal(t, "https://index.example/fast_download/aaaa1111/0/0", mirrors[0].URL)
}

func TestMirrorsNoMirrorError(t *testing.T) {
	page := `<html><body><h1>Gone</h1><ul><li><a href="/datasets">Datasets</a></li></ul></body></html>`
	_, err := Mirrors(page, "https://index.example/md5/gone", "gone")

	var nme *NoMirrorError
	require.ErrorAs(t, err, &nme)
	assert.Equal(t, "gone", nme.CandidateID)

	// The typed error is still matchable through wrapping.
	wrapped := errors.Join(errors.New("context"), err)
	assert.ErrorAs(t, wrapped, &nme)
}

func TestMirrorsDeduplicates(t *testing.T) {
	page := `<html><body><ul>
	  <li><a href="/fast_download/x/0/0">Fast Partner Server #1</a></li>
	  <li><a href="/fast_download/x/0/0">Fast Partner Server #1</a></li>
	</ul></body></html>`
	mirrors, err := Mirrors(page, "https://index.example/md5/x", "x")
	require.NoError(t, err)
	assert.Len(t, mirrors, 1)
}
