// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pick

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/libgrab/pkg/types"
)

func ranked(titles ...string) []types.Candidate {
	cands := make([]types.Candidate, len(titles))
	for i, title := range titles {
		cands[i] = types.Candidate{
			ID:     title,
			Title:  title,
			Author: "Author",
			Format: "epub",
		}
	}
	return cands
}

func TestAutoPick(t *testing.T) {
	idx, err := Auto{}.Pick(context.Background(), ranked("first", "second"))
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestAutoPickEmpty(t *testing.T) {
	_, err := Auto{}.Pick(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoCandidate)
}

func TestAutoPickCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Auto{}.Pick(ctx, ranked("first"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInteractivePick(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr error
	}{
		{"chooses by index", "2\n", 1, nil},
		{"empty input takes head", "\n", 0, nil},
		{"q cancels", "q\n", 0, ErrCancelled},
		{"quit cancels", "quit\n", 0, ErrCancelled},
		{"eof cancels", "", 0, ErrCancelled},
		{"retries after junk", "nope\n0\n3\n", 2, nil},
		{"out of range then valid", "9\n1\n", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			s := Interactive{In: strings.NewReader(tt.input), Out: &out}

			idx, err := s.Pick(context.Background(), ranked("one", "two", "three"))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, idx)
			// The menu was shown.
			assert.Contains(t, out.String(), "one")
			assert.Contains(t, out.String(), "Select [1-3]")
		})
	}
}

func TestInteractiveSingleCandidateSkipsPrompt(t *testing.T) {
	var out bytes.Buffer
	// No input available: the prompt must not be read.
	s := Interactive{In: strings.NewReader(""), Out: &out}

	idx, err := s.Pick(context.Background(), ranked("only"))
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Contains(t, out.String(), "Only one result")
}

func TestInteractiveEmptyList(t *testing.T) {
	s := Interactive{In: strings.NewReader(""), Out: &bytes.Buffer{}}
	_, err := s.Pick(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoCandidate)
}

func TestInteractiveCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := Interactive{In: strings.NewReader("1\n"), Out: &bytes.Buffer{}}
	_, err := s.Pick(ctx, ranked("one", "two"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFormatTable(t *testing.T) {
	var out bytes.Buffer
	cands := ranked("A Very Long Book Title That Goes On And On Well Past The Column", "short")
	cands[0].SizeBytes = 2 << 20
	cands[0].PartialMatch = true
	FormatTable(cands, &out)

	s := out.String()
	assert.Contains(t, s, "2.0MB")
	assert.Contains(t, s, "partial")
	assert.Contains(t, s, "...")
	assert.Contains(t, s, "2 results")
}

func TestTruncateMultibyteTitles(t *testing.T) {
	long := strings.Repeat("книга", 20)
	got := truncate(long, 48)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 48, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "..."))

	short := "日本語のタイトル"
	assert.Equal(t, short, truncate(short, 48))
}
