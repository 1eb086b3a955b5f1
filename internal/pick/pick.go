// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pick chooses one candidate from a ranked list. It performs no
// filtering or ranking of its own; the list arrives already ordered.
// Cancellation is a clean termination signalled with ErrCancelled, not a
// failure.
package pick

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdiddy/libgrab/pkg/types"
)

// ErrNoCandidate means the ranked list was empty: filtering eliminated
// every result. It is a user-actionable outcome, not a crash.
var ErrNoCandidate = errors.New("no candidates remain after filtering")

// ErrCancelled means the operator declined to pick anything.
var ErrCancelled = errors.New("selection cancelled")

// Selector picks the index of one candidate from a ranked list.
type Selector interface {
	Pick(ctx context.Context, ranked []types.Candidate) (int, error)
}

// Auto takes the head of the ranked list.
type Auto struct{}

func (Auto) Pick(ctx context.Context, ranked []types.Candidate) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(ranked) == 0 {
		return 0, ErrNoCandidate
	}
	return 0, nil
}

// Interactive presents the ranked list on Out and reads a choice from
// In. It is a synchronous boundary call: it blocks until the operator
// answers with an index or cancels.
type Interactive struct {
	In  io.Reader
	Out io.Writer
}

// Pick prompts for a 1-based index. Empty input picks the first entry;
// "q"/"quit"/"exit" or end of input cancels. A lone candidate is
// returned without prompting. Invalid input re-prompts.
func (s Interactive) Pick(ctx context.Context, ranked []types.Candidate) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(ranked) == 0 {
		return 0, ErrNoCandidate
	}
	if len(ranked) == 1 {
		fmt.Fprintf(s.Out, "Only one result: %s\n", ranked[0].Title)
		return 0, nil
	}

	FormatTable(ranked, s.Out)

	// Reuse an existing buffered reader so a caller interleaving its own
	// reads on the same stream does not lose buffered input.
	reader, ok := s.In.(*bufio.Reader)
	if !ok {
		reader = bufio.NewReader(s.In)
	}

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		fmt.Fprintf(s.Out, "Select [1-%d], Enter for 1, q to cancel: ", len(ranked))

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			// End of input without an answer is a cancellation.
			return 0, ErrCancelled
		}
		answer := strings.ToLower(strings.TrimSpace(line))

		switch answer {
		case "":
			return 0, nil
		case "q", "quit", "exit":
			return 0, ErrCancelled
		}

		n, convErr := strconv.Atoi(answer)
		if convErr != nil || n < 1 || n > len(ranked) {
			fmt.Fprintf(s.Out, "invalid choice %q\n", answer)
			if err != nil {
				return 0, ErrCancelled
			}
			continue
		}
		return n - 1, nil
	}
}

// FormatTable writes the ranked candidates as a human-readable table.
func FormatTable(ranked []types.Candidate, w io.Writer) {
	if len(ranked) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-48s  %-24s  %-6s  %-4s  %-9s  %s\n",
		"Rank", "Title", "Author", "Format", "Lang", "Size", "Match")
	fmt.Fprintln(w, strings.Repeat("-", 108))

	for i, c := range ranked {
		match := "direct"
		if c.PartialMatch {
			match = "partial"
		}
		fmt.Fprintf(w, "%-4d  %-48s  %-24s  %-6s  %-4s  %-9s  %s\n",
			i+1, truncate(c.Title, 48), truncate(c.Author, 24),
			c.Format, c.Language, formatSize(c.SizeBytes), match)
	}
	fmt.Fprintf(w, "\n%d results\n", len(ranked))
}

// formatSize renders a byte count the way the index does ("1.9MB").
func formatSize(bytes int64) string {
	switch {
	case bytes <= 0:
		return "-"
	case bytes < 1<<20:
		return fmt.Sprintf("%.1fKB", float64(bytes)/(1<<10))
	case bytes < 1<<30:
		return fmt.Sprintf("%.1fMB", float64(bytes)/(1<<20))
	default:
		return fmt.Sprintf("%.1fGB", float64(bytes)/(1<<30))
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
