// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Unknown is the sentinel for a dimension value the extractor could not
// recognize. It survives every ignore set: when page markup drifts, a
// result degrades to "unknown" instead of silently disappearing.
const Unknown = "unknown"

// Candidate is one parsed search-result entry. Fields are fixed at
// extraction time; the pipeline never mutates a Candidate after the
// extractor returns it.
type Candidate struct {
	// ID is derived from the detail link (the index's content hash).
	ID string `json:"id" yaml:"id"`

	// Title is the book title as shown on the results page.
	Title string `json:"title" yaml:"title"`

	// Author is the author line as shown on the results page.
	Author string `json:"author" yaml:"author"`

	// ContentType classifies the work (e.g. "book_fiction", "magazine").
	ContentType string `json:"content_type" yaml:"content_type"`

	// Format is the file format without the leading dot (e.g. "epub").
	Format string `json:"format" yaml:"format"`

	// AccessType describes how the file is delivered (e.g. "direct_download").
	AccessType string `json:"access_type" yaml:"access_type"`

	// Language is the two-letter language code (e.g. "en").
	Language string `json:"language" yaml:"language"`

	// SizeBytes is the approximate file size declared on the results
	// page, or 0 when the page states no size.
	SizeBytes int64 `json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`

	// DetailURL is the absolute URL of the candidate's detail page.
	DetailURL string `json:"detail_url" yaml:"detail_url"`

	// PartialMatch marks candidates listed below the results page's
	// "partial matches" banner.
	PartialMatch bool `json:"partial_match,omitempty" yaml:"partial_match,omitempty"`

	// Position is the candidate's index in page order. Ranking uses it
	// as the tie-breaker so equal-priority candidates keep page order.
	Position int `json:"position" yaml:"position"`
}

// MirrorKind distinguishes mirrors the tool can drive itself from
// mirrors that hand the operator to another site.
type MirrorKind int

const (
	// MirrorDirect is a partner server the index delivers from directly.
	MirrorDirect MirrorKind = iota

	// MirrorExternal points off-site and requires manual steps.
	MirrorExternal
)

func (k MirrorKind) String() string {
	switch k {
	case MirrorDirect:
		return "direct"
	case MirrorExternal:
		return "external"
	default:
		return "unknown"
	}
}

// MirrorLink is one alternative delivery URL for a chosen candidate.
type MirrorLink struct {
	// URL is the absolute download URL.
	URL string `json:"url" yaml:"url"`

	// Rank is the declared speed rank read from the surrounding page
	// markup. Lower is faster; slow partner servers rank after fast ones.
	Rank int `json:"rank" yaml:"rank"`

	// Kind is direct (partner server) or external (off-site).
	Kind MirrorKind `json:"kind" yaml:"kind"`

	// Label is the link text, kept for log output.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// DownloadResult describes a committed download.
type DownloadResult struct {
	// Path is the final on-disk location of the file.
	Path string `json:"path" yaml:"path"`

	// BytesWritten is the number of bytes committed.
	BytesWritten int64 `json:"bytes_written" yaml:"bytes_written"`

	// Mirror is the mirror that delivered the file.
	Mirror MirrorLink `json:"mirror" yaml:"mirror"`
}

// OutcomeKind classifies how a pipeline run ended. The CLI layer maps
// kinds to text and exit codes; the pipeline returns structured results
// only.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeCancelled
	OutcomeNoCandidate
	OutcomeParseFailure
	OutcomeAllMirrorsFailed
	OutcomeNetworkFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeNoCandidate:
		return "no_candidate"
	case OutcomeParseFailure:
		return "parse_failure"
	case OutcomeAllMirrorsFailed:
		return "all_mirrors_failed"
	case OutcomeNetworkFailure:
		return "network_failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of one pipeline run.
type Outcome struct {
	// Kind classifies the run.
	Kind OutcomeKind

	// Download is set when Kind is OutcomeSuccess.
	Download *DownloadResult

	// Candidate is the candidate the run was working on when it ended,
	// when one had been selected.
	Candidate *Candidate

	// Err is the underlying failure for the failure kinds. It is nil
	// for OutcomeSuccess and OutcomeCancelled.
	Err error
}

// Failed reports whether the outcome is a failure kind. Cancellation is
// a clean termination, not a failure.
func (o Outcome) Failed() bool {
	return o.Kind != OutcomeSuccess && o.Kind != OutcomeCancelled
}
