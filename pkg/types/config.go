// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request timeout. Mirror attempts use it as the
	// per-attempt budget: a timeout aborts one attempt, never the run.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with index requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retry attempts on HTTP 429 responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// SearchConfig holds settings for querying the document index.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the root URL of the document index.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
}

// DimensionConfig configures one filterable axis. Allow and Ignore are
// mutually exclusive: an allow-list for a dimension is shorthand for
// ignoring the universe minus the allow-list.
type DimensionConfig struct {
	// Universe lists every value the index recognizes for this dimension.
	Universe []string `json:"universe" yaml:"universe" mapstructure:"universe"`

	// Ignore lists values to drop.
	Ignore []string `json:"ignore,omitempty" yaml:"ignore,omitempty" mapstructure:"ignore"`

	// Allow lists the only values to keep.
	Allow []string `json:"allow,omitempty" yaml:"allow,omitempty" mapstructure:"allow"`
}

// PolicyConfig is the external configuration a PreferencePolicy is built
// from. It is validated once per run; the resulting policy is read-only.
type PolicyConfig struct {
	ContentTypes DimensionConfig `json:"content_types" yaml:"content_types" mapstructure:"content_types"`
	Formats      DimensionConfig `json:"formats" yaml:"formats" mapstructure:"formats"`
	AccessTypes  DimensionConfig `json:"access_types" yaml:"access_types" mapstructure:"access_types"`
	Languages    DimensionConfig `json:"languages" yaml:"languages" mapstructure:"languages"`

	// Priorities maps format to its ranking weight. Higher sorts first;
	// formats absent from the table sort last.
	Priorities map[string]int `json:"priorities" yaml:"priorities" mapstructure:"priorities"`
}

// DownloadConfig holds settings for the retrieval stage.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// OutputDir is the directory downloads are written to. It also holds
	// the metadata/ records and the index/ history database.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// MinBytes is the smallest body the retriever accepts as a real
	// file; shorter responses are treated as mirror error pages.
	MinBytes int64 `json:"min_bytes" yaml:"min_bytes" mapstructure:"min_bytes"`

	// FallbackCandidates is how many further ranked candidates to try
	// after the chosen candidate's mirrors are exhausted. 0 terminates
	// the run instead; fallback is never silent.
	FallbackCandidates int `json:"fallback_candidates" yaml:"fallback_candidates" mapstructure:"fallback_candidates"`
}

// Config groups all stage configurations.
type Config struct {
	Search   SearchConfig   `json:"search" yaml:"search" mapstructure:"search"`
	Policy   PolicyConfig   `json:"policy" yaml:"policy" mapstructure:"policy"`
	Download DownloadConfig `json:"download" yaml:"download" mapstructure:"download"`
}
