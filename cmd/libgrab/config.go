// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/libgrab/internal/auth"
	"github.com/pdiddy/libgrab/internal/fetch"
	"github.com/pdiddy/libgrab/internal/history"
	"github.com/pdiddy/libgrab/internal/pick"
	"github.com/pdiddy/libgrab/internal/pipeline"
	"github.com/pdiddy/libgrab/internal/policy"
	"github.com/pdiddy/libgrab/internal/retrieve"
	"github.com/pdiddy/libgrab/pkg/types"
)

const (
	defaultBaseURL = "https://annas-archive.org"
	defaultTimeout = 60 * time.Second

	// The index varies responses on User-Agent; a browser string gets
	// the same markup the extractor was written against.
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36"

	secretsDir = ".secrets/"
)

// loadConfig merges defaults, the viper config file, and command flags
// into a validated Config. Flags win over file values.
func loadConfig(cmd *cobra.Command) (types.Config, error) {
	cfg := types.Config{
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{Timeout: defaultTimeout, UserAgent: defaultUserAgent},
			BaseURL:    defaultBaseURL,
		},
		Policy: policy.DefaultConfig(),
		Download: types.DownloadConfig{
			HTTPConfig: types.HTTPConfig{Timeout: defaultTimeout, UserAgent: defaultUserAgent},
			OutputDir:  "books",
		},
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}

	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.Search.Timeout = timeout
		cfg.Download.Timeout = timeout
	}
	if cmd.Flags().Changed("output") {
		out, _ := cmd.Flags().GetString("output")
		cfg.Download.OutputDir = out
	}
	if cmd.Flags().Changed("format") {
		formats, _ := cmd.Flags().GetStringSlice("format")
		cfg.Policy.Formats.Allow = formats
		cfg.Policy.Formats.Ignore = nil
	}
	if cmd.Flags().Changed("language") {
		langs, _ := cmd.Flags().GetStringSlice("language")
		cfg.Policy.Languages.Allow = langs
		cfg.Policy.Languages.Ignore = nil
	}
	if cmd.Flags().Changed("fallback-candidates") {
		n, _ := cmd.Flags().GetInt("fallback-candidates")
		cfg.Download.FallbackCandidates = n
	}

	return cfg, nil
}

// addPolicyFlags registers the per-command preference overrides.
func addPolicyFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("format", nil, "only accept these formats (e.g. epub,pdf)")
	cmd.Flags().StringSlice("language", nil, "only accept these language codes (e.g. en,de)")
}

// resolveAuth builds the auth context from the credential flags and the
// secrets directory.
func resolveAuth(cmd *cobra.Command) (auth.Context, error) {
	accountID, _ := cmd.Flags().GetString("account-id")
	headersFile, _ := cmd.Flags().GetString("auth")
	curlFile, _ := cmd.Flags().GetString("curl")

	authCtx, err := auth.Resolve(accountID, headersFile, curlFile, secretsDir)
	if err != nil {
		return auth.Context{}, err
	}
	if authCtx.IsAnonymous() {
		fmt.Fprintln(os.Stderr, "warning: no credentials configured; partner mirrors may refuse downloads")
	}
	return authCtx, nil
}

// buildPipeline assembles a ready pipeline from config plus a selector.
// The returned closer releases the history store.
func buildPipeline(cfg types.Config, authCtx auth.Context, selector pick.Selector, w io.Writer) (*pipeline.Pipeline, func(), error) {
	pol, err := policy.New(cfg.Policy)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid preference policy: %w", err)
	}

	// Search and download carry separate HTTP settings: index pages are
	// quick, mirror attempts stream whole files under their own budget.
	searchClient := fetch.New(cfg.Search.HTTPConfig, authCtx)
	downloadClient := fetch.New(cfg.Download.HTTPConfig, authCtx)
	retriever := retrieve.New(downloadClient, cfg.Download, w)

	closer := func() {}
	p := &pipeline.Pipeline{
		Fetcher:   searchClient,
		Retriever: retriever,
		Selector:  selector,
		Policy:    pol,
		BaseURL:   cfg.Search.BaseURL,
		OutputDir: cfg.Download.OutputDir,
		Fallback:  cfg.Download.FallbackCandidates,
		W:         w,
	}

	store, err := history.Open(cfg.Download.OutputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: download history unavailable: %v\n", err)
	} else {
		p.History = store
		closer = func() { store.Close() }
	}

	return p, closer, nil
}

// reportOutcome prints the outcome and converts failures to an error for
// the process exit code. Cancellation exits cleanly.
func reportOutcome(out types.Outcome, w io.Writer) error {
	switch out.Kind {
	case types.OutcomeSuccess:
		fmt.Fprintf(w, "saved: %s\n", out.Download.Path)
		return nil
	case types.OutcomeCancelled:
		fmt.Fprintln(w, "cancelled")
		return nil
	case types.OutcomeNoCandidate:
		return fmt.Errorf("no results matched the preference policy")
	default:
		return fmt.Errorf("%s: %w", out.Kind, out.Err)
	}
}
