// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/libgrab/internal/extract"
	"github.com/pdiddy/libgrab/internal/fetch"
	"github.com/pdiddy/libgrab/internal/pick"
	"github.com/pdiddy/libgrab/internal/policy"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "List candidates that pass the preference policy",
	Long: `Search queries the book index, applies the configured preference
policy, and prints the surviving candidates in ranked order without
downloading anything.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Bool("json", false, "emit candidates as JSON")
	addPolicyFlags(searchCmd)
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	authCtx, err := resolveAuth(cmd)
	if err != nil {
		return err
	}
	pol, err := policy.New(cfg.Policy)
	if err != nil {
		return fmt.Errorf("invalid preference policy: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := fetch.New(cfg.Search.HTTPConfig, authCtx)
	searchURL := fetch.SearchURL(cfg.Search.BaseURL, args[0], pol)
	page, err := client.Page(ctx, searchURL)
	if err != nil {
		return fmt.Errorf("searching index: %w", err)
	}

	candidates, err := extract.Results(page, searchURL)
	if err != nil {
		return err
	}
	ranked := policy.Rank(policy.Filter(candidates, pol), pol)

	w := cmd.OutOrStdout()
	if len(ranked) == 0 {
		fmt.Fprintln(w, "no results matched the preference policy")
		return nil
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ranked)
	}

	pick.FormatTable(ranked, w)
	return nil
}
