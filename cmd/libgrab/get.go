// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/libgrab/internal/pick"
)

var getCmd = &cobra.Command{
	Use:   "get <query>",
	Short: "Search the index and download the best match",
	Long: `Get searches the book index for the query, filters and ranks the
results under the configured preference policy, resolves the mirror
list for the chosen candidate, and downloads from the first mirror
that delivers a usable file.

By default the top-ranked candidate is taken automatically; pass
--interactive to choose from the ranked list instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().BoolP("interactive", "i", false, "choose the candidate from a menu")
	getCmd.Flags().Int("fallback-candidates", 0, "try up to N further ranked candidates if every mirror fails")
	addPolicyFlags(getCmd)
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	authCtx, err := resolveAuth(cmd)
	if err != nil {
		return err
	}

	var selector pick.Selector = pick.Auto{}
	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		selector = &pick.Interactive{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
	}

	p, closeHistory, err := buildPipeline(cfg, authCtx, selector, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeHistory()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return reportOutcome(p.Run(ctx, args[0]), cmd.OutOrStdout())
}
