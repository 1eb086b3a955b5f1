// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/libgrab/internal/pick"
	"github.com/pdiddy/libgrab/pkg/types"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Download books interactively, one query at a time",
	Long: `Shell reads queries from standard input in a loop. Each query runs a
full search-pick-download cycle with an interactive candidate menu; a
failed query reports its outcome and the loop continues. Type "exit"
or "quit" (or press Ctrl-D) to leave.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	shellCmd.Flags().Int("fallback-candidates", 0, "try up to N further ranked candidates if every mirror fails")
	addPolicyFlags(shellCmd)
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	authCtx, err := resolveAuth(cmd)
	if err != nil {
		return err
	}

	// A single buffered reader serves both the query loop and the
	// candidate menu, so neither swallows the other's input.
	in := bufio.NewReader(cmd.InOrStdin())
	w := cmd.OutOrStdout()
	selector := &pick.Interactive{In: in, Out: w}

	p, closeHistory, err := buildPipeline(cfg, authCtx, selector, w)
	if err != nil {
		return err
	}
	defer closeHistory()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		fmt.Fprint(w, "query> ")
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(w)
			return nil
		}
		query := strings.TrimSpace(line)
		switch query {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		out := p.Run(ctx, query)
		if out.Kind == types.OutcomeCancelled && ctx.Err() != nil {
			fmt.Fprintln(w, "cancelled")
			return nil
		}
		if err := reportOutcome(out, w); err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
		}
	}
}
