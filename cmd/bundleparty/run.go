package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bundleparty/bundleparty/pkg/bundleparty"
	"github.com/bundleparty/bundleparty/pkg/bundleparty/pattern"
)

// errAnalysesFailed is returned after the failures were already reported.
var errAnalysesFailed = errors.New("one or more analyses failed")

func newRunCmd(a *app) *cobra.Command {
	var terms string

	cmd := &cobra.Command{
		Use:   "run [keys...|all]",
		Short: "Run analyses without the interactive menu",
		Long: `Run one or more catalog analyses, or a custom search, and exit.

Examples:
  # Run analyses 1 and 4
  bundleparty run 1 4 --root ./bundle

  # Run every analysis in the catalog
  bundleparty run all

  # Custom search for comma-separated terms
  bundleparty run --terms "timeout,permission denied"

The command exits with status 1 if any analysis could not be completed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && strings.TrimSpace(terms) == "" {
				return fmt.Errorf("nothing to run: pass analysis keys, \"all\", or --terms")
			}

			s := a.settings()
			cat, err := s.catalog()
			if err != nil {
				return err
			}
			sets, err := selectSets(cat, args, terms)
			if err != nil {
				return err
			}

			an, err := s.analyzer(s.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			outcomes := an.RunAll(ctx, sets)
			for _, o := range outcomes {
				printOutcome(cmd.OutOrStdout(), cmd.ErrOrStderr(), o)
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := bundleparty.JoinErrors(outcomes); err != nil {
				return errAnalysesFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&terms, "terms", "t", "",
		"custom search terms (comma-separated), run after any listed keys")
	cmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
		cat, err := a.settings().catalog()
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		comps := []cobra.Completion{cobra.CompletionWithDesc("all", "every analysis in the catalog")}
		for _, s := range cat.Sets() {
			comps = append(comps, cobra.CompletionWithDesc(s.Key, s.Name))
		}
		return comps, cobra.ShellCompDirectiveNoFileComp
	}
	return cmd
}

// selectSets resolves keys (or "all") and custom terms into the sets to run.
// Each set runs at most once, in the order first named.
func selectSets(cat *pattern.Catalog, keys []string, terms string) ([]*pattern.Set, error) {
	var sets []*pattern.Set
	seen := make(map[*pattern.Set]bool)
	add := func(s *pattern.Set) {
		if !seen[s] {
			seen[s] = true
			sets = append(sets, s)
		}
	}

	for _, k := range keys {
		if strings.EqualFold(strings.TrimSpace(k), "all") {
			for _, s := range cat.Sets() {
				add(s)
			}
			continue
		}
		s, ok := cat.Lookup(k)
		if !ok {
			return nil, fmt.Errorf("unknown analysis key %q (see \"bundleparty list\")", k)
		}
		add(s)
	}

	if strings.TrimSpace(terms) != "" {
		s, err := pattern.Custom(terms)
		if err != nil {
			return nil, fmt.Errorf("--terms: %w", err)
		}
		add(s)
	}
	return sets, nil
}

// printOutcome writes a one-line summary to out and problems to errOut.
func printOutcome(out, errOut io.Writer, o bundleparty.Outcome) {
	if o.Result != nil {
		for _, se := range o.Result.ScanErrors {
			fmt.Fprintf(errOut, "warning: %s: %v\n", o.Set.Name, se)
		}
	}
	if o.Err != nil {
		fmt.Fprintf(errOut, "error: %s: %v\n", o.Set.Name, o.Err)
		return
	}
	r := o.Result
	fmt.Fprintf(out, "%s: %d matches in %d files -> %s (xxh64:%s)\n",
		o.Set.Name, len(r.Records), r.FilesScanned, r.OutputPath, r.Digest)
}
