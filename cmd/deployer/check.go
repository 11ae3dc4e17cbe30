package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"deployer/internal/deployerr"
	"deployer/internal/repoconfig"
)

var checkCmd = &cobra.Command{
	Use:   "check [project-root...]",
	Short: "Validate deployer configurations",
	Long: `Load the .deployer.conf of each project root (the current directory when
none is given) and print the resolved defaults and branches.

Roots are checked concurrently and independently. The command fails with the
error of the first failing root in argument order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"."}
		}
		return runCheck(cmd.OutOrStdout(), args)
	},
}

// runCheck describes every root that loads and returns the error of the
// first failing root in argument order. That error is left for the caller to
// report; later failures are logged here so each is reported exactly once.
func runCheck(w io.Writer, roots []string) error {
	configs := make([]*repoconfig.RepoConfig, len(roots))
	errs := make([]error, len(roots))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, root := range roots {
		g.Go(func() error {
			cfg, err := repoconfig.Load(root)
			if err != nil {
				errs[i] = err
				return nil
			}
			log.Debug().Str("project_root", root).Int("branches", len(cfg.BranchNames())).Msg("configuration loaded")
			configs[i] = cfg
			return nil
		})
	}
	_ = g.Wait()

	for i, cfg := range configs {
		if cfg == nil {
			continue
		}
		if i > 0 {
			fmt.Fprintln(w)
		}
		if werr := describeConfig(w, cfg); werr != nil {
			return werr
		}
	}

	var first error
	for i, err := range errs {
		if err == nil {
			continue
		}
		if first == nil {
			first = err
			continue
		}
		log.Error().
			Str("project_root", roots[i]).
			Str("kind", deployerr.KindOf(err).String()).
			Str("subject", deployerr.SubjectOf(err)).
			Err(err).
			Msg("invalid deployer configuration")
	}
	if first != nil {
		return classify(first)
	}
	return nil
}
