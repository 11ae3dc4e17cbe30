package main

import (
	"io"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/go-git/go-git/v5"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"deployer/internal/repoconfig"
)

var showRoot string

var showCmd = &cobra.Command{
	Use:   "show [branch]",
	Short: "Show how a branch would be deployed",
	Long: `Resolve a single branch of the project's .deployer.conf and print its
method, task or playbook and inventory, notification address and the command
a deployment would run.

Without a branch argument the currently checked out git branch is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		branch := ""
		if len(args) == 1 {
			branch = args[0]
		}
		return runShow(cmd.OutOrStdout(), showRoot, branch)
	},
}

func init() {
	showCmd.Flags().StringVar(&showRoot, "root", ".", "Project root containing .deployer.conf")
}

func runShow(w io.Writer, root, branch string) error {
	if branch == "" {
		current, err := currentBranch(root)
		if err != nil {
			return err
		}
		log.Debug().Str("branch", current).Msg("using current git branch")
		branch = current
	}

	cfg, err := repoconfig.Load(root)
	if err != nil {
		return classify(err)
	}

	b, ok := cfg.LookupBranch(branch)
	if !ok {
		return unknownBranchError(branch)
	}
	return describeBranch(w, cfg, branch, b)
}

// currentBranch returns the branch checked out in the repository containing
// root.
func currentBranch(root string) (string, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("not a git repository, pass the branch explicitly").
			WithCause(err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("could not read HEAD").
			WithCause(err)
	}
	if !head.Name().IsBranch() {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("HEAD is detached, pass the branch explicitly")
	}
	return head.Name().Short(), nil
}
