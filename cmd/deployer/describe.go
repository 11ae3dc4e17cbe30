package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"deployer/internal/repoconfig"
	"deployer/pkg/cmdutil"
)

// describeConfig writes the resolved defaults and every branch of cfg.
func describeConfig(w io.Writer, cfg *repoconfig.RepoConfig) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "project root:\t%s\n", cfg.ProjectRoot())
	fmt.Fprintf(tw, "default method:\t%s\n", cfg.DefaultMethod())
	if t := cfg.DefaultTask(); t != nil {
		fmt.Fprintf(tw, "default task:\t%s\n", t)
	}
	if p, ok := cfg.DefaultPlaybook(); ok {
		fmt.Fprintf(tw, "default playbook:\t%s\n", p)
	}
	if url, ok := cfg.DefaultNotifyURL(); ok {
		fmt.Fprintf(tw, "default notify url:\t%s\n", url)
	}
	for _, name := range cfg.BranchNames() {
		b, _ := cfg.LookupBranch(name)
		fmt.Fprintf(tw, "branch %s:\t%s\n", name, commandOf(b))
	}
	return tw.Flush()
}

// describeBranch writes the full resolution of one branch.
func describeBranch(w io.Writer, cfg *repoconfig.RepoConfig, name string, b *repoconfig.BranchConfig) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "project root:\t%s\n", cfg.ProjectRoot())
	fmt.Fprintf(tw, "branch:\t%s\n", name)
	fmt.Fprintf(tw, "method:\t%s\n", b.Method())
	if t := b.MakeTask(); t != nil {
		fmt.Fprintf(tw, "task:\t%s\n", t)
		fmt.Fprintf(tw, "makefile:\t%s\n", t.Makefile())
	}
	if t := b.AnsibleTask(); t != nil {
		fmt.Fprintf(tw, "playbook:\t%s\n", t.Playbook)
		fmt.Fprintf(tw, "inventory:\t%s\n", t.Inventory)
	}
	if url, ok := b.NotifyURL(); ok {
		fmt.Fprintf(tw, "notify url:\t%s\n", url)
	}
	fmt.Fprintf(tw, "command:\t%s\n", commandOf(b))
	return tw.Flush()
}

func commandOf(b *repoconfig.BranchConfig) string {
	if t := b.MakeTask(); t != nil {
		return t.CommandString()
	}
	t := b.AnsibleTask()
	return "(cd " + cmdutil.FormatCommand([]string{t.Dir()}) + " && " + t.CommandString() + ")"
}
