package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"funstart/internal/branch"
)

var branchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "List the supported branches and their JIT capabilities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderBranches(cmd.OutOrStdout(), branch.All())
	},
}

func renderBranches(out io.Writer, infos []branch.Info) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BRANCH\tTREE\tKNOWN ISSUES\tREPO\tCOMPAREJIT\tDEBUGJIT\tION")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			info.ID, info.Tree, info.KnownIssues,
			yesNo(info.RepoFlag), yesNo(info.CompareJIT), yesNo(info.DebugJIT), yesNo(info.Ion))
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}
