package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidy-vcs/git-tidy/internal"
)

func NewLogCmd(tidy tidyFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log [range]",
		Short: "Render templated commit logs",
		Long: `Run tidy log output against a range of commits.

If ":github/pr" is provided as the range, the base branch of the pull
request is used as the revision range. If ":github/pr" is used as the
output target, the log is posted as a comment on the pull request.`,
		Args: cobra.ArbitraryArgs,
		RunE: makeLogRunner(tidy),
	}

	cmd.Flags().String("style", internal.DefaultStyle, "Template style to render with")
	cmd.Flags().String("tag-match", "", "A glob(7) pattern for matching tags when associating a tag with a commit")
	cmd.Flags().String("before", "", "Only include commits before a date")
	cmd.Flags().String("after", "", "Only include commits after a date")
	cmd.Flags().Bool("reverse", false, "Reverse ordering of results")
	cmd.Flags().StringP("output", "o", "", "Output file name of the log")
	return cmd
}

func makeLogRunner(tidy tidyFactory) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		style, _ := cmd.Flags().GetString("style")
		tagMatch, _ := cmd.Flags().GetString("tag-match")
		before, _ := cmd.Flags().GetString("before")
		after, _ := cmd.Flags().GetString("after")
		reverse, _ := cmd.Flags().GetBool("reverse")
		output, _ := cmd.Flags().GetString("output")

		t, err := tidy()
		if err != nil {
			return err
		}

		rendered, err := t.Log(cmd.Context(), internal.LogOptionsFull{
			Range:    strings.Join(args, " "),
			Style:    style,
			TagMatch: tagMatch,
			Before:   before,
			After:    after,
			Reverse:  reverse,
			Output:   output,
		})
		if err != nil {
			return err
		}

		return t.WriteOutput(cmd.Context(), rendered, output, cmd.OutOrStdout())
	}
}
