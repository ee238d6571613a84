package main

import (
	"github.com/spf13/cobra"
	"github.com/tidy-vcs/git-tidy/internal"
)

func NewSquashCmd(tidy tidyFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "squash <ref>",
		Short: "Squash commits into a single tidy commit",
		Long: `Squash every commit after the common ancestor of ref into one
structured commit.

If ":github/pr" is provided as the ref, the base branch of the pull
request is used (e.g. "origin/develop").`,
		Args: cobra.ExactArgs(1),
		RunE: makeSquashRunner(tidy),
	}

	cmd.Flags().Bool("no-verify", false, "Disable running hooks")
	cmd.Flags().Bool("allow-empty", false, "Allow an empty commit")
	return cmd
}

func makeSquashRunner(tidy tidyFactory) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		noVerify, _ := cmd.Flags().GetBool("no-verify")
		allowEmpty, _ := cmd.Flags().GetBool("allow-empty")

		t, err := tidy()
		if err != nil {
			return err
		}

		return t.Squash(cmd.Context(), args[0], internal.CommitTidyOptions{
			NoVerify:   noVerify,
			AllowEmpty: allowEmpty,
		})
	}
}
