package main

import (
	"github.com/spf13/cobra"
	"github.com/tidy-vcs/git-tidy/internal"
)

func NewCommitCmd(tidy tidyFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Perform a tidy commit",
		Long:  `Prompt for the schema's commit fields and create a structured commit.`,
		Args:  cobra.NoArgs,
		RunE:  makeCommitRunner(tidy),
	}

	cmd.Flags().Bool("no-verify", false, "Disable running hooks")
	cmd.Flags().Bool("allow-empty", false, "Allow an empty commit")
	return cmd
}

func makeCommitRunner(tidy tidyFactory) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		noVerify, _ := cmd.Flags().GetBool("no-verify")
		allowEmpty, _ := cmd.Flags().GetBool("allow-empty")

		t, err := tidy()
		if err != nil {
			return err
		}

		return t.Commit(cmd.Context(), internal.CommitTidyOptions{
			NoVerify:   noVerify,
			AllowEmpty: allowEmpty,
		})
	}
}
