package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var errLintFailed = errors.New("lint failed")

func NewLintCmd(tidy tidyFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint [range]",
		Short: "Validate commit messages against the schema",
		Long: `Run tidy commit linting against a range of commits.

If ":github/pr" is provided as the range, the base branch of the pull
request is used as the revision range (e.g. "origin/develop..").`,
		Args: cobra.ArbitraryArgs,
		RunE: makeLintRunner(tidy),
	}

	cmd.Flags().Bool("any", false, "Pass if at least one commit is valid")
	return cmd
}

func makeLintRunner(tidy tidyFactory) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		anyValid, _ := cmd.Flags().GetBool("any")

		t, err := tidy()
		if err != nil {
			return err
		}

		passed, commits, err := t.Lint(cmd.Context(), strings.Join(args, " "), anyValid)
		if err != nil {
			return err
		}
		if passed {
			return nil
		}

		failures, err := commits.Filter("valid", false)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "%d out of %d commits have failed linting:\n", len(failures), len(commits))
		for _, failure := range failures {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", failure.SHA(), failure.ValidationErrors())
		}

		return errLintFailed
	}
}
