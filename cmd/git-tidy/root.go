package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidy-vcs/git-tidy/internal"
)

type tidyFactory func() (*internal.Tidy, error)

func NewRootCmd(version string, tidy tidyFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "git-tidy",
		Short:         "Tidy git commit messages",
		Long:          `Structured, schema-validated commit messages with linting, templated changelogs, and squashing.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "git-tidy %s\n", version)
		},
	}

	rootCmd.AddCommand(
		NewCommitCmd(tidy),
		NewLintCmd(tidy),
		NewLogCmd(tidy),
		NewSquashCmd(tidy),
		NewTemplateCmd(tidy),
	)

	return rootCmd
}
