package main

import (
	"github.com/spf13/cobra"
)

func NewTemplateCmd(tidy tidyFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Show the tidy commit template",
		Long: `Render the commit message template for the configured schema.

The template can be stored to a file and configured as the template for
every standard git commit:

  git tidy template -o .commit.tpl
  git config --local commit.template .commit.tpl`,
		Args: cobra.NoArgs,
		RunE: makeTemplateRunner(tidy),
	}

	cmd.Flags().StringP("output", "o", "", "Output file name of the commit template")
	return cmd
}

func makeTemplateRunner(tidy tidyFactory) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		t, err := tidy()
		if err != nil {
			return err
		}

		rendered, err := t.CommitTemplate()
		if err != nil {
			return err
		}

		return t.WriteOutput(cmd.Context(), rendered, output, cmd.OutOrStdout())
	}
}
