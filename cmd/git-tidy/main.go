package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/tidy-vcs/git-tidy/internal"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx := context.Background()

	rootCmd := NewRootCmd(version, newTidy)
	if err := fang.Execute(ctx, rootCmd); err != nil {
		os.Exit(1)
	}
}

// newTidy wires the real collaborators. It is lazy so that help and version
// work outside a git repository.
func newTidy() (*internal.Tidy, error) {
	repo, err := internal.OpenRepo(".")
	if err != nil {
		return nil, err
	}

	prsFor := func() (internal.PullRequestResolver, error) {
		return internal.NewGitHub(repo)
	}

	return internal.NewTidy(
		internal.NewExecGit(repo.Root()),
		repo.TidyDir(),
		internal.NewTerminalPrompter(),
		prsFor,
	), nil
}
