package internal

import (
	"context"
	"fmt"
)

// GitHubPR is the sentinel range value that resolves against the pull
// request opened from the current branch instead of a literal revision
// expression. It doubles as the sentinel output target for posting a
// rendered log as a PR comment.
const GitHubPR = ":github/pr"

// PullRequestResolver is the remote-integration capability: it maps the
// current branch to its open pull request.
type PullRequestResolver interface {
	// BaseRef returns the PR base branch as a revision prefix, e.g.
	// "origin/develop".
	BaseRef(ctx context.Context) (string, error)
	// Comment upserts a comment on the PR.
	Comment(ctx context.Context, body string) error
}

// RangeOptions parameterize commit range construction.
type RangeOptions struct {
	Range    string
	TagMatch string
	Before   string
	After    string
	Reverse  bool
}

// NewCommitRange builds the ordered collection of commit records for a
// revision range. It verifies the git version, resolves the :github/pr
// sentinel through the pull request resolver, fetches remote refs once,
// issues one log query, and parses every entry in order. A single
// unparsable commit degrades to a minimal record; it never aborts the
// range. Remote-resolution and environment errors are fatal and propagate
// unmodified.
func NewCommitRange(
	ctx context.Context,
	git GitClient,
	prs func() (PullRequestResolver, error),
	schema *Schema,
	opts RangeOptions,
) (Commits, error) {
	if err := CheckGitVersion(ctx, git); err != nil {
		return nil, err
	}

	rng := opts.Range
	if rng == GitHubPR {
		resolver, err := prs()
		if err != nil {
			return nil, err
		}
		base, err := resolver.BaseRef(ctx)
		if err != nil {
			return nil, err
		}
		rng = base + ".."
	}

	if err := git.Fetch(ctx); err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	entries, err := git.Log(ctx, LogOptions{
		Range:   rng,
		Before:  opts.Before,
		After:   opts.After,
		Reverse: opts.Reverse,
	})
	if err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}

	commits := make(Commits, 0, len(entries))
	for _, entry := range entries {
		commit, err := NewCommit(entry, schema, git, opts.TagMatch)
		if err != nil {
			return nil, err
		}
		commits = append(commits, commit)
	}

	return commits, nil
}
