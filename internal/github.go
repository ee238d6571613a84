package internal

import (
	"context"
	"fmt"
	"os"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

const (
	// GitHubTokenEnvVar must hold an API token for any GitHub access.
	GitHubTokenEnvVar = "GITHUB_API_TOKEN"
	// GitHubUsernameEnvVar identifies which existing PR comment belongs to
	// the tool, so that posting a log updates it instead of stacking new
	// comments.
	GitHubUsernameEnvVar = "GITHUB_USERNAME"
)

// GitHub resolves pull requests for the repository's origin remote and
// implements PullRequestResolver.
type GitHub struct {
	client *github.Client
	repo   *Repo
}

// NewGitHub builds a GitHub client for the repository, authenticated with
// the token from the environment.
func NewGitHub(repo *Repo) (*GitHub, error) {
	token := os.Getenv(GitHubTokenEnvVar)
	if token == "" {
		return nil, fmt.Errorf("%w: must set %q for GitHub access", ErrGitHubConfig, GitHubTokenEnvVar)
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := github.NewClient(oauth2.NewClient(context.Background(), src))

	return &GitHub{client: client, repo: repo}, nil
}

// NewGitHubWithClient is used by tests to point at a stub API server.
func NewGitHubWithClient(client *github.Client, repo *Repo) *GitHub {
	return &GitHub{client: client, repo: repo}
}

// pullRequest finds the single open pull request for the current branch.
func (g *GitHub) pullRequest(ctx context.Context) (*github.PullRequest, error) {
	owner, name, err := g.repo.OriginOwnerRepo()
	if err != nil {
		return nil, err
	}
	branch, err := g.repo.CurrentBranch()
	if err != nil {
		return nil, err
	}

	prs, _, err := g.client.PullRequests.List(ctx, owner, name, &github.PullRequestListOptions{
		Head: owner + ":" + branch,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGitHubAPI, err)
	}

	if len(prs) == 0 {
		return nil, fmt.Errorf("%w: no pull requests found for branch %q", ErrNoPullRequest, branch)
	}
	if len(prs) > 1 {
		return nil, fmt.Errorf("%w: multiple pull requests found for branch %q", ErrMultiplePullRequests, branch)
	}

	return prs[0], nil
}

// BaseRef returns the remote revision of the PR base branch, e.g.
// "origin/develop".
func (g *GitHub) BaseRef(ctx context.Context) (string, error) {
	pr, err := g.pullRequest(ctx)
	if err != nil {
		return "", err
	}
	return "origin/" + pr.GetBase().GetRef(), nil
}

// Comment posts body on the current branch's pull request. An existing
// comment by the configured user is edited in place so repeated log runs do
// not pile up comments.
func (g *GitHub) Comment(ctx context.Context, body string) error {
	username := os.Getenv(GitHubUsernameEnvVar)
	if username == "" {
		return fmt.Errorf("%w: must set %q to post comments as a specific user", ErrGitHubConfig, GitHubUsernameEnvVar)
	}

	pr, err := g.pullRequest(ctx)
	if err != nil {
		return err
	}
	owner, name, err := g.repo.OriginOwnerRepo()
	if err != nil {
		return err
	}

	comments, _, err := g.client.Issues.ListComments(ctx, owner, name, pr.GetNumber(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGitHubAPI, err)
	}

	var existing *github.IssueComment
	for _, comment := range comments {
		if comment.GetUser().GetLogin() == username {
			existing = comment
		}
	}

	newComment := &github.IssueComment{Body: github.String(body)}
	if existing != nil {
		_, _, err = g.client.Issues.EditComment(ctx, owner, name, existing.GetID(), newComment)
	} else {
		_, _, err = g.client.Issues.CreateComment(ctx, owner, name, pr.GetNumber(), newComment)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGitHubAPI, err)
	}

	return nil
}
