package internal

import (
	"errors"
	"strings"
)

var (
	ErrSchema               = errors.New("invalid schema")
	ErrUnknownField         = errors.New("unknown field")
	ErrGitVersion           = errors.New("unsupported git version")
	ErrNoSquashableCommits  = errors.New("no commits to squash")
	ErrNoPullRequest        = errors.New("no pull request found")
	ErrMultiplePullRequests = errors.New("multiple pull requests found")
	ErrGitHubConfig         = errors.New("github configuration error")
	ErrGitHubAPI            = errors.New("github api error")
	ErrTemplateNotFound     = errors.New("template not found")
)

// ValidationError is a single non-fatal problem found while validating a
// commit against the schema. Label is empty for problems that are not tied
// to one field, such as a commit that could not be decoded at all.
type ValidationError struct {
	Label   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Label == "" {
		return e.Message
	}
	return e.Label + ": " + e.Message
}

type ValidationErrors []*ValidationError

func (es ValidationErrors) String() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, ", ")
}
