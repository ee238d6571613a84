package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Tidy bundles the capabilities the operations need: the git client, the
// directory holding schema and templates, the prompt collaborator, and a
// lazy pull request resolver (only constructed when a :github/pr sentinel
// is actually used).
type Tidy struct {
	git     GitClient
	tidyDir string
	prompt  Prompter
	prsFor  func() (PullRequestResolver, error)
}

func NewTidy(
	git GitClient,
	tidyDir string,
	prompt Prompter,
	prsFor func() (PullRequestResolver, error),
) *Tidy {
	return &Tidy{
		git:     git,
		tidyDir: tidyDir,
		prompt:  prompt,
		prsFor:  prsFor,
	}
}

// Range builds the commit collection for the options, validated against the
// full schema.
func (t *Tidy) Range(ctx context.Context, opts RangeOptions) (Commits, error) {
	schema, err := LoadCommitSchema(t.tidyDir, true)
	if err != nil {
		return nil, err
	}
	return NewCommitRange(ctx, t.git, t.prsFor, schema, opts)
}

// Lint validates a commit range. It passes when no commit is invalid, or,
// with anyValid, when at least one commit is valid.
func (t *Tidy) Lint(ctx context.Context, rng string, anyValid bool) (bool, Commits, error) {
	commits, err := t.Range(ctx, RangeOptions{Range: rng})
	if err != nil {
		return false, nil, err
	}

	if anyValid {
		valid, err := commits.Filter("valid", true)
		if err != nil {
			return false, nil, err
		}
		return len(valid) > 0, commits, nil
	}

	invalid, err := commits.Filter("valid", false)
	if err != nil {
		return false, nil, err
	}
	return len(invalid) == 0, commits, nil
}

// LogOptionsFull parameterize the log operation.
type LogOptionsFull struct {
	Range    string
	Style    string
	TagMatch string
	Before   string
	After    string
	Reverse  bool
	Output   string
}

// Log renders a commit range with the configured template and returns the
// rendered text. Output dispatch is up to the caller (see WriteOutput).
func (t *Tidy) Log(ctx context.Context, opts LogOptionsFull) (string, error) {
	commits, err := t.Range(ctx, RangeOptions{
		Range:    opts.Range,
		TagMatch: opts.TagMatch,
		Before:   opts.Before,
		After:    opts.After,
		Reverse:  opts.Reverse,
	})
	if err != nil {
		return "", err
	}

	style := opts.Style
	if style == "" {
		style = DefaultStyle
	}

	return RenderLog(t.tidyDir, style, LogContext{
		Commits: commits,
		Range:   opts.Range,
		Output:  opts.Output,
	})
}

// WriteOutput sends a rendered value to its target: a file path, the
// :github/pr sentinel (posted as a PR comment), or the fallback writer.
func (t *Tidy) WriteOutput(ctx context.Context, value, path string, fallback io.Writer) error {
	switch {
	case path == GitHubPR:
		resolver, err := t.prsFor()
		if err != nil {
			return err
		}
		return resolver.Comment(ctx, value)
	case path != "":
		return os.WriteFile(path, []byte(value), 0644)
	default:
		_, err := io.WriteString(fallback, value)
		return err
	}
}

// CommitTidyOptions parameterize the commit and squash write paths.
type CommitTidyOptions struct {
	NoVerify   bool
	AllowEmpty bool
	Defaults   map[string]any
}

// Commit performs a structured commit: pre-commit hooks run first so the
// user is not prompted for a commit that would be rejected anyway, an empty
// stage short-circuits to a plain failing git commit, and the prompted
// entry is rendered into a trailer-formatted message.
func (t *Tidy) Commit(ctx context.Context, opts CommitTidyOptions) error {
	if !opts.NoVerify {
		if err := t.runPreCommitHook(ctx); err != nil {
			return err
		}
	}

	staged, err := t.git.HasStagedChanges(ctx)
	if err != nil {
		return err
	}
	if !staged && !opts.AllowEmpty {
		return t.git.Commit(ctx, CommitOptions{})
	}

	schema, err := LoadCommitSchema(t.tidyDir, false)
	if err != nil {
		return err
	}

	entry, err := t.prompt.Prompt(schema, opts.Defaults)
	if err != nil {
		return err
	}

	msg := FormatCommitMessage(schema, entry)

	msgFile, err := os.CreateTemp("", "git-tidy-commit-*.txt")
	if err != nil {
		return err
	}
	defer os.Remove(msgFile.Name())

	if _, err := msgFile.WriteString(msg); err != nil {
		return err
	}
	msgFile.Close()

	return t.git.Commit(ctx, CommitOptions{
		MsgFile:    msgFile.Name(),
		AllowEmpty: opts.AllowEmpty,
	})
}

// FormatCommitMessage renders a prompted entry into a commit message:
// summary, blank line, description, blank line, then the remaining fields
// as "Title-Case: value" trailers in schema order.
func FormatCommitMessage(schema *Schema, entry map[string]any) string {
	var b strings.Builder

	if summary, ok := entry["summary"]; ok {
		b.WriteString(strings.TrimSpace(valueString(summary)) + "\n\n")
	}
	if description, ok := entry["description"]; ok {
		b.WriteString(strings.TrimSpace(valueString(description)) + "\n\n")
	}

	for _, f := range schema.Fields() {
		if f.Label == "summary" || f.Label == "description" {
			continue
		}
		value, ok := entry[f.Label]
		if !ok {
			continue
		}
		key := titleCaseLabel(f.Label, "-")
		b.WriteString(fmt.Sprintf("%s: %s\n", key, strings.TrimSpace(valueString(value))))
	}

	return strings.TrimSpace(b.String())
}

// Squash squashes every commit after the common ancestor of ref into one
// structured commit. The last valid commit in the range seeds the prompt
// defaults. Any failure after the soft reset rolls back to ORIG_HEAD.
func (t *Tidy) Squash(ctx context.Context, ref string, opts CommitTidyOptions) error {
	if ref == GitHubPR {
		resolver, err := t.prsFor()
		if err != nil {
			return err
		}
		ref, err = resolver.BaseRef(ctx)
		if err != nil {
			return err
		}
	}

	commits, err := t.Range(ctx, RangeOptions{Range: ref + ".."})
	if err != nil {
		return err
	}
	if len(commits) == 0 {
		return ErrNoSquashableCommits
	}

	valid, err := commits.Filter("valid", true)
	if err != nil {
		return err
	}
	if len(valid) > 0 {
		opts.Defaults = valid[len(valid)-1].Entry().Values()
	}

	ancestor, err := t.git.MergeBase(ctx, ref)
	if err != nil {
		return fmt.Errorf("merge-base: %w", err)
	}
	if err := t.git.ResetSoft(ctx, ancestor); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	if err := t.Commit(ctx, opts); err != nil {
		if resetErr := t.git.Reset(ctx, "ORIG_HEAD"); resetErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, resetErr)
		}
		return err
	}

	return nil
}

// CommitTemplate renders the commit message template for the write-path
// schema, suitable for installing as a git commit.template file.
func (t *Tidy) CommitTemplate() (string, error) {
	schema, err := LoadCommitSchema(t.tidyDir, false)
	if err != nil {
		return "", err
	}
	return RenderCommitTemplate(t.tidyDir, schema)
}

// runPreCommitHook executes .git/hooks/pre-commit when it exists, so a
// failing hook aborts before the user is prompted.
func (t *Tidy) runPreCommitHook(ctx context.Context) error {
	hooksPath, err := t.git.HooksPath(ctx)
	if err != nil {
		return err
	}

	hook := filepath.Join(hooksPath, "pre-commit")
	if _, err := os.Stat(hook); os.IsNotExist(err) {
		return nil
	}

	cmd := exec.CommandContext(ctx, hook)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pre-commit hook: %w", err)
	}
	return nil
}
