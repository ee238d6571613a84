package internal

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// MinGitVersion is the oldest git that renders trailers the way the log
// format below requires.
const MinGitVersion = "2.22.0"

// logDelimiter separates entries in the formatted log output.
const logDelimiter = "\n<-------->"

// logFormat renders each commit as a YAML document. sha must always be the
// first key so that degraded records can still recover it. Trailers are
// rendered as a flow sequence of single-key maps; the "*{*" and "*}*"
// sentinels are rewritten into quoted YAML by cleanLogOutput before the
// output is handed to the parser.
const logFormat = "sha: %H%n" +
	"author_name: %an%n" +
	"author_email: %ae%n" +
	"author_date: %ad%n" +
	"committer_name: %cn%n" +
	"committer_email: %ce%n" +
	"committer_date: %cd%n" +
	"summary: |%n%w(0, 4, 4)%s%n%w(0, 0, 0)" +
	"description: |%n%w(0, 4, 4)%b%n%w(0, 0, 0)" +
	"trailers: [*{*%(trailers:separator=*%x7d*%x2c*%x7b*)*}*]" +
	"%n<-------->"

// LogOptions parameterize a log query.
type LogOptions struct {
	Range   string
	Before  string
	After   string
	Reverse bool
}

// CommitOptions parameterize a commit invocation. An empty MsgFile runs a
// bare "git commit --no-verify", which fails with git's own diagnostics when
// there is nothing to commit.
type CommitOptions struct {
	MsgFile    string
	AllowEmpty bool
}

// GitClient is the version-control capability consumed by the core. The
// default implementation shells out to the git binary; tests substitute
// fakes.
type GitClient interface {
	Version(ctx context.Context) (string, error)
	Fetch(ctx context.Context) error
	Log(ctx context.Context, opts LogOptions) ([]string, error)
	Describe(ctx context.Context, sha, match string) (string, error)
	AuthorDate(ctx context.Context, rev string) (string, error)
	HooksPath(ctx context.Context) (string, error)
	HasStagedChanges(ctx context.Context) (bool, error)
	Commit(ctx context.Context, opts CommitOptions) error
	MergeBase(ctx context.Context, ref string) (string, error)
	ResetSoft(ctx context.Context, rev string) error
	Reset(ctx context.Context, rev string) error
}

// ExecGit runs git commands in a working directory. An empty dir means the
// current directory.
type ExecGit struct {
	dir string
}

func NewExecGit(dir string) *ExecGit {
	return &ExecGit{dir: dir}
}

func (g *ExecGit) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("git %s: %w", args[0], err)
		}
		return "", fmt.Errorf("git %s: %s: %w", args[0], msg, err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

func (g *ExecGit) Version(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "--version")
	if err != nil {
		return "", err
	}
	fields := strings.Fields(out)
	return fields[len(fields)-1], nil
}

func (g *ExecGit) Fetch(ctx context.Context) error {
	_, err := g.run(ctx, "fetch", "-q")
	return err
}

func (g *ExecGit) Log(ctx context.Context, opts LogOptions) ([]string, error) {
	args := []string{"--no-pager", "log"}
	if opts.Range != "" {
		args = append(args, opts.Range)
	}
	args = append(args, "--no-merges")
	if opts.Before != "" {
		args = append(args, "--before="+opts.Before)
	}
	if opts.After != "" {
		args = append(args, "--after="+opts.After)
	}
	if opts.Reverse {
		args = append(args, "--reverse")
	}
	args = append(args, "--format="+logFormat)

	out, err := g.run(ctx, args...)
	if err != nil {
		return nil, err
	}

	return splitLogOutput(cleanLogOutput(out)), nil
}

func (g *ExecGit) Describe(ctx context.Context, sha, match string) (string, error) {
	args := []string{"describe", sha, "--contains"}
	if match != "" {
		args = append(args, "--match="+match)
	}

	// describe fails when no tag contains the commit; that is a null
	// result, not an error.
	out, err := g.run(ctx, args...)
	if err != nil {
		return "", nil
	}
	return out, nil
}

func (g *ExecGit) AuthorDate(ctx context.Context, rev string) (string, error) {
	return g.run(ctx, "log", "-1", "--format=%ad", rev)
}

func (g *ExecGit) HooksPath(ctx context.Context) (string, error) {
	return g.run(ctx, "rev-parse", "--git-path", "hooks")
}

func (g *ExecGit) HasStagedChanges(ctx context.Context) (bool, error) {
	out, err := g.run(ctx, "diff", "--cached")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

func (g *ExecGit) Commit(ctx context.Context, opts CommitOptions) error {
	args := []string{"commit", "--no-verify"}
	if opts.AllowEmpty {
		args = append(args, "--allow-empty")
	}
	if opts.MsgFile != "" {
		args = append(args, "-F", opts.MsgFile)
	}
	_, err := g.run(ctx, args...)
	return err
}

func (g *ExecGit) MergeBase(ctx context.Context, ref string) (string, error) {
	return g.run(ctx, "merge-base", ref, "HEAD")
}

func (g *ExecGit) ResetSoft(ctx context.Context, rev string) error {
	_, err := g.run(ctx, "reset", "--soft", rev)
	return err
}

func (g *ExecGit) Reset(ctx context.Context, rev string) error {
	_, err := g.run(ctx, "reset", rev)
	return err
}

// CheckGitVersion fails with ErrGitVersion when the installed git is older
// than MinGitVersion.
func CheckGitVersion(ctx context.Context, git GitClient) error {
	raw, err := git.Version(ctx)
	if err != nil {
		return fmt.Errorf("git version: %w", err)
	}

	current, err := goversion.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("parse git version %q: %w", raw, err)
	}

	minimum := goversion.Must(goversion.NewVersion(MinGitVersion))
	if current.LessThan(minimum) {
		return fmt.Errorf("%w: must have git version >= %s (version = %s)", ErrGitVersion, MinGitVersion, raw)
	}

	return nil
}

var (
	trailersLineRe  = regexp.MustCompile(`(?m)^trailers:.*$`)
	emptyTrailersRe = regexp.MustCompile(`\*\{\*\*\}\*`)
	trailerOpenRe   = regexp.MustCompile(`\*\{\*(\w+: )`)
	trailerCloseRe  = regexp.MustCompile(`\*\}\*`)
)

// cleanLogOutput rewrites the trailer sentinels emitted by logFormat into
// valid quoted YAML. Trailer values may contain arbitrary text, so double
// quotes inside trailer lines are escaped before the sentinels become
// quoting characters.
func cleanLogOutput(out string) string {
	out = trailersLineRe.ReplaceAllStringFunc(out, func(line string) string {
		return strings.ReplaceAll(line, `"`, `\"`)
	})
	// A commit with no trailers renders as "[*{**}*]".
	out = emptyTrailersRe.ReplaceAllString(out, "{}")
	out = trailerOpenRe.ReplaceAllString(out, `{${1}"`)
	out = trailerCloseRe.ReplaceAllString(out, `"}`)
	return out
}

func splitLogOutput(out string) []string {
	var entries []string
	for _, entry := range strings.Split(out, logDelimiter) {
		if strings.TrimSpace(entry) != "" {
			entries = append(entries, entry)
		}
	}
	return entries
}
