package internal

import (
	"context"
	"fmt"
	"strings"
)

// fakeGit is an in-memory GitClient that serves canned log entries and
// counts external queries, so tests can assert on laziness and memoization.
type fakeGit struct {
	version   string
	entries   []string
	tags      map[string]string // sha -> describe output
	dates     map[string]string // rev -> author date output
	staged    bool
	hooksPath string
	mergeBase string

	fetchCalls    int
	logCalls      int
	describeCalls int
	dateCalls     int
	logOpts       []LogOptions
	commitOpts    []CommitOptions
	commitErr     error
	softResets    []string
	resets        []string
}

func newFakeGit(entries ...string) *fakeGit {
	return &fakeGit{
		version: "2.39.2",
		entries: entries,
		tags:    map[string]string{},
		dates:   map[string]string{},
	}
}

func (g *fakeGit) Version(ctx context.Context) (string, error) {
	return g.version, nil
}

func (g *fakeGit) Fetch(ctx context.Context) error {
	g.fetchCalls++
	return nil
}

func (g *fakeGit) Log(ctx context.Context, opts LogOptions) ([]string, error) {
	g.logCalls++
	g.logOpts = append(g.logOpts, opts)
	if opts.Reverse {
		reversed := make([]string, len(g.entries))
		for i, entry := range g.entries {
			reversed[len(g.entries)-1-i] = entry
		}
		return reversed, nil
	}
	return g.entries, nil
}

func (g *fakeGit) Describe(ctx context.Context, sha, match string) (string, error) {
	g.describeCalls++
	return g.tags[sha], nil
}

func (g *fakeGit) AuthorDate(ctx context.Context, rev string) (string, error) {
	g.dateCalls++
	date, ok := g.dates[rev]
	if !ok {
		return "", fmt.Errorf("unknown revision %q", rev)
	}
	return date, nil
}

func (g *fakeGit) HooksPath(ctx context.Context) (string, error) {
	return g.hooksPath, nil
}

func (g *fakeGit) HasStagedChanges(ctx context.Context) (bool, error) {
	return g.staged, nil
}

func (g *fakeGit) Commit(ctx context.Context, opts CommitOptions) error {
	g.commitOpts = append(g.commitOpts, opts)
	return g.commitErr
}

func (g *fakeGit) MergeBase(ctx context.Context, ref string) (string, error) {
	return g.mergeBase, nil
}

func (g *fakeGit) ResetSoft(ctx context.Context, rev string) error {
	g.softResets = append(g.softResets, rev)
	return nil
}

func (g *fakeGit) Reset(ctx context.Context, rev string) error {
	g.resets = append(g.resets, rev)
	return nil
}

// logEntry builds one raw log entry in the cleaned YAML shape the exec
// client hands to the parser.
func logEntry(sha, summary, description string, trailers [][2]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "sha: %s\n", sha)
	b.WriteString("author_name: Jane Doe\n")
	b.WriteString("author_email: jane@example.com\n")
	b.WriteString("author_date: Mon Apr 1 12:00:00 2024 -0700\n")
	b.WriteString("committer_name: Jane Doe\n")
	b.WriteString("committer_email: jane@example.com\n")
	b.WriteString("committer_date: Mon Apr 1 12:00:00 2024 -0700\n")
	b.WriteString("summary: |\n")
	fmt.Fprintf(&b, "    %s\n", summary)
	b.WriteString("description: |\n")
	for _, line := range strings.Split(description, "\n") {
		fmt.Fprintf(&b, "    %s\n", line)
	}
	for _, trailer := range trailers {
		fmt.Fprintf(&b, "    %s: %s\n", trailer[0], trailer[1])
	}
	if len(trailers) == 0 {
		b.WriteString("trailers: [{}]\n")
		return b.String()
	}

	rendered := make([]string, len(trailers))
	for i, trailer := range trailers {
		rendered[i] = fmt.Sprintf("{%s: %q}", trailer[0], trailer[1])
	}
	fmt.Fprintf(&b, "trailers: [%s]\n", strings.Join(rendered, ","))
	return b.String()
}

// testSchema is the full commit schema with a typed trailer set, mirroring
// a typical user configuration.
func testSchema(tb interface {
	Helper()
	Fatalf(format string, args ...any)
}) *Schema {
	tb.Helper()

	optional := false
	user := []Field{
		{
			Label:   "type",
			Name:    "Type",
			Help:    "The type of change.",
			Type:    TypeString,
			Choices: []string{"api-break", "bug", "feature", "trivial"},
		},
		{
			Label:     "jira",
			Name:      "Jira",
			Help:      "Jira ticket ID.",
			Type:      TypeString,
			Required:  &optional,
			Condition: &Condition{Op: "!=", Label: "type", Value: "trivial"},
			Matches:   `WEB-[\d]+`,
		},
	}

	schema, err := BuildSchema(DefaultCommitFields(true), user)
	if err != nil {
		tb.Fatalf("build schema: %v", err)
	}
	return schema
}
