package internal

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// trailerPostfixRe matches a block of "Key: value" trailer lines anchored to
// the end of a commit description, so they can be stripped from the free
// text. Continuation lines are indented.
var trailerPostfixRe = regexp.MustCompile(`((^|\n)([A-Z]\w+(-\w+)*):([^\n]*(\n\s+[^\n]*)*))+$`)

// shaLineRe recovers the commit sha from an entry that failed structured
// decoding. The log format guarantees sha is the first line.
var shaLineRe = regexp.MustCompile(`^sha: ([a-fA-F0-9]+)\n`)

// Tag is a named marker in commit history, used to group commits into
// releases. Its date is resolved with one git query on first access and
// memoized, including a null result.
type Tag struct {
	name string
	git  GitClient

	date         *time.Time
	dateResolved bool
}

func NewTag(name string, git GitClient) *Tag {
	return &Tag{name: name, git: git}
}

// TagFromSHA finds the nearest tag containing sha, optionally restricted to
// tags matching a glob pattern. Returns nil when no tag contains the commit.
func TagFromSHA(ctx context.Context, git GitClient, sha, match string) *Tag {
	rev, err := git.Describe(ctx, sha, match)
	if err != nil || rev == "" {
		return nil
	}

	rev = strings.ReplaceAll(rev, "~", ":")
	rev = strings.ReplaceAll(rev, "^", ":")
	name, _, _ := strings.Cut(rev, ":")
	return NewTag(name, git)
}

func (t *Tag) Name() string {
	return t.name
}

func (t *Tag) String() string {
	return t.name
}

// Date returns the author date of the tagged commit, or nil when it cannot
// be determined. There is no cancellation contract for lazy resolution, so
// the query runs under a background context.
func (t *Tag) Date() *time.Time {
	if t.dateResolved {
		return t.date
	}
	t.dateResolved = true

	raw, err := t.git.AuthorDate(context.Background(), t.name)
	if err != nil {
		return nil
	}
	parsed, err := ParseDatetime(raw)
	if err != nil {
		return nil
	}

	t.date = &parsed
	return t.date
}

// Commit is one parsed commit record. The raw message is immutable; field
// values live in the schema-validated entry. The associated tag is resolved
// lazily on first access.
type Commit struct {
	msg      string
	schema   *Schema
	git      GitClient
	tagMatch string

	entry  *Entry
	parsed bool

	tag         *Tag
	tagResolved bool
}

// NewCommit parses one raw log entry into a commit record. A record that
// fails structured decoding degrades to sha-only with a single validation
// error; it only fails outright when not even the sha can be recovered,
// which means the log producer violated its format contract.
func NewCommit(msg string, schema *Schema, git GitClient, tagMatch string) (*Commit, error) {
	msg = strings.TrimSpace(msg)

	c := &Commit{
		msg:      msg,
		schema:   schema,
		git:      git,
		tagMatch: tagMatch,
	}

	raw, err := decodeLogEntry(msg)
	if err != nil {
		m := shaLineRe.FindStringSubmatch(msg + "\n")
		if m == nil {
			return nil, fmt.Errorf("cannot recover sha from unparsable log entry: %v", err)
		}

		c.entry = &Entry{
			schema: schema,
			values: map[string]any{"sha": m[1]},
			errors: ValidationErrors{{
				Message: fmt.Sprintf("commit could not be parsed: %v", err),
			}},
		}
		return c, nil
	}

	c.entry = schema.Parse(raw)
	c.parsed = true
	return c, nil
}

// decodeLogEntry decodes one YAML log entry and flattens it: trailer
// key/value pairs are hoisted to the top level (keys lower-cased, trimmed,
// hyphens to underscores), the trailer block that git repeats at the tail of
// the description is stripped, and plain string values are trimmed.
func decodeLogEntry(msg string) (map[string]any, error) {
	var data map[string]any
	if err := yaml.Unmarshal([]byte(msg), &data); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("empty log entry")
	}

	rawTrailers, ok := data["trailers"]
	if !ok {
		return nil, fmt.Errorf("log entry has no trailers key")
	}
	trailerList, ok := rawTrailers.([]any)
	if !ok {
		return nil, fmt.Errorf("log entry trailers are malformed")
	}

	flat := make(map[string]any, len(data))
	for key, value := range data {
		if key == "trailers" {
			continue
		}
		if s, isStr := value.(string); isStr {
			if key == "description" {
				s = stripTrailerPostfix(s)
			}
			flat[key] = strings.TrimSpace(s)
		} else {
			flat[key] = value
		}
	}

	for _, trailer := range trailerList {
		m, isMap := trailer.(map[string]any)
		if !isMap {
			return nil, fmt.Errorf("log entry trailer is not a map")
		}
		for key, value := range m {
			key = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
			flat[key] = strings.TrimSpace(valueString(value))
		}
	}

	return flat, nil
}

func stripTrailerPostfix(description string) string {
	// block scalars keep a final newline, which would defeat the $ anchor
	description = strings.TrimRight(description, "\n")
	if loc := trailerPostfixRe.FindStringIndex(description); loc != nil {
		description = strings.TrimRight(description[:loc[0]], "\n")
	}
	return description
}

// Msg returns the raw commit message as emitted by the log query.
func (c *Commit) Msg() string {
	return c.msg
}

// SHA is always available, even on records that failed to parse.
func (c *Commit) SHA() string {
	return valueString(c.entry.values["sha"])
}

// Parsed reports whether the raw entry decoded into the expected structured
// form. When false, only the sha and raw message are populated.
func (c *Commit) Parsed() bool {
	return c.parsed
}

// Valid reports whether the commit passed schema validation.
func (c *Commit) Valid() bool {
	return c.entry.Valid()
}

func (c *Commit) ValidationErrors() ValidationErrors {
	return c.entry.Errors()
}

// Entry exposes the validated field map, e.g. for seeding squash defaults.
func (c *Commit) Entry() *Entry {
	return c.entry
}

// Get returns the value of a schema-declared field. Declared fields that
// are absent from the record yield nil; undeclared labels are an error.
func (c *Commit) Get(label string) (any, error) {
	if v, ok := c.entry.values[label]; ok {
		return v, nil
	}
	if c.schema.Has(label) {
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, label)
}

// Tag returns the nearest tag containing this commit, resolved once and
// memoized. Returns nil for untagged commits.
func (c *Commit) Tag() *Tag {
	if !c.tagResolved {
		c.tag = TagFromSHA(context.Background(), c.git, c.SHA(), c.tagMatch)
		c.tagResolved = true
	}
	return c.tag
}

// Attr provides uniform access to both the fixed record attributes and the
// schema-driven field map, for the filter/group algebra and templates.
func (c *Commit) Attr(name string) (any, error) {
	switch name {
	case "msg":
		return c.msg, nil
	case "parsed":
		return c.parsed, nil
	case "valid":
		return c.Valid(), nil
	case "tag":
		if t := c.Tag(); t != nil {
			return t, nil
		}
		return nil, nil
	default:
		return c.Get(name)
	}
}

// Str returns the string form of a field, or "" when absent. It keeps
// templates terse.
func (c *Commit) Str(label string) string {
	v, err := c.Get(label)
	if err != nil {
		return ""
	}
	return valueString(v)
}

func (c *Commit) Summary() string     { return c.Str("summary") }
func (c *Commit) Description() string { return c.Str("description") }
func (c *Commit) AuthorName() string  { return c.Str("author_name") }
