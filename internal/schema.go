package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type FieldType string

const (
	TypeString   FieldType = "string"
	TypeDatetime FieldType = "datetime"
)

// SchemaFileName is the user schema file, relative to the tidy directory.
const SchemaFileName = "commit.yaml"

// Condition gates whether a field applies, based on the value of a sibling
// field that appears earlier in the schema. It is written in the schema file
// as a flow sequence, e.g. ["!=", "type", "trivial"].
type Condition struct {
	Op    string
	Label string
	Value string
}

func (c *Condition) UnmarshalYAML(node *yaml.Node) error {
	var parts []string
	if err := node.Decode(&parts); err != nil {
		return fmt.Errorf("%w: condition must be a [op, label, value] list", ErrSchema)
	}
	if len(parts) != 3 {
		return fmt.Errorf("%w: condition must have exactly 3 elements, got %d", ErrSchema, len(parts))
	}
	if parts[0] != "==" && parts[0] != "!=" {
		return fmt.Errorf("%w: unsupported condition operator %q", ErrSchema, parts[0])
	}
	c.Op = parts[0]
	c.Label = parts[1]
	c.Value = parts[2]
	return nil
}

// Met evaluates the condition against already-parsed sibling values,
// falling back to the raw input for siblings that appear later in the
// schema. A sibling absent from both means the condition is not met,
// regardless of operator.
func (c *Condition) Met(values, raw map[string]any) bool {
	v, ok := values[c.Label]
	if !ok {
		v, ok = raw[c.Label]
	}
	if !ok {
		return false
	}
	s := valueString(v)
	if c.Op == "==" {
		return s == c.Value
	}
	return s != c.Value
}

type Field struct {
	Label     string     `yaml:"label"`
	Name      string     `yaml:"name"`
	Help      string     `yaml:"help"`
	Type      FieldType  `yaml:"type"`
	Required  *bool      `yaml:"required"`
	Multiline bool       `yaml:"multiline"`
	Condition *Condition `yaml:"condition"`
	Matches   string     `yaml:"matches"`
	Choices   []string   `yaml:"choices"`
}

// IsRequired reports whether the field is required. Fields are required
// unless the schema says otherwise.
func (f Field) IsRequired() bool {
	return f.Required == nil || *f.Required
}

// DisplayName returns the human-readable field name, falling back to a
// title-cased label.
func (f Field) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	return titleCaseLabel(f.Label, " ")
}

// Schema is an ordered set of field definitions for a structured commit.
type Schema struct {
	fields []Field
	index  map[string]int
}

// NewSchema builds a schema from an ordered field list. Labels must be
// unique and non-empty.
func NewSchema(fields []Field) (*Schema, error) {
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		if f.Label == "" {
			return nil, fmt.Errorf("%w: field %d has no label", ErrSchema, i)
		}
		if _, ok := index[f.Label]; ok {
			return nil, fmt.Errorf("%w: duplicate label %q", ErrSchema, f.Label)
		}
		index[f.Label] = i
	}
	return &Schema{fields: fields, index: index}, nil
}

// BuildSchema merges user-supplied fields into the default field set. A user
// field with the same label as a default field replaces it in place; other
// user fields are appended in the order supplied.
func BuildSchema(defaults, user []Field) (*Schema, error) {
	for _, f := range user {
		if f.Label == "" {
			return nil, fmt.Errorf("%w: schema entry does not have a label", ErrSchema)
		}
		if f.Multiline && f.Label != "description" {
			return nil, fmt.Errorf(
				"%w: invalid entry with label %q: multi-line input is only allowed for the commit description",
				ErrSchema, f.Label,
			)
		}
	}

	defaultIndex := make(map[string]int, len(defaults))
	merged := make([]Field, len(defaults))
	copy(merged, defaults)
	for i, f := range defaults {
		defaultIndex[f.Label] = i
	}

	for _, f := range user {
		if i, ok := defaultIndex[f.Label]; ok {
			merged[i] = f
		} else {
			merged = append(merged, f)
		}
	}

	return NewSchema(merged)
}

func (s *Schema) Fields() []Field {
	return s.fields
}

func (s *Schema) Has(label string) bool {
	_, ok := s.index[label]
	return ok
}

func (s *Schema) Field(label string) (Field, bool) {
	i, ok := s.index[label]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Entry is the result of parsing a raw field map against a schema. Parsing
// never fails; problems accumulate as validation errors instead.
type Entry struct {
	schema *Schema
	values map[string]any
	errors ValidationErrors
}

func (e *Entry) Valid() bool {
	return len(e.errors) == 0
}

func (e *Entry) Errors() ValidationErrors {
	return e.errors
}

// Values returns a copy of the materialized field map.
func (e *Entry) Values() map[string]any {
	out := make(map[string]any, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}

// Parse validates a raw field map against the schema. Fields are walked in
// schema order. A field whose condition is not met against the values parsed
// so far is skipped entirely. Missing required values, pattern mismatches,
// bad choices and unparsable datetimes are recorded as validation errors
// rather than failing the parse.
func (s *Schema) Parse(raw map[string]any) *Entry {
	entry := &Entry{schema: s, values: make(map[string]any)}

	for _, f := range s.fields {
		if f.Condition != nil && !f.Condition.Met(entry.values, raw) {
			continue
		}

		v, ok := raw[f.Label]
		if !ok {
			if f.IsRequired() {
				entry.addError("", fmt.Sprintf("missing field %q", f.Label))
			}
			continue
		}

		str := valueString(v)
		if str == "" {
			if f.IsRequired() {
				entry.addError("", fmt.Sprintf("missing field %q", f.Label))
			}
			entry.values[f.Label] = str
			continue
		}

		if f.Matches != "" && !matchesAtStart(f.Matches, str) {
			entry.addError(f.Label, fmt.Sprintf("Value %q does not match pattern %q.", str, f.Matches))
		}
		if len(f.Choices) > 0 && !contains(f.Choices, str) {
			entry.addError(f.Label, fmt.Sprintf(
				"Value %q is not a valid choice. Choices are %s.",
				str, strings.Join(f.Choices, ", "),
			))
		}

		if f.Type == TypeDatetime {
			t, err := ParseDatetime(str)
			if err != nil {
				entry.addError(f.Label, fmt.Sprintf("Value %q could not be parsed as a datetime.", str))
				entry.values[f.Label] = str
			} else {
				entry.values[f.Label] = t
			}
			continue
		}

		entry.values[f.Label] = str
	}

	return entry
}

func (e *Entry) addError(label, msg string) {
	e.errors = append(e.errors, &ValidationError{Label: label, Message: msg})
}

// DefaultCommitFields returns the built-in field set. The short form covers
// the write path (prompting for a new commit); the full form adds the
// git-derived metadata needed when linting or logging existing commits.
func DefaultCommitFields(full bool) []Field {
	optional := false
	fields := []Field{
		{
			Label: "summary",
			Name:  "Summary",
			Help:  "A high-level summary of the commit.",
			Type:  TypeString,
		},
		{
			Label:     "description",
			Name:      "Description",
			Help:      "An in-depth description of the changes.",
			Type:      TypeString,
			Multiline: true,
			Required:  &optional,
		},
	}

	if !full {
		return fields
	}

	return append(fields,
		Field{Label: "sha", Name: "SHA", Help: "Full SHA of the commit.", Type: TypeString},
		Field{Label: "author_name", Name: "Author Name", Help: "The author name of the commit.", Type: TypeString},
		Field{Label: "author_email", Name: "Author Email", Help: "The author email of the commit.", Type: TypeString},
		Field{Label: "author_date", Name: "Author Date", Help: "The time at which the commit was authored.", Type: TypeDatetime},
		Field{Label: "committer_name", Name: "Committer Name", Help: "The name of the person who performed the commit.", Type: TypeString},
		Field{Label: "committer_email", Name: "Committer Email", Help: "The email of the person who performed the commit.", Type: TypeString},
		Field{Label: "committer_date", Name: "Committer Date", Help: "The time at which the commit was performed.", Type: TypeDatetime},
	)
}

// LoadCommitSchema builds the commit schema for the tidy directory, merging
// user fields from commit.yaml when present. A missing schema file means no
// user fields.
func LoadCommitSchema(tidyDir string, full bool) (*Schema, error) {
	var user []Field

	data, err := os.ReadFile(filepath.Join(tidyDir, SchemaFileName))
	if err == nil {
		if err := yaml.Unmarshal(data, &user); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchema, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	return BuildSchema(DefaultCommitFields(full), user)
}

var datetimeLayouts = []string{
	"Mon Jan 2 15:04:05 2006 -0700", // git's default %ad format
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDatetime parses a date string in any of the formats git emits.
func ParseDatetime(s string) (time.Time, error) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable datetime %q", s)
}

func valueString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

func matchesAtStart(pattern, s string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	loc := re.FindStringIndex(s)
	return loc != nil && loc[0] == 0
}

func contains(choices []string, s string) bool {
	for _, c := range choices {
		if c == s {
			return true
		}
	}
	return false
}

// titleCaseLabel turns a snake_case label into a joined title-cased form,
// e.g. "co_authored_by" -> "Co-Authored-By" with sep "-".
func titleCaseLabel(label, sep string) string {
	parts := strings.Split(label, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, sep)
}
