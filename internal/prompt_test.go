package internal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promptSchema(t *testing.T) *Schema {
	t.Helper()
	optional := false
	schema, err := NewSchema([]Field{
		{Label: "summary", Name: "Summary"},
		{Label: "type", Name: "Type", Choices: []string{"bug", "feature", "trivial"}},
		{
			Label:     "jira",
			Name:      "Jira",
			Required:  &optional,
			Condition: &Condition{Op: "!=", Label: "type", Value: "trivial"},
			Matches:   `WEB-[\d]+`,
		},
	})
	require.NoError(t, err)
	return schema
}

func TestPromptCollectsAnswers(t *testing.T) {
	in := strings.NewReader("Add a thing\nfeature\nWEB-9\n")
	var out bytes.Buffer
	p := NewPrompterIO(in, &out)

	values, err := p.Prompt(promptSchema(t), nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"summary": "Add a thing",
		"type":    "feature",
		"jira":    "WEB-9",
	}, values)

	assert.Contains(t, out.String(), "Summary: ")
	assert.Contains(t, out.String(), "Type (bug, feature, trivial): ")
}

func TestPromptReasksOnInvalidAnswer(t *testing.T) {
	// "refactor" is not a choice; the prompt asks again
	in := strings.NewReader("s\nrefactor\nbug\nWEB-1\n")
	var out bytes.Buffer
	p := NewPrompterIO(in, &out)

	values, err := p.Prompt(promptSchema(t), nil)
	require.NoError(t, err)

	assert.Equal(t, "bug", values["type"])
	assert.Contains(t, out.String(), `Value "refactor" is not a valid choice. Choices are bug, feature, trivial.`)
}

func TestPromptReasksOnPatternMismatch(t *testing.T) {
	in := strings.NewReader("s\nbug\nNOPE\nWEB-1\n")
	var out bytes.Buffer
	p := NewPrompterIO(in, &out)

	values, err := p.Prompt(promptSchema(t), nil)
	require.NoError(t, err)

	assert.Equal(t, "WEB-1", values["jira"])
	assert.Contains(t, out.String(), `Value "NOPE" does not match pattern "WEB-[\d]+".`)
}

func TestPromptSkipsConditionedField(t *testing.T) {
	// trivial commits do not get asked for a ticket
	in := strings.NewReader("s\ntrivial\n")
	var out bytes.Buffer
	p := NewPrompterIO(in, &out)

	values, err := p.Prompt(promptSchema(t), nil)
	require.NoError(t, err)

	_, ok := values["jira"]
	assert.False(t, ok)
	assert.NotContains(t, out.String(), "Jira")
}

func TestPromptOmitsEmptyOptional(t *testing.T) {
	in := strings.NewReader("s\nbug\n\n")
	var out bytes.Buffer
	p := NewPrompterIO(in, &out)

	values, err := p.Prompt(promptSchema(t), nil)
	require.NoError(t, err)

	_, ok := values["jira"]
	assert.False(t, ok)
}

func TestPromptUsesDefaults(t *testing.T) {
	// empty answers accept the offered defaults
	in := strings.NewReader("\n\n\n")
	var out bytes.Buffer
	p := NewPrompterIO(in, &out)

	values, err := p.Prompt(promptSchema(t), map[string]any{
		"summary": "Seeded summary",
		"type":    "feature",
		"jira":    "WEB-7",
	})
	require.NoError(t, err)

	assert.Equal(t, "Seeded summary", values["summary"])
	assert.Equal(t, "feature", values["type"])
	assert.Equal(t, "WEB-7", values["jira"])
	assert.Contains(t, out.String(), "[Seeded summary]")
}

func TestPromptOverridesDefaults(t *testing.T) {
	in := strings.NewReader("New summary\nbug\nWEB-2\n")
	var out bytes.Buffer
	p := NewPrompterIO(in, &out)

	values, err := p.Prompt(promptSchema(t), map[string]any{
		"summary": "Old summary",
		"type":    "feature",
		"jira":    "WEB-7",
	})
	require.NoError(t, err)

	assert.Equal(t, "New summary", values["summary"])
	assert.Equal(t, "bug", values["type"])
}

func TestValidateAnswer(t *testing.T) {
	required := Field{Label: "summary", Name: "Summary"}
	assert.Equal(t, "Summary is required.", validateAnswer(required, ""))
	assert.Empty(t, validateAnswer(required, "anything"))

	optional := false
	assert.Empty(t, validateAnswer(Field{Label: "jira", Required: &optional}, ""))

	patterned := Field{Label: "jira", Matches: `WEB-[\d]+`}
	assert.Empty(t, validateAnswer(patterned, "WEB-123"))
	assert.NotEmpty(t, validateAnswer(patterned, "JIRA-123"))
	// the pattern is anchored at the start
	assert.NotEmpty(t, validateAnswer(patterned, "see WEB-123"))
}
