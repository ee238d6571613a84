package internal

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

const (
	// DefaultStyle selects .git-tidy/log.tpl, or the built-in changelog
	// template when the file does not exist.
	DefaultStyle = "default"

	logTemplateName    = "log.tpl"
	commitTemplateName = "commit.tpl"
)

// defaultLogTemplate is the built-in changelog, grouping commits by tag in
// release order with untagged commits under "Unreleased".
const defaultLogTemplate = `{{ range .Commits.Group "tag" }}
## {{ with .Key }}{{ .Name }}{{ else }}Unreleased{{ end }}{{ with .Key }}{{ with .Date }} ({{ .Format "2006-01-02" }}){{ end }}{{ end }}
{{ range .Commits }}
- {{ .Summary }} [{{ .AuthorName }}, {{ printf "%.7s" .SHA }}]
{{- if .Description }}

{{ indent 4 .Description }}
{{- end }}
{{- end }}

{{ end }}`

// defaultCommitTemplate renders the commented commit-message skeleton that
// can be installed as a git commit.template file.
const defaultCommitTemplate = `# Remember - commit messages are used to generate release notes!
# Use the following template when writing a commit message or
# use "git tidy commit" to commit a properly-formatted message.
#
# <summary>
#
# <description>
#
{{- range .Fields }}
{{- if and (ne .Label "summary") (ne .Label "description") }}
# {{ .DisplayName }}: <{{ .Help }}{{ with .Choices }} Choices: {{ join ", " . }}.{{ end }}>
{{- end }}
{{- end }}
`

// LogContext is the data handed to log templates.
type LogContext struct {
	Commits Commits
	Range   string
	Output  string
}

func newTemplate(name, text string) (*template.Template, error) {
	return template.New(name).Funcs(sprig.TxtFuncMap()).Parse(text)
}

// RenderLog renders the commits with the template for the given style from
// the tidy directory. The default style falls back to the built-in template
// when no log.tpl exists; a missing styled template is an error.
func RenderLog(tidyDir, style string, data LogContext) (string, error) {
	name := logTemplateName
	if style != DefaultStyle {
		name = fmt.Sprintf("log_%s.tpl", style)
	}

	text, err := readTemplate(tidyDir, name)
	if os.IsNotExist(err) {
		if style != DefaultStyle {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
		}
		text = defaultLogTemplate
	} else if err != nil {
		return "", err
	}

	tpl, err := newTemplate(name, text)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}

// RenderCommitTemplate renders the commit message template for the schema.
func RenderCommitTemplate(tidyDir string, schema *Schema) (string, error) {
	text, err := readTemplate(tidyDir, commitTemplateName)
	if os.IsNotExist(err) {
		text = defaultCommitTemplate
	} else if err != nil {
		return "", err
	}

	tpl, err := newTemplate(commitTemplateName, text)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", commitTemplateName, err)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, schema); err != nil {
		return "", fmt.Errorf("render template %s: %w", commitTemplateName, err)
	}
	return buf.String(), nil
}

func readTemplate(tidyDir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(tidyDir, name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
