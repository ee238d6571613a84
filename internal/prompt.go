package internal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Prompter collects values for a schema's fields, for the commit write
// path. The returned map contains only the fields that were answered.
type Prompter interface {
	Prompt(schema *Schema, defaults map[string]any) (map[string]any, error)
}

// TerminalPrompter asks for each field on the terminal. Multiline fields
// open $EDITOR.
type TerminalPrompter struct {
	in  io.Reader
	out io.Writer
}

func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{in: os.Stdin, out: os.Stderr}
}

// NewPrompterIO is used by tests to script the conversation.
func NewPrompterIO(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: in, out: out}
}

func (p *TerminalPrompter) Prompt(schema *Schema, defaults map[string]any) (map[string]any, error) {
	reader := bufio.NewReader(p.in)
	values := make(map[string]any)

	for _, f := range schema.Fields() {
		if f.Condition != nil && !f.Condition.Met(values, values) {
			continue
		}

		def := valueString(defaults[f.Label])
		value, err := p.askField(reader, f, def)
		if err != nil {
			return nil, err
		}
		if value == "" && !f.IsRequired() {
			continue
		}
		values[f.Label] = value
	}

	return values, nil
}

func (p *TerminalPrompter) askField(reader *bufio.Reader, f Field, def string) (string, error) {
	for {
		p.printPrompt(f, def)

		var value string
		var err error
		if f.Multiline {
			value, err = p.editorInput(f, def)
		} else {
			value, err = readLine(reader)
		}
		if err != nil {
			return "", err
		}

		if value == "" {
			value = def
		}
		value = strings.TrimSpace(value)

		if msg := validateAnswer(f, value); msg != "" {
			fmt.Fprintf(p.out, "%s\n", msg)
			continue
		}
		return value, nil
	}
}

func (p *TerminalPrompter) printPrompt(f Field, def string) {
	fmt.Fprintf(p.out, "%s", f.DisplayName())
	if len(f.Choices) > 0 {
		fmt.Fprintf(p.out, " (%s)", strings.Join(f.Choices, ", "))
	}
	if def != "" {
		fmt.Fprintf(p.out, " [%s]", def)
	}
	if f.Multiline {
		fmt.Fprintf(p.out, " (opens editor)")
	}
	fmt.Fprintf(p.out, ": ")
}

func validateAnswer(f Field, value string) string {
	if value == "" {
		if f.IsRequired() {
			return fmt.Sprintf("%s is required.", f.DisplayName())
		}
		return ""
	}
	if f.Matches != "" && !matchesAtStart(f.Matches, value) {
		return fmt.Sprintf("Value %q does not match pattern %q.", value, f.Matches)
	}
	if len(f.Choices) > 0 && !contains(f.Choices, value) {
		return fmt.Sprintf("Value %q is not a valid choice. Choices are %s.", value, strings.Join(f.Choices, ", "))
	}
	return ""
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// editorInput opens $EDITOR on a temp file seeded with the default value
// and the field help as comments. Comment lines are stripped from the
// result.
func (p *TerminalPrompter) editorInput(f Field, def string) (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	tmpFile, err := os.CreateTemp("", "git-tidy-*.txt")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmpFile.Name())

	seed := def + "\n# " + f.Help + "\n# Lines starting with # are ignored.\n"
	if _, err := tmpFile.WriteString(seed); err != nil {
		return "", err
	}
	tmpFile.Close()

	c := exec.Command(editor, tmpFile.Name())
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return "", fmt.Errorf("run editor: %w", err)
	}

	content, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return "", err
	}

	var lines []string
	for _, line := range strings.Split(string(content), "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "#") {
			lines = append(lines, line)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
