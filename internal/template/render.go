package template

import (
	"bytes"
	"fmt"
	"text/template"
)

// Vars is the data a scaffold is rendered with.
type Vars struct {
	Date   string
	Prompt string
	Goals  []string
}

func (v Vars) data() map[string]any {
	goals := v.Goals
	if goals == nil {
		goals = []string{}
	}
	return map[string]any{"date": v.Date, "prompt": v.Prompt, "goals": goals}
}

// Render executes a Go text/template with the scaffold variables.
//
// The template uses Go's standard text/template syntax:
//   - {{.date}} - today's date, YYYY-MM-DD
//   - {{.prompt}} - today's local writing prompt
//   - {{range .goals}}...{{end}} - the saved goals
//
// Example:
//
//	content, err := Render("Goals for {{.date}}", Vars{Date: "2025-01-20"})
//	// content = "Goals for 2025-01-20"
func Render(tmplContent string, vars Vars) (string, error) {
	tmpl, err := template.New("content").Option("missingkey=zero").Parse(tmplContent)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars.data()); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}
