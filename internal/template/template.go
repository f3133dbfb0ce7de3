// Package template provides writing scaffolds that pre-fill the editor.
package template

import (
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned for an unknown scaffold name.
var ErrNotFound = fmt.Errorf("template not found")

// Builtin are the scaffolds shipped with reflectctl, keyed by name.
var Builtin = map[string]string{
	"daily":     "## {{.date}}\n\n{{.prompt}}\n\n",
	"gratitude": "## Grateful For\n\n1. \n2. \n3. \n\n## Highlight of the Day\n\n",
	"evening":   "## What went well\n\n\n## What drained me\n\n\n## Tomorrow\n\n",
	"goals":     "## Goals\n\n{{range $g := .goals}}- {{$g}}: \n{{end}}\n",
}

// Names returns the builtin scaffold names in sorted order.
func Names() []string {
	names := make([]string, 0, len(Builtin))
	for n := range Builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ParseNames splits a comma-separated template names string into a slice.
func ParseNames(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}

// Compose renders the named scaffolds with vars and concatenates them.
// If names is empty, returns "". An unknown name fails before anything is rendered.
func Compose(names []string, vars Vars) (string, error) {
	if len(names) == 0 {
		return "", nil
	}
	for _, name := range names {
		if _, ok := Builtin[name]; !ok {
			return "", fmt.Errorf("template %q: %w", name, ErrNotFound)
		}
	}

	parts := make([]string, 0, len(names))
	for _, name := range names {
		out, err := Render(Builtin[name], vars)
		if err != nil {
			return "", fmt.Errorf("template %q: %w", name, err)
		}
		parts = append(parts, strings.TrimRight(out, "\n"))
	}
	return strings.Join(parts, "\n\n") + "\n\n", nil
}
