// Package editor runs the user's editor on a private draft of entry text.
package editor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ResolveEditor determines which editor to use based on config, env vars, and fallback.
func ResolveEditor(configEditor string) string {
	if configEditor != "" {
		return configEditor
	}
	if ed := os.Getenv("EDITOR"); ed != "" {
		return ed
	}
	if ed := os.Getenv("VISUAL"); ed != "" {
		return ed
	}
	return "vi"
}

// Draft is entry text in a temporary file only the current user can read.
// Call Remove when done; the plaintext must not outlive the edit.
type Draft struct {
	dir  string
	Path string
}

// NewDraft writes initial into a fresh private draft.
func NewDraft(initial string) (*Draft, error) {
	dir, err := os.MkdirTemp("", "reflectctl-*")
	if err != nil {
		return nil, fmt.Errorf("creating draft directory: %w", err)
	}
	d := &Draft{dir: dir, Path: filepath.Join(dir, "entry.md")}
	if err := os.WriteFile(d.Path, []byte(initial), 0600); err != nil {
		d.Remove()
		return nil, fmt.Errorf("writing draft: %w", err)
	}
	return d, nil
}

// Command builds the editor invocation for the draft. Stdio is left unset.
func (d *Draft) Command(editorCmd string) (*exec.Cmd, error) {
	parts := strings.Fields(editorCmd)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty editor command")
	}
	args := append(parts[1:], d.Path)
	return exec.Command(parts[0], args...), nil
}

// Read returns the draft text with surrounding whitespace trimmed.
func (d *Draft) Read() (string, error) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return "", fmt.Errorf("reading draft: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Remove deletes the draft and its directory.
func (d *Draft) Remove() error {
	return os.RemoveAll(d.dir)
}

// Edit opens initialContent in an editor and returns the edited text.
// Unchanged or empty results report changed=false.
func Edit(editorCmd string, initialContent string) (content string, changed bool, err error) {
	d, err := NewDraft(initialContent)
	if err != nil {
		return "", false, err
	}
	defer d.Remove()

	cmd, err := d.Command(editorCmd)
	if err != nil {
		return "", false, err
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", false, fmt.Errorf("editor exited with error: %w", err)
	}

	result, err := d.Read()
	if err != nil {
		return "", false, err
	}
	if result == "" {
		return "", false, nil
	}
	if result == strings.TrimSpace(initialContent) {
		return initialContent, false, nil
	}
	return result, true, nil
}
