// Package shell integrates the journal status into bash, zsh and fish prompts.
package shell

import (
	"fmt"
	"io"
	"sort"
)

// hooks holds the per-shell snippet that installs the prompt hook.
var hooks = map[string]string{
	"bash": `if [[ -z "$PROMPT_COMMAND" ]]; then
  PROMPT_COMMAND="__reflectctl_prompt_hook"
else
  PROMPT_COMMAND="__reflectctl_prompt_hook;${PROMPT_COMMAND}"
fi`,
	"zsh": `autoload -Uz add-zsh-hook
add-zsh-hook precmd __reflectctl_prompt_hook`,
}

// Shells returns the supported shell names.
func Shells() []string {
	names := []string{"fish"}
	for n := range hooks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// WriteInit writes the integration script for sh. The script exports
// REFLECTCTL_* variables before each prompt and loads completions.
func WriteInit(w io.Writer, sh string) error {
	if sh == "fish" {
		fmt.Fprint(w, `# reflectctl shell integration
function __reflectctl_prompt_hook --on-event fish_prompt
  command reflectctl status --env 2>/dev/null | sed 's/^export \([A-Z_]*\)=/set -gx \1 /' | source
end

function reflectctl_prompt_info
  command reflectctl status 2>/dev/null
end

command reflectctl completion fish 2>/dev/null | source
`)
		return nil
	}
	hook, ok := hooks[sh]
	if !ok {
		return fmt.Errorf("unsupported shell %q (supported: %v)", sh, Shells())
	}
	fmt.Fprintf(w, `# reflectctl shell integration
__reflectctl_prompt_hook() {
  eval "$(command reflectctl status --env 2>/dev/null)"
}

reflectctl_prompt_info() {
  command reflectctl status 2>/dev/null
}

%s

eval "$(command reflectctl completion %s 2>/dev/null)"
`, hook, sh)
	return nil
}
