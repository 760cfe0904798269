package iterm

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/mmr-tortoise/treetab/internal/model"
)

// Automator executes iTerm2 automation scripts.
//
// The zero value is not usable; construct with NewAutomator. The
// runScript field abstracts the osascript invocation so tests can
// inject canned output without a running iTerm2.
type Automator struct {
	runScript func(script string) (string, error)
}

// NewAutomator creates an Automator that executes scripts with the
// system osascript binary.
func NewAutomator() *Automator {
	return &Automator{runScript: runOsascript}
}

// Open creates a new tab, window, or pane according to mode, changes the
// fresh session's directory to the worktree path, and optionally runs an
// extra command (e.g., an assistant launch) in it.
func (a *Automator) Open(path string, mode model.OpenMode, extraCommand string) error {
	command := "cd " + ShellQuote(path)
	if extraCommand != "" {
		command += " && " + extraCommand
	}

	_, err := a.runScript(openScript(mode, command))
	if err != nil {
		return model.WrapCLIError(model.ExitAutomationError,
			fmt.Sprintf("failed to open %s in iTerm2", mode), err)
	}
	return nil
}

// Tabs returns all iTerm2 sessions with their working directories.
// Paths in the result are canonicalized for joining against worktree
// paths.
func (a *Automator) Tabs() ([]model.TerminalTab, error) {
	output, err := a.runScript(listTabsScript)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitAutomationError, "failed to query iTerm2 tabs", err)
	}
	return parseTabList(output), nil
}

// Focus selects the tab whose session is running in the given directory
// and raises its window. Returns false (and no error) when no session
// matches; the caller decides whether to open a new tab instead.
func (a *Automator) Focus(path string) (bool, error) {
	output, err := a.runScript(focusScript(model.CanonicalPath(path)))
	if err != nil {
		return false, model.WrapCLIError(model.ExitAutomationError, "failed to switch iTerm2 tab", err)
	}
	return strings.Contains(output, "found") && !strings.Contains(output, "not_found"), nil
}

// ShellQuote wraps a string in single quotes for safe interpolation into
// the shell command typed into a new session. Embedded single quotes are
// spliced with a backslash-escaped quote. Strings consisting only of
// clearly safe characters are returned unquoted for readability.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
			r == '/' || r == '.' || r == '-' || r == '_' || r == '~') {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// runOsascript executes an AppleScript with the system osascript binary
// and returns its stdout. Failures include stderr in the error message,
// which carries iTerm2's own diagnostics (e.g., "application isn't
// running").
func runOsascript(script string) (string, error) {
	cmd := exec.Command("osascript", "-e", script)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		if stderrStr != "" {
			return "", fmt.Errorf("osascript: %s", stderrStr)
		}
		return "", fmt.Errorf("osascript: %w", err)
	}
	return stdout.String(), nil
}
