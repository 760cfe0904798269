// Package assistant builds the shell command that launches an AI coding
// assistant inside a freshly opened worktree tab.
//
// The command is typed into the new iTerm2 session right after the cd,
// so everything here must be safe to paste into an interactive shell.
// Which program runs and which tools it may use come from configuration;
// the defaults match the Claude Code CLI.
package assistant

import (
	"strings"

	"github.com/mmr-tortoise/treetab/internal/iterm"
)

// Command builds the assistant invocation for a new session.
//
// With a task, the full form is:
//
//	claude --allowedTools 'Bash,Read,...' 'implement the login flow'
//
// Without a task the assistant starts interactively, still restricted to
// the allowed tool list. An empty program disables the assistant and
// returns an empty command.
func Command(program string, allowedTools []string, task string) string {
	if program == "" {
		return ""
	}

	parts := []string{program}
	if len(allowedTools) > 0 {
		parts = append(parts, "--allowedTools", iterm.ShellQuote(strings.Join(allowedTools, ",")))
	}
	if task != "" {
		parts = append(parts, iterm.ShellQuote(task))
	}
	return strings.Join(parts, " ")
}
