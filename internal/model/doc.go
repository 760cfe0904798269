// Package model defines the domain types and value objects for the
// treetab CLI.
//
// This package contains pure data structures with no external dependencies.
// The two entities (Worktree, TerminalTab) are transient representations
// reconstructed on every invocation from `git worktree list` output and
// iTerm2 session queries — there are no persistent state files.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
