// Package worktree provides Git worktree management operations.
//
// This package wraps Git CLI commands (via os/exec) to create, list,
// remove, and inspect Git worktrees. It serves as the Git integration
// layer for the treetab CLI, where each worktree is paired with an
// iTerm2 tab, window, or pane.
//
// Design decisions:
//   - We shell out to `git` rather than using a Go Git library (e.g., go-git)
//     because worktree operations require full Git CLI compatibility, and
//     go-git's worktree support is limited.
//   - The Manager struct is currently stateless but exists as a receiver to
//     allow future extension (e.g., custom git binary path, logging).
//   - All errors from Git commands are wrapped in model.CLIError with
//     ExitGitError to enable proper CLI exit code handling.
package worktree
