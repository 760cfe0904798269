package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OpenMode describes how a worktree is presented in iTerm2 when opened.
// Modes map one-to-one onto the AppleScript primitives iTerm2 exposes:
// "create tab", "create window", "split vertically", "split horizontally".
type OpenMode string

const (
	// OpenTab opens the worktree in a new tab of the current window (default).
	OpenTab OpenMode = "tab"

	// OpenWindow opens the worktree in a new top-level window.
	OpenWindow OpenMode = "window"

	// OpenPaneRight splits the current session vertically and opens the
	// worktree in the new right-hand pane.
	OpenPaneRight OpenMode = "pane-right"

	// OpenPaneBelow splits the current session horizontally and opens the
	// worktree in the new bottom pane.
	OpenPaneBelow OpenMode = "pane-below"
)

// String returns the string representation of OpenMode.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in CLI help text and error messages.
func (m OpenMode) String() string {
	return string(m)
}

// IsValid checks whether the OpenMode value is one of the
// predefined valid modes.
func (m OpenMode) IsValid() bool {
	switch m {
	case OpenTab, OpenWindow, OpenPaneRight, OpenPaneBelow:
		return true
	default:
		return false
	}
}

// ParseOpenMode converts a string to an OpenMode.
// Returns an error if the string does not match any valid mode.
func ParseOpenMode(s string) (OpenMode, error) {
	mode := OpenMode(strings.ToLower(s))
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid open mode: %q (valid: tab, window, pane-right, pane-below)", s)
	}
	return mode, nil
}

// Worktree represents a single git worktree joined with its terminal state.
// This is the primary entity in the domain.
//
// All fields are reconstructed at runtime from `git worktree list
// --porcelain` output plus per-worktree status queries. Nothing is
// persisted between invocations.
type Worktree struct {
	// Name is the short display name: the basename of Path.
	Name string `json:"name"`

	// Path is the canonicalized absolute filesystem path to the worktree
	// directory. All tab matching compares against this field.
	Path string `json:"path"`

	// Branch is the short branch name (e.g., "feature-auth").
	// Empty when the worktree is in a detached HEAD state.
	Branch string `json:"branch,omitempty"`

	// HEAD is the commit SHA the worktree currently points to.
	HEAD string `json:"head"`

	// IsBare indicates the entry represents a bare repository.
	IsBare bool `json:"bare,omitempty"`

	// IsDetached indicates the worktree has a detached HEAD.
	IsDetached bool `json:"detached,omitempty"`

	// Dirty is true when the worktree has uncommitted changes
	// (staged, unstaged, or untracked).
	Dirty bool `json:"dirty"`

	// Ahead is the number of commits on the worktree's branch that are
	// not on its upstream. Zero when no upstream is configured.
	Ahead int `json:"ahead"`

	// Behind is the number of commits on the upstream that are not on
	// the worktree's branch. Zero when no upstream is configured.
	Behind int `json:"behind"`

	// HasTab is true when an iTerm2 session is currently running with
	// this worktree's path as its working directory. Only populated by
	// commands that query iTerm2.
	HasTab bool `json:"hasTab"`
}

// DisplayBranch returns the branch name for human output, substituting
// "detached" for worktrees without a branch and "bare" for bare entries.
func (w *Worktree) DisplayBranch() string {
	if w.IsBare {
		return "bare"
	}
	if w.Branch == "" {
		return "detached"
	}
	return w.Branch
}

// Matches reports whether the worktree is identified by the given query.
// A query matches the branch name, the exact (or canonicalized) path, or
// the path basename. Used by switch/open/close to resolve their
// positional argument.
func (w *Worktree) Matches(query string) bool {
	if query == "" {
		return false
	}
	if w.Branch != "" && w.Branch == query {
		return true
	}
	if w.Path == query || CanonicalPath(query) == w.Path {
		return true
	}
	return filepath.Base(w.Path) == query
}

// TerminalTab represents one iTerm2 session and the working directory its
// shell reports via the "session.path" variable. Fetched fresh on every
// invocation; window IDs are only stable for the lifetime of the iTerm2
// process.
type TerminalTab struct {
	// WindowID is iTerm2's numeric window identifier.
	WindowID int `json:"windowId"`

	// Path is the canonicalized working directory of the session's shell.
	Path string `json:"path"`
}

// CanonicalPath normalizes a filesystem path for string-equality joins
// between worktree paths and iTerm2 session paths. Symlinks are resolved
// when the path exists (macOS reports /tmp as /private/tmp in
// session.path); otherwise the cleaned path is returned as-is.
func CanonicalPath(path string) string {
	cleaned := filepath.Clean(path)
	resolved, err := filepath.EvalSymlinks(cleaned)
	if err != nil {
		return cleaned
	}
	return resolved
}

// HomeRelative shortens a path for human output by replacing the user's
// home directory prefix with "~". The input is returned unchanged when
// the home directory cannot be determined or is not a prefix.
func HomeRelative(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == home {
		return "~"
	}
	if strings.HasPrefix(path, home+string(filepath.Separator)) {
		return "~" + path[len(home):]
	}
	return path
}

// ExitCode defines the CLI exit codes. One code per failure class allows
// scripts and CI systems to programmatically determine the outcome of a
// command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitGitError indicates a git operation (worktree add/remove,
	// branch query) failed.
	ExitGitError ExitCode = 2

	// ExitWorktreeNotFound indicates the named worktree does not exist.
	ExitWorktreeNotFound ExitCode = 3

	// ExitDirtyWorktree indicates a destructive operation was refused
	// because the worktree has uncommitted changes.
	ExitDirtyWorktree ExitCode = 4

	// ExitUnpushedCommits indicates a destructive operation was refused
	// because the worktree has commits its upstream does not.
	ExitUnpushedCommits ExitCode = 5

	// ExitAutomationError indicates iTerm2 scripting via osascript failed.
	ExitAutomationError ExitCode = 6

	// ExitConfigError indicates invalid configuration or flag values.
	ExitConfigError ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
