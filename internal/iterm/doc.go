// Package iterm provides iTerm2 tab, window, and pane automation.
//
// This package is the terminal integration layer for the treetab CLI.
// iTerm2 exposes no daemon API; it is scripted through AppleScript, so
// every operation here builds a script and executes it with the
// `osascript` binary (via os/exec).
//
// Three operations cover the whole surface:
//   - Open: create a tab/window/pane, cd into a worktree, optionally run
//     a command in the fresh session
//   - Tabs: enumerate all sessions and the working directory each shell
//     reports through iTerm2's "session.path" variable
//   - Focus: select the tab whose session is running in a given directory
//
// Design decisions:
//   - The osascript invocation sits behind a function field on Automator
//     so unit tests can substitute canned script output.
//   - Strings embedded into AppleScript are sanitized (control characters
//     stripped, backslashes and quotes escaped) before interpolation.
//   - A failed Tabs query is an error for the caller to interpret: list
//     degrades to "no tabs open", while open/switch treat automation
//     failures as fatal.
package iterm
