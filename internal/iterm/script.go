package iterm

import (
	"fmt"
	"strings"

	"github.com/mmr-tortoise/treetab/internal/model"
)

// listTabsScript enumerates every iTerm2 session and returns pairs of
// window id and session working directory. Sessions without a
// "session.path" variable (e.g., a session that has not finished
// launching its shell) are skipped by the try block.
const listTabsScript = `tell application "iTerm2"
	set tabInfo to {}
	repeat with w in windows
		set windowId to id of w
		repeat with t in tabs of w
			repeat with s in sessions of t
				try
					set sessionPath to variable named "session.path" in s
					set end of tabInfo to {windowId, sessionPath}
				end try
			end repeat
		end repeat
	end repeat
	return tabInfo
end tell`

// escapeAppleScript sanitizes a string for embedding inside a
// double-quoted AppleScript literal. Control characters are stripped
// (they would break the script), then backslashes and double quotes are
// escaped.
func escapeAppleScript(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 0x20 && r != 0x7F {
			b.WriteRune(r)
		}
	}
	out := b.String()
	out = strings.ReplaceAll(out, `\`, `\\`)
	out = strings.ReplaceAll(out, `"`, `\"`)
	return out
}

// openScript builds the AppleScript that opens a new tab, window, or
// pane and types the given shell command into the fresh session.
// The command must already be shell-quoted; it is only AppleScript-escaped
// here.
func openScript(mode model.OpenMode, command string) string {
	escaped := escapeAppleScript(command)

	switch mode {
	case model.OpenWindow:
		return fmt.Sprintf(`tell application "iTerm2"
	create window with default profile
	tell current session of current window
		write text "%s"
	end tell
	activate
end tell`, escaped)

	case model.OpenPaneRight:
		return fmt.Sprintf(`tell application "iTerm2"
	tell current session of current window
		set newSession to (split vertically with default profile)
		tell newSession
			write text "%s"
		end tell
	end tell
	activate
end tell`, escaped)

	case model.OpenPaneBelow:
		return fmt.Sprintf(`tell application "iTerm2"
	tell current session of current window
		set newSession to (split horizontally with default profile)
		tell newSession
			write text "%s"
		end tell
	end tell
	activate
end tell`, escaped)

	default: // model.OpenTab
		return fmt.Sprintf(`tell application "iTerm2"
	tell current window
		create tab with default profile
		tell current session
			write text "%s"
		end tell
	end tell
	activate
end tell`, escaped)
	}
}

// focusScript builds the AppleScript that walks all sessions looking for
// one whose session.path equals the target directory, selects its tab,
// and raises its window. The script returns "found" or "not_found" so
// the caller can fall back to opening a new tab.
func focusScript(path string) string {
	return fmt.Sprintf(`tell application "iTerm2"
	repeat with w in windows
		repeat with t in tabs of w
			repeat with s in sessions of t
				try
					set sessionPath to variable named "session.path" in s
					if sessionPath is equal to "%s" then
						select t
						set frontmost of w to true
						activate
						return "found"
					end if
				end try
			end repeat
		end repeat
	end repeat
	return "not_found"
end tell`, escapeAppleScript(path))
}

// parseTabList parses osascript's rendering of the nested AppleScript
// list returned by listTabsScript. osascript flattens nested lists into
// a single comma-separated line:
//
//	1234, /Users/dev/repo, 1234, /Users/dev/repo-feature, 5678, /tmp
//
// Pairs that do not start with a numeric window id are skipped; this
// also drops any path that itself contained ", " (a known limitation of
// the flat output format, accepted because worktree paths with that
// substring are pathological).
func parseTabList(output string) []model.TerminalTab {
	output = strings.TrimSpace(output)
	if output == "" {
		return nil
	}

	var tabs []model.TerminalTab
	parts := strings.Split(output, ", ")
	for i := 0; i+1 < len(parts); i += 2 {
		var windowID int
		if _, err := fmt.Sscanf(strings.TrimSpace(parts[i]), "%d", &windowID); err != nil {
			continue
		}
		path := strings.TrimSpace(parts[i+1])
		if path == "" {
			continue
		}
		tabs = append(tabs, model.TerminalTab{
			WindowID: windowID,
			Path:     model.CanonicalPath(path),
		})
	}
	return tabs
}
