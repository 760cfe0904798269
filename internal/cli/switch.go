// Package cli — switch.go implements the "treetab switch" command.
//
// Switch focuses the iTerm2 tab whose session is running in the target
// worktree. When no such tab exists, it opens a new one instead, so
// "switch" always lands the user in the right directory.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/treetab/internal/iterm"
	"github.com/mmr-tortoise/treetab/internal/worktree"
)

// switchFlags holds the flag values for the switch command.
type switchFlags struct {
	mode string // --mode: how to open when no tab exists
}

// NewSwitchCommand creates the "switch" cobra command.
func NewSwitchCommand() *cobra.Command {
	flags := &switchFlags{}

	cmd := &cobra.Command{
		Use:   "switch <worktree>",
		Short: "Focus the iTerm2 tab of a worktree",
		Long: `Focus the iTerm2 tab whose session is running in the given worktree.
If no tab is open there, a new one is opened instead.

The worktree argument is resolved as a branch name, a full path, or a
path basename, in that order.

Examples:
  treetab switch feature-auth
  treetab switch --mode window feature/auth`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runSwitch(args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.mode, "mode", "m", "", "How to open if no tab exists: tab, window, pane-right, pane-below")

	return cmd
}

// runSwitch resolves the target worktree, tries to focus its tab, and
// falls back to opening a new one.
func runSwitch(query string, flags *switchFlags) error {
	wm := worktree.NewManager()
	repoRoot, err := repoContext(wm)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(repoRoot)
	if err != nil {
		return err
	}

	mode, err := resolveMode(flags.mode, cfg)
	if err != nil {
		return err
	}

	target, err := findWorktree(wm, repoRoot, query)
	if err != nil {
		return err
	}
	VerboseLog("Resolved %q to worktree at %s", query, target.Path)

	automator := iterm.NewAutomator()

	focused, err := automator.Focus(target.Path)
	if err != nil {
		return err
	}

	if !focused {
		VerboseLog("No open tab for %s, opening a new %s", target.Path, mode)
		if openErr := automator.Open(target.Path, mode, ""); openErr != nil {
			return openErr
		}
	}

	printSwitchResult(target.DisplayBranch(), target.Path, focused)
	return nil
}

// printSwitchResult outputs the switch result in text or JSON format.
// The focused field distinguishes "switched to an existing tab" from
// "opened a new one".
func printSwitchResult(branch, path string, focused bool) {
	if IsJSONOutput() {
		result := struct {
			Branch  string `json:"branch"`
			Path    string `json:"path"`
			Focused bool   `json:"focused"`
			Opened  bool   `json:"opened"`
		}{Branch: branch, Path: path, Focused: focused, Opened: !focused}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	if focused {
		fmt.Printf("Switched to worktree %q\n", branch)
	} else {
		fmt.Printf("No open tab for %q, opened a new one\n", branch)
	}
}
