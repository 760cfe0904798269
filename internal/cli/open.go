// Package cli — open.go implements the "treetab open" command.
//
// Open presents an existing worktree in iTerm2. By default it reuses an
// already-open tab (like switch); --force always opens a new one, which
// is how a second pane or window onto the same worktree is made. Unlike
// switch, open can also launch the AI assistant in the fresh session.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/treetab/internal/iterm"
	"github.com/mmr-tortoise/treetab/internal/worktree"
)

// openFlags holds the flag values for the open command.
type openFlags struct {
	mode      string // --mode: tab / window / pane-right / pane-below
	force     bool   // --force: open a new tab even if one exists
	assistant bool   // --assistant: run the AI assistant in the session
	task      string // --task: task prompt for the assistant
}

// NewOpenCommand creates the "open" cobra command.
func NewOpenCommand() *cobra.Command {
	flags := &openFlags{}

	cmd := &cobra.Command{
		Use:   "open <worktree>",
		Short: "Open an existing worktree in iTerm2",
		Long: `Open an existing worktree in iTerm2.

If a tab is already open in the worktree, it is focused instead of
opening a duplicate; pass --force to open a new tab/window/pane anyway.

Examples:
  treetab open feature-auth
  treetab open --force --mode pane-below feature-auth
  treetab open --assistant --task "add tests for the parser" feature-auth`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.mode, "mode", "m", "", "How to open in iTerm2: tab, window, pane-right, pane-below")
	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Open a new tab even if one is already open")
	cmd.Flags().BoolVarP(&flags.assistant, "assistant", "a", false, "Run the configured AI assistant in the session")
	cmd.Flags().StringVarP(&flags.task, "task", "t", "", "Task prompt passed to the assistant (implies --assistant)")

	return cmd
}

// runOpen resolves the target worktree and opens (or focuses) it.
func runOpen(query string, flags *openFlags) error {
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

	// Reuse an existing tab unless the user insists on a new one.
	if !flags.force {
		focused, focusErr := automator.Focus(target.Path)
		if focusErr != nil {
			return focusErr
		}
		if focused {
			printOpenResult(target.DisplayBranch(), target.Path, true)
			return nil
		}
	}

	command := assistantCommand(cfg, flags.assistant, flags.task)
	VerboseLog("Opening %s in iTerm2 (%s)", target.Path, mode)
	if openErr := automator.Open(target.Path, mode, command); openErr != nil {
		return openErr
	}

	printOpenResult(target.DisplayBranch(), target.Path, false)
	return nil
}

// printOpenResult outputs the open result in text or JSON format.
func printOpenResult(branch, path string, reused bool) {
	if IsJSONOutput() {
		result := struct {
			Branch string `json:"branch"`
			Path   string `json:"path"`
			Reused bool   `json:"reused"`
		}{Branch: branch, Path: path, Reused: reused}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	if reused {
		fmt.Printf("Worktree %q already open, switched to its tab\n", branch)
	} else {
		fmt.Printf("Opened worktree %q\n", branch)
	}
}
