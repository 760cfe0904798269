// Package cli — close.go implements the "treetab close" command.
//
// Close removes a worktree. Two guards protect against losing work: a
// dirty working tree and commits the upstream does not have. Both are
// overridable with --force, which also forwards to `git worktree remove
// --force` so git itself does not refuse the dirty tree.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/treetab/internal/model"
	"github.com/mmr-tortoise/treetab/internal/worktree"
)

// closeFlags holds the flag values for the close command.
type closeFlags struct {
	force        bool // --force: override the dirty/unpushed guards
	deleteBranch bool // --delete-branch: also delete the branch
}

// NewCloseCommand creates the "close" cobra command.
func NewCloseCommand() *cobra.Command {
	flags := &closeFlags{}

	cmd := &cobra.Command{
		Use:   "close <worktree>",
		Short: "Remove a worktree",
		Long: `Remove a worktree after safety checks.

The command refuses to remove a worktree with uncommitted changes or
with commits its upstream does not have; --force overrides both checks.
--delete-branch also deletes the worktree's branch (using -D when
combined with --force).

Examples:
  treetab close feature-auth
  treetab close --delete-branch feature-auth
  treetab close --force --delete-branch abandoned-spike`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runClose(args[0], flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Remove despite uncommitted changes or unpushed commits")
	cmd.Flags().BoolVarP(&flags.deleteBranch, "delete-branch", "d", false, "Also delete the worktree's branch")

	return cmd
}

// runClose resolves the target worktree, runs the safety checks, and
// removes it.
func runClose(query string, flags *closeFlags) error {
	wm := worktree.NewManager()
	repoRoot, err := repoContext(wm)
	if err != nil {
		return err
	}

	target, err := findWorktree(wm, repoRoot, query)
	if err != nil {
		return err
	}
	VerboseLog("Resolved %q to worktree at %s", query, target.Path)

	// Guard 1: uncommitted changes. Bare entries have no working tree
	// to check.
	if !target.IsBare {
		dirty, dirtyErr := wm.IsDirty(target.Path)
		if dirtyErr != nil {
			return dirtyErr
		}
		if dirty {
			if !flags.force {
				return model.NewCLIError(model.ExitDirtyWorktree,
					fmt.Sprintf("worktree %q has uncommitted changes (use --force to override)", query))
			}
			fmt.Println("Warning: forcing removal despite uncommitted changes")
		}

		// Guard 2: unpushed commits. Worktrees without an upstream pass.
		unpushed, unpushedErr := wm.HasUnpushedCommits(target.Path)
		if unpushedErr != nil {
			return unpushedErr
		}
		if unpushed {
			if !flags.force {
				return model.NewCLIError(model.ExitUnpushedCommits,
					fmt.Sprintf("worktree %q has unpushed commits (use --force to override)", query))
			}
			fmt.Println("Warning: forcing removal despite unpushed commits")
		}
	}

	VerboseLog("Removing worktree at %s...", target.Path)
	if removeErr := wm.Remove(repoRoot, target.Path, flags.force); removeErr != nil {
		return removeErr
	}

	// Branch deletion is best-effort: the worktree is already gone, so
	// a refusal (e.g., unmerged without --force) is reported as a
	// warning rather than failing the command.
	branchDeleted := false
	if flags.deleteBranch && target.Branch != "" {
		VerboseLog("Deleting branch %s...", target.Branch)
		if delErr := wm.DeleteBranch(repoRoot, target.Branch, flags.force); delErr != nil {
			fmt.Printf("Warning: could not delete branch %q: %v\n", target.Branch, delErr)
		} else {
			branchDeleted = true
		}
	}

	printCloseResult(target.DisplayBranch(), target.Path, branchDeleted)
	return nil
}

// printCloseResult outputs the close result in text or JSON format.
func printCloseResult(branch, path string, branchDeleted bool) {
	if IsJSONOutput() {
		result := struct {
			Branch        string `json:"branch"`
			Path          string `json:"path"`
			Removed       bool   `json:"removed"`
			BranchDeleted bool   `json:"branchDeleted"`
		}{Branch: branch, Path: path, Removed: true, BranchDeleted: branchDeleted}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Closed worktree %q\n", branch)
	if branchDeleted {
		fmt.Printf("Deleted branch %q\n", branch)
	}
}
