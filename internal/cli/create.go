// Package cli — create.go implements the "treetab create" command.
//
// The create command is the primary user-facing operation. It creates a
// Git worktree on a new branch and opens it in iTerm2, optionally
// launching the configured AI assistant in the fresh session.
//
// Orchestration steps:
//  1. Detect the source repository and load configuration
//  2. Determine the base branch (default branch, --base, or --from-current)
//  3. Determine the worktree path (sibling dir, worktreeDir, or --path)
//  4. Validate that neither the branch nor the path already exists
//  5. Create the Git worktree
//  6. Open it in iTerm2 (unless --no-open), optionally with the assistant
//  7. Output results (text or JSON)
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/treetab/internal/iterm"
	"github.com/mmr-tortoise/treetab/internal/model"
	"github.com/mmr-tortoise/treetab/internal/worktree"
)

// createFlags holds the flag values for the create command.
// These are bound to cobra flags in NewCreateCommand.
type createFlags struct {
	base        string // --base: base branch for the new branch
	fromCurrent bool   // --from-current: branch from the checked-out branch
	path        string // --path: custom worktree directory path
	mode        string // --mode: tab / window / pane-right / pane-below
	noOpen      bool   // --no-open: skip iTerm2 entirely
	assistant   bool   // --assistant: run the AI assistant in the new session
	task        string // --task: task prompt for the assistant
}

// NewCreateCommand creates the "create" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewCreateCommand() *cobra.Command {
	flags := &createFlags{}

	cmd := &cobra.Command{
		Use:   "create <branch>",
		Short: "Create a new worktree and open it in iTerm2",
		Long: `Create a Git worktree on a new branch and open it in iTerm2.

The new branch is based on the repository's default branch unless --base
or --from-current says otherwise. The worktree directory defaults to a
sibling of the repository root named after the branch.

Examples:
  treetab create feature-auth
  treetab create --base develop bugfix-login
  treetab create --from-current stacked-change
  treetab create --mode pane-right quick-fix
  treetab create --assistant --task "implement the login flow" feature-login`,

		Args: cobra.ExactArgs(1),

		// RunE is used instead of Run so errors reach the Execute
		// error handler in root.go.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.base, "base", "b", "", "Base branch for the new branch (default: repo default branch)")
	cmd.Flags().BoolVar(&flags.fromCurrent, "from-current", false, "Branch from the currently checked-out branch")
	cmd.Flags().StringVarP(&flags.path, "path", "p", "", "Worktree directory path (default: ../<branch>)")
	cmd.Flags().StringVarP(&flags.mode, "mode", "m", "", "How to open in iTerm2: tab, window, pane-right, pane-below")
	cmd.Flags().BoolVar(&flags.noOpen, "no-open", false, "Create the worktree without opening iTerm2")
	cmd.Flags().BoolVarP(&flags.assistant, "assistant", "a", false, "Run the configured AI assistant in the new session")
	cmd.Flags().StringVarP(&flags.task, "task", "t", "", "Task prompt passed to the assistant (implies --assistant)")

	return cmd
}

// runCreate is the main orchestration function for the create command.
func runCreate(branch string, flags *createFlags) error {
	// Step 1: Locate the repository and load configuration.
	wm := worktree.NewManager()
	repoRoot, err := repoContext(wm)
	if err != nil {
		return err
	}
	VerboseLog("Source repository: %s", repoRoot)

	cfg, err := loadConfig(repoRoot)
	if err != nil {
		return err
	}

	mode, err := resolveMode(flags.mode, cfg)
	if err != nil {
		return err
	}

	// Step 2: Determine the base branch.
	baseBranch := flags.base
	switch {
	case flags.fromCurrent:
		current, branchErr := wm.CurrentBranch(repoRoot)
		if branchErr != nil {
			return branchErr
		}
		// rev-parse reports "HEAD" when detached; there is no branch to
		// base the new one on in that state.
		if current == "HEAD" {
			return model.NewCLIError(model.ExitGitError,
				"cannot use --from-current with a detached HEAD")
		}
		baseBranch = current
		VerboseLog("Branching from current branch: %s", baseBranch)
	case baseBranch == "":
		baseBranch = wm.DefaultBranch(repoRoot)
		VerboseLog("Branching from default branch: %s", baseBranch)
	}

	// Step 3: Determine the worktree path. Precedence: --path, the
	// configured worktreeDir, then a sibling of the repository root.
	// Branch names with slashes are flattened for the directory name.
	worktreePath := flags.path
	if worktreePath == "" {
		parent := cfg.ExpandedWorktreeDir()
		if parent == "" {
			parent = filepath.Dir(repoRoot)
		}
		worktreePath = filepath.Join(parent, sanitizeBranchName(branch))
	}
	worktreePath, err = filepath.Abs(worktreePath)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to resolve worktree path", err)
	}
	VerboseLog("Worktree path: %s", worktreePath)

	// Step 4: Validate before mutating anything.
	if wm.BranchExists(repoRoot, branch) {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("branch %q already exists", branch))
	}
	if _, statErr := os.Stat(worktreePath); statErr == nil {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("path %q already exists", worktreePath))
	}

	// Step 5: Create the worktree.
	VerboseLog("Creating worktree for branch %q from %q...", branch, baseBranch)
	if addErr := wm.Add(repoRoot, branch, worktreePath, baseBranch); addErr != nil {
		return addErr
	}

	// Step 6: Open in iTerm2 (unless --no-open).
	opened := false
	if !flags.noOpen {
		command := assistantCommand(cfg, flags.assistant, flags.task)
		VerboseLog("Opening in iTerm2 (%s)...", mode)
		if openErr := iterm.NewAutomator().Open(worktreePath, mode, command); openErr != nil {
			return openErr
		}
		opened = true
	}

	// Step 7: Output results.
	printCreateResult(branch, baseBranch, worktreePath, mode, opened)
	return nil
}

// sanitizeBranchName flattens a branch name into a single directory
// component: slashes become hyphens and anything outside
// [a-zA-Z0-9._-] is dropped.
func sanitizeBranchName(branch string) string {
	name := strings.ReplaceAll(branch, "/", "-")

	var result strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '-' || r == '_' || r == '.' {
			result.WriteRune(r)
		}
	}
	name = strings.Trim(result.String(), "-.")

	if name == "" {
		name = "worktree"
	}
	return name
}

// printCreateResult outputs the create command results in text or JSON
// format.
func printCreateResult(branch, baseBranch, worktreePath string, mode model.OpenMode, opened bool) {
	if IsJSONOutput() {
		result := struct {
			Branch string `json:"branch"`
			Base   string `json:"base"`
			Path   string `json:"path"`
			Mode   string `json:"mode"`
			Opened bool   `json:"opened"`
		}{
			Branch: branch,
			Base:   baseBranch,
			Path:   worktreePath,
			Mode:   mode.String(),
			Opened: opened,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Created worktree %q\n", branch)
	fmt.Printf("  Base:   %s\n", baseBranch)
	fmt.Printf("  Path:   %s\n", model.HomeRelative(worktreePath))
	if opened {
		fmt.Printf("  Opened: iTerm2 %s\n", mode)
	}
}
