package cli

import (
	"fmt"
	"os"

	"github.com/mmr-tortoise/treetab/internal/assistant"
	"github.com/mmr-tortoise/treetab/internal/config"
	"github.com/mmr-tortoise/treetab/internal/model"
	"github.com/mmr-tortoise/treetab/internal/worktree"
)

// repoContext resolves the repository containing the current working
// directory. Every subcommand starts here: commands operate on whichever
// repository the user is standing in.
func repoContext(wm *worktree.Manager) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	repoRoot, err := wm.RepoRoot(cwd)
	if err != nil {
		return "", model.WrapCLIError(model.ExitGitError, "not inside a Git repository", err)
	}
	return repoRoot, nil
}

// findWorktree lists the repository's worktrees and resolves the query
// (branch name, path, or path basename) against them. Returns a
// worktree-not-found CLIError when nothing matches.
func findWorktree(wm *worktree.Manager, repoRoot, query string) (*model.Worktree, error) {
	worktrees, err := wm.List(repoRoot)
	if err != nil {
		return nil, err
	}

	target := worktree.Find(worktrees, query)
	if target == nil {
		return nil, model.NewCLIError(model.ExitWorktreeNotFound,
			fmt.Sprintf("worktree %q not found", query))
	}
	return target, nil
}

// assistantCommand builds the assistant invocation for a new session, or
// an empty string when the assistant is not wanted. A task prompt implies
// the assistant even without --assistant, so a typed prompt is never
// silently dropped.
func assistantCommand(cfg *config.Config, runAssistant bool, task string) string {
	if !runAssistant && task == "" {
		return ""
	}
	if !runAssistant {
		VerboseLog("--task given without --assistant, launching the assistant")
	}
	return assistant.Command(cfg.Assistant.Program, cfg.Assistant.AllowedTools, task)
}
