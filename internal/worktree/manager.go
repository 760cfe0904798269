package worktree

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mmr-tortoise/treetab/internal/model"
)

// Manager provides Git worktree operations by invoking the git CLI.
//
// It is currently stateless — all methods receive the repository or
// worktree path as a parameter. The struct exists as a receiver to
// support future extensions such as a configurable git binary path.
type Manager struct{}

// NewManager creates a new worktree Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// Add creates a Git worktree at the specified path.
//
// A branch that does not exist yet is created from baseBranch, or from
// HEAD when baseBranch is empty:
//
//	git worktree add -b <branch> <worktreePath> [baseBranch]
//
// An existing branch is checked out as-is, ignoring baseBranch:
//
//	git worktree add <worktreePath> <branch>
func (m *Manager) Add(repoPath, branch, worktreePath, baseBranch string) error {
	var args []string
	if m.BranchExists(repoPath, branch) {
		args = []string{"worktree", "add", worktreePath, branch}
	} else {
		args = []string{"worktree", "add", "-b", branch, worktreePath}
		if baseBranch != "" {
			args = append(args, baseBranch)
		}
	}

	_, err := runGit(repoPath, args...)
	return err
}

// List returns all worktrees associated with the given repository.
//
// It runs `git worktree list --porcelain` which produces machine-parseable
// output. Each worktree block is separated by a blank line. Within a block,
// each line is a space-separated key-value pair:
//
//	worktree /path/to/dir
//	HEAD abc123
//	branch refs/heads/main
//
// Special markers like "bare" or "detached" appear as standalone keywords.
// Paths are canonicalized and the Name field is filled with the path
// basename; Dirty/Ahead/Behind are left zero — callers that need them use
// IsDirty and AheadBehind per worktree.
func (m *Manager) List(repoPath string) ([]model.Worktree, error) {
	output, err := runGit(repoPath, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}

	return parsePorcelainOutput(output), nil
}

// Remove deletes a Git worktree at the specified path.
//
// This runs `git worktree remove <worktreePath>`. If force is true, the
// --force flag is added so git removes the worktree even with untracked
// files or uncommitted changes present. The safety checks against dirty
// or unpushed worktrees live in the CLI layer, not here.
func (m *Manager) Remove(repoPath, worktreePath string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, worktreePath)

	_, err := runGit(repoPath, args...)
	return err
}

// DeleteBranch deletes a local branch after its worktree has been removed.
// With force true it uses -D (delete even if unmerged), otherwise -d.
func (m *Manager) DeleteBranch(repoPath, branch string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := runGit(repoPath, "branch", flag, branch)
	return err
}

// RepoRoot returns the absolute path to the top-level directory of the
// Git repository containing the given path.
//
// Uses `git rev-parse --show-toplevel`, which works for both the main
// repository and worktrees — it returns the root of whichever working
// tree contains the specified path.
func (m *Manager) RepoRoot(path string) (string, error) {
	output, err := runGit(path, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// CurrentBranch returns the name of the currently checked-out branch at
// the given path.
//
// Uses `git rev-parse --abbrev-ref HEAD` which returns the short branch
// name (e.g., "main" instead of "refs/heads/main"). Returns "HEAD" when
// the repository is in a detached HEAD state.
func (m *Manager) CurrentBranch(path string) (string, error) {
	output, err := runGit(path, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// DefaultBranch determines the repository's default branch.
//
// It first consults `git symbolic-ref refs/remotes/origin/HEAD`, which is
// set on clone. Repositories without an origin remote fall back to
// whichever of "main" or "master" exists locally, and finally to "main".
func (m *Manager) DefaultBranch(repoPath string) string {
	output, err := runGit(repoPath, "symbolic-ref", "refs/remotes/origin/HEAD")
	if err == nil {
		ref := strings.TrimSpace(output)
		if name, ok := strings.CutPrefix(ref, "refs/remotes/origin/"); ok && name != "" {
			return name
		}
	}

	for _, name := range []string{"main", "master"} {
		if m.BranchExists(repoPath, name) {
			return name
		}
	}
	return "main"
}

// BranchExists checks whether a local branch with the given name exists.
//
// Uses `git rev-parse --verify refs/heads/<branch>` which exits non-zero
// when the ref does not exist. Only the exit code matters here.
func (m *Manager) BranchExists(repoPath, branch string) bool {
	_, err := runGit(repoPath, "rev-parse", "--verify", "refs/heads/"+branch)
	return err == nil
}

// IsDirty reports whether the worktree at the given path has uncommitted
// changes — staged, unstaged, or untracked. Any non-empty output from
// `git status --porcelain` counts as dirty.
func (m *Manager) IsDirty(worktreePath string) (bool, error) {
	output, err := runGit(worktreePath, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(output) != "", nil
}

// AheadBehind returns how many commits the worktree's branch is ahead of
// and behind its upstream, using:
//
//	git rev-list --left-right --count @{upstream}...HEAD
//
// The left count is commits only on the upstream (behind), the right
// count commits only on HEAD (ahead). A worktree without a configured
// upstream returns (0, 0) with no error — there is nothing to be ahead
// or behind of, and destructive-operation guards treat that as safe.
func (m *Manager) AheadBehind(worktreePath string) (ahead, behind int, err error) {
	output, gitErr := runGit(worktreePath, "rev-list", "--left-right", "--count", "@{upstream}...HEAD")
	if gitErr != nil {
		// No upstream configured. git exits 128 with "no upstream" on
		// stderr; treat it the same as an up-to-date branch.
		return 0, 0, nil
	}

	fields := strings.Fields(strings.TrimSpace(output))
	if len(fields) != 2 {
		return 0, 0, model.NewCLIError(model.ExitGitError,
			fmt.Sprintf("unexpected rev-list output: %q", strings.TrimSpace(output)))
	}

	behind, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, model.WrapCLIError(model.ExitGitError, "failed to parse rev-list count", err)
	}
	ahead, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, model.WrapCLIError(model.ExitGitError, "failed to parse rev-list count", err)
	}
	return ahead, behind, nil
}

// HasUnpushedCommits reports whether the worktree's branch has commits
// its upstream does not. Worktrees without an upstream report false.
func (m *Manager) HasUnpushedCommits(worktreePath string) (bool, error) {
	ahead, _, err := m.AheadBehind(worktreePath)
	if err != nil {
		return false, err
	}
	return ahead > 0, nil
}

// Find resolves a user-supplied query (branch name, path, or path
// basename) against a worktree list. Returns nil when nothing matches.
// The first match in worktree-list order wins.
func Find(worktrees []model.Worktree, query string) *model.Worktree {
	for i := range worktrees {
		if worktrees[i].Matches(query) {
			return &worktrees[i]
		}
	}
	return nil
}

// runGit executes a git command with the given arguments in the specified
// directory.
//
// It captures stdout and stderr separately. On success it returns stdout.
// On failure it returns a model.CLIError with ExitGitError, including the
// stderr output in the error message.
//
// The repoPath parameter is passed via the -C flag, which causes git to
// change to that directory before doing anything else, so the process's
// own working directory never changes.
func runGit(repoPath string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)

	// #nosec G204 — args are constructed internally, not from user input
	cmd := exec.Command("git", fullArgs...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		message := fmt.Sprintf("git %s failed", strings.Join(args, " "))
		if stderrStr != "" {
			message = fmt.Sprintf("%s: %s", message, stderrStr)
		}
		return "", model.WrapCLIError(model.ExitGitError, message, err)
	}

	return stdout.String(), nil
}

// parsePorcelainOutput parses the output of `git worktree list --porcelain`
// into a slice of model.Worktree values.
//
// The porcelain format uses blank lines to separate worktree blocks.
// Each block contains key-value pairs (space-separated) and optional
// standalone markers like "bare" or "detached".
//
// Example input:
//
//	worktree /path/to/main
//	HEAD abc123
//	branch refs/heads/main
//
//	worktree /path/to/feature
//	HEAD def456
//	detached
func parsePorcelainOutput(output string) []model.Worktree {
	var worktrees []model.Worktree

	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")

	var current *model.Worktree
	flush := func() {
		if current == nil {
			return
		}
		current.Path = model.CanonicalPath(current.Path)
		current.Name = filepath.Base(current.Path)
		worktrees = append(worktrees, *current)
		current = nil
	}

	for _, line := range lines {
		// A blank line signals the end of a worktree block.
		if line == "" {
			flush()
			continue
		}

		// Standalone markers have no value; Cut leaves value empty for them.
		key, value, _ := strings.Cut(line, " ")

		switch key {
		case "worktree":
			flush()
			current = &model.Worktree{Path: value}
		case "HEAD":
			if current != nil {
				current.HEAD = value
			}
		case "branch":
			if current != nil {
				current.Branch = strings.TrimPrefix(value, "refs/heads/")
			}
		case "bare":
			if current != nil {
				current.IsBare = true
			}
		case "detached":
			if current != nil {
				current.IsDetached = true
			}
		}
	}

	flush()
	return worktrees
}
