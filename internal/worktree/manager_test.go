package worktree

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/treetab/internal/model"
)

// setupTestRepo creates a temporary directory with an initialized Git
// repository containing a single commit. Most git worktree commands
// require at least one commit to exist, so this is the baseline fixture
// for every Manager test.
//
// The repo is initialized with `-b main` so the default branch name does
// not depend on the host's init.defaultBranch setting. A local user.name
// and user.email are configured so `git commit` works in CI environments
// without global git config.
func setupTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	runTestGit(t, dir, "init", "-b", "main")
	runTestGit(t, dir, "config", "user.email", "test@example.com")
	runTestGit(t, dir, "config", "user.name", "Test User")

	initialFile := filepath.Join(dir, "README.md")
	err := os.WriteFile(initialFile, []byte("# Test Repo\n"), 0644)
	require.NoError(t, err, "failed to create initial file")

	runTestGit(t, dir, "add", ".")
	runTestGit(t, dir, "commit", "-m", "initial commit")

	return dir
}

// runTestGit is a test helper that runs a git command in the specified
// directory and fails the test immediately on a non-zero exit status.
func runTestGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(output))
	return string(output)
}

// writeTestFile writes content to a file inside the given directory,
// failing the test on error.
func writeTestFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

// TestAdd verifies that Manager.Add creates a new worktree with a new
// branch, checked out at the requested path.
func TestAdd(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	worktreePath := filepath.Join(t.TempDir(), "feature-branch")

	err := m.Add(repoPath, "feature-branch", worktreePath, "")
	require.NoError(t, err, "Add should succeed for a new branch")

	_, statErr := os.Stat(worktreePath)
	assert.NoError(t, statErr, "worktree directory should exist after Add")

	branch, err := m.CurrentBranch(worktreePath)
	require.NoError(t, err)
	assert.Equal(t, "feature-branch", branch)
}

// TestAddWithBaseBranch verifies that Add creates the new branch from an
// explicit base branch rather than HEAD.
func TestAddWithBaseBranch(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	// Put a commit on a side branch, then base the new worktree on main.
	runTestGit(t, repoPath, "checkout", "-b", "side")
	writeTestFile(t, repoPath, "side.txt", "side\n")
	runTestGit(t, repoPath, "add", ".")
	runTestGit(t, repoPath, "commit", "-m", "side commit")
	runTestGit(t, repoPath, "checkout", "main")

	worktreePath := filepath.Join(t.TempDir(), "from-main")
	err := m.Add(repoPath, "from-main", worktreePath, "main")
	require.NoError(t, err)

	// The new worktree must not contain the side branch's file.
	_, statErr := os.Stat(filepath.Join(worktreePath, "side.txt"))
	assert.True(t, os.IsNotExist(statErr), "worktree based on main should not have side.txt")
}

// TestAddExistingBranch verifies that Add checks out a branch that
// already exists instead of trying to re-create it with -b.
func TestAddExistingBranch(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	// Put a commit on the existing branch so the checkout is observable.
	runTestGit(t, repoPath, "checkout", "-b", "existing")
	writeTestFile(t, repoPath, "existing.txt", "existing\n")
	runTestGit(t, repoPath, "add", ".")
	runTestGit(t, repoPath, "commit", "-m", "existing commit")
	runTestGit(t, repoPath, "checkout", "main")

	worktreePath := filepath.Join(t.TempDir(), "existing-wt")
	err := m.Add(repoPath, "existing", worktreePath, "")
	require.NoError(t, err, "Add should check out an existing branch")

	branch, err := m.CurrentBranch(worktreePath)
	require.NoError(t, err)
	assert.Equal(t, "existing", branch)

	_, statErr := os.Stat(filepath.Join(worktreePath, "existing.txt"))
	assert.NoError(t, statErr, "worktree should contain the branch's content")
}

// TestAddExistingBranchIgnoresBase verifies that baseBranch has no
// effect when the branch already exists.
func TestAddExistingBranchIgnoresBase(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	runTestGit(t, repoPath, "branch", "taken")

	worktreePath := filepath.Join(t.TempDir(), "taken-wt")
	require.NoError(t, m.Add(repoPath, "taken", worktreePath, "main"))

	branch, err := m.CurrentBranch(worktreePath)
	require.NoError(t, err)
	assert.Equal(t, "taken", branch)
}

// TestList verifies that List returns the main worktree plus any added
// worktrees, with short branch names and basenames filled in.
func TestList(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	worktreePath := filepath.Join(t.TempDir(), "feature-list")
	require.NoError(t, m.Add(repoPath, "feature-list", worktreePath, ""))

	worktrees, err := m.List(repoPath)
	require.NoError(t, err)
	require.Len(t, worktrees, 2)

	main := worktrees[0]
	assert.Equal(t, model.CanonicalPath(repoPath), main.Path)
	assert.Equal(t, "main", main.Branch)
	assert.NotEmpty(t, main.HEAD)

	feature := worktrees[1]
	assert.Equal(t, model.CanonicalPath(worktreePath), feature.Path)
	assert.Equal(t, "feature-list", feature.Branch)
	assert.Equal(t, "feature-list", feature.Name)
	assert.False(t, feature.IsDetached)
}

// TestListDetached verifies that a detached-HEAD worktree is reported
// with the detached marker and an empty branch.
func TestListDetached(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	worktreePath := filepath.Join(t.TempDir(), "detached-wt")
	runTestGit(t, repoPath, "worktree", "add", "--detach", worktreePath)

	worktrees, err := m.List(repoPath)
	require.NoError(t, err)
	require.Len(t, worktrees, 2)

	detached := worktrees[1]
	assert.True(t, detached.IsDetached)
	assert.Empty(t, detached.Branch)
	assert.Equal(t, "detached", detached.DisplayBranch())
}

// TestRemove verifies that Remove deletes a clean worktree.
func TestRemove(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	worktreePath := filepath.Join(t.TempDir(), "to-remove")
	require.NoError(t, m.Add(repoPath, "to-remove", worktreePath, ""))

	err := m.Remove(repoPath, worktreePath, false)
	require.NoError(t, err)

	_, statErr := os.Stat(worktreePath)
	assert.True(t, os.IsNotExist(statErr), "worktree directory should be gone after Remove")
}

// TestRemoveDirtyRequiresForce verifies git's own refusal to remove a
// worktree with untracked files, and that --force overrides it.
func TestRemoveDirtyRequiresForce(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	worktreePath := filepath.Join(t.TempDir(), "dirty-wt")
	require.NoError(t, m.Add(repoPath, "dirty-wt", worktreePath, ""))
	writeTestFile(t, worktreePath, "untracked.txt", "scratch\n")

	err := m.Remove(repoPath, worktreePath, false)
	require.Error(t, err, "Remove without force should fail on a dirty worktree")

	err = m.Remove(repoPath, worktreePath, true)
	require.NoError(t, err, "Remove with force should succeed")
}

// TestDeleteBranch verifies branch deletion after worktree removal,
// including the -D force path for unmerged branches.
func TestDeleteBranch(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	worktreePath := filepath.Join(t.TempDir(), "short-lived")
	require.NoError(t, m.Add(repoPath, "short-lived", worktreePath, ""))

	// Commit on the branch so a plain -d would refuse (unmerged).
	writeTestFile(t, worktreePath, "work.txt", "wip\n")
	runTestGit(t, worktreePath, "add", ".")
	runTestGit(t, worktreePath, "-c", "user.email=test@example.com", "-c", "user.name=Test User", "commit", "-m", "wip")

	require.NoError(t, m.Remove(repoPath, worktreePath, true))

	err := m.DeleteBranch(repoPath, "short-lived", false)
	require.Error(t, err, "-d should refuse to delete an unmerged branch")
	assert.True(t, m.BranchExists(repoPath, "short-lived"))

	require.NoError(t, m.DeleteBranch(repoPath, "short-lived", true))
	assert.False(t, m.BranchExists(repoPath, "short-lived"))
}

// TestRepoRoot verifies top-level resolution from a subdirectory.
func TestRepoRoot(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	subdir := filepath.Join(repoPath, "sub", "dir")
	require.NoError(t, os.MkdirAll(subdir, 0755))

	root, err := m.RepoRoot(subdir)
	require.NoError(t, err)
	assert.Equal(t, model.CanonicalPath(repoPath), model.CanonicalPath(root))
}

// TestRepoRootOutsideRepo verifies the error path for non-repositories.
func TestRepoRootOutsideRepo(t *testing.T) {
	m := NewManager()

	_, err := m.RepoRoot(t.TempDir())
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitGitError, cliErr.Code)
}

// TestDefaultBranch verifies the fallback chain when no origin remote is
// configured: an existing "main" branch wins.
func TestDefaultBranch(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	assert.Equal(t, "main", m.DefaultBranch(repoPath))
}

// TestBranchExists covers both the positive and negative cases.
func TestBranchExists(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	assert.True(t, m.BranchExists(repoPath, "main"))
	assert.False(t, m.BranchExists(repoPath, "nope"))
}

// TestIsDirty verifies the uncommitted-changes check for clean trees,
// untracked files, and modified tracked files.
func TestIsDirty(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	dirty, err := m.IsDirty(repoPath)
	require.NoError(t, err)
	assert.False(t, dirty, "fresh repo should be clean")

	writeTestFile(t, repoPath, "scratch.txt", "untracked\n")
	dirty, err = m.IsDirty(repoPath)
	require.NoError(t, err)
	assert.True(t, dirty, "untracked file should count as dirty")

	require.NoError(t, os.Remove(filepath.Join(repoPath, "scratch.txt")))
	writeTestFile(t, repoPath, "README.md", "# modified\n")
	dirty, err = m.IsDirty(repoPath)
	require.NoError(t, err)
	assert.True(t, dirty, "modified tracked file should count as dirty")
}

// TestAheadBehindNoUpstream verifies that a branch without an upstream
// reports (0, 0) and no error, so the unpushed-commits guard passes.
func TestAheadBehindNoUpstream(t *testing.T) {
	repoPath := setupTestRepo(t)
	m := NewManager()

	ahead, behind, err := m.AheadBehind(repoPath)
	require.NoError(t, err)
	assert.Zero(t, ahead)
	assert.Zero(t, behind)

	unpushed, err := m.HasUnpushedCommits(repoPath)
	require.NoError(t, err)
	assert.False(t, unpushed)
}

// TestAheadBehindWithUpstream clones the fixture repo so the clone's
// branch tracks origin, then commits locally to move ahead of it.
func TestAheadBehindWithUpstream(t *testing.T) {
	upstream := setupTestRepo(t)
	m := NewManager()

	clonePath := filepath.Join(t.TempDir(), "clone")
	cmd := exec.Command("git", "clone", upstream, clonePath)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git clone failed: %s", string(output))
	runTestGit(t, clonePath, "config", "user.email", "test@example.com")
	runTestGit(t, clonePath, "config", "user.name", "Test User")

	ahead, behind, err := m.AheadBehind(clonePath)
	require.NoError(t, err)
	assert.Zero(t, ahead)
	assert.Zero(t, behind)

	writeTestFile(t, clonePath, "local.txt", "local work\n")
	runTestGit(t, clonePath, "add", ".")
	runTestGit(t, clonePath, "commit", "-m", "local commit")

	ahead, behind, err = m.AheadBehind(clonePath)
	require.NoError(t, err)
	assert.Equal(t, 1, ahead)
	assert.Zero(t, behind)

	unpushed, err := m.HasUnpushedCommits(clonePath)
	require.NoError(t, err)
	assert.True(t, unpushed)
}

// TestFind verifies worktree resolution by branch, path, and basename,
// and that the first match in list order wins.
func TestFind(t *testing.T) {
	worktrees := []model.Worktree{
		{Name: "repo", Path: "/home/dev/repo", Branch: "main"},
		{Name: "feature-auth", Path: "/home/dev/feature-auth", Branch: "feature/auth"},
		{Name: "hotfix", Path: "/home/dev/hotfix", IsDetached: true},
	}

	byBranch := Find(worktrees, "feature/auth")
	require.NotNil(t, byBranch)
	assert.Equal(t, "/home/dev/feature-auth", byBranch.Path)

	byPath := Find(worktrees, "/home/dev/hotfix")
	require.NotNil(t, byPath)
	assert.Equal(t, "hotfix", byPath.Name)

	byBase := Find(worktrees, "feature-auth")
	require.NotNil(t, byBase)
	assert.Equal(t, "feature/auth", byBase.Branch)

	assert.Nil(t, Find(worktrees, "missing"))
	assert.Nil(t, Find(nil, "anything"))
}

// TestParsePorcelainOutput exercises the porcelain parser with bare,
// detached, and trailing-block edge cases without touching git.
func TestParsePorcelainOutput(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []model.Worktree
	}{
		{
			name:   "empty output",
			input:  "",
			expect: nil,
		},
		{
			name: "single worktree with branch",
			input: "worktree /repo\n" +
				"HEAD abc123\n" +
				"branch refs/heads/main\n",
			expect: []model.Worktree{
				{Name: "repo", Path: "/repo", Branch: "main", HEAD: "abc123"},
			},
		},
		{
			name: "multiple blocks with detached",
			input: "worktree /repo\n" +
				"HEAD abc123\n" +
				"branch refs/heads/main\n" +
				"\n" +
				"worktree /repo-fix\n" +
				"HEAD def456\n" +
				"detached\n",
			expect: []model.Worktree{
				{Name: "repo", Path: "/repo", Branch: "main", HEAD: "abc123"},
				{Name: "repo-fix", Path: "/repo-fix", HEAD: "def456", IsDetached: true},
			},
		},
		{
			name: "bare entry",
			input: "worktree /repo.git\n" +
				"bare\n",
			expect: []model.Worktree{
				{Name: "repo.git", Path: "/repo.git", IsBare: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePorcelainOutput(tt.input)
			assert.Equal(t, tt.expect, got)
		})
	}
}
