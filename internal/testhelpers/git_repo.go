// Package testhelpers provides scratch repositories and an in-memory git
// gateway for tests.
package testhelpers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// BaseTime is the commit time of the initial commit in every GitRepo.
var BaseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// GitRepo is a throwaway repository on disk.
type GitRepo struct {
	Dir string
	t   testing.TB
}

// NewGitRepo initializes a repository on branch main with one commit.
// Global and system git config are ignored for the rest of the test.
func NewGitRepo(t testing.TB) *GitRepo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git executable not available")
	}
	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")

	dir := t.TempDir()
	// resolve symlinked temp dirs (macOS) so paths compare equal to git's
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}

	repo := &GitRepo{Dir: dir, t: t}
	repo.Git("-c", "init.defaultBranch=main", "init", "-b", "main", ".")
	repo.Git("config", "user.name", "Test User")
	repo.Git("config", "user.email", "test@example.com")
	repo.Git("config", "core.autocrlf", "false")
	repo.CommitAt("initial commit", BaseTime)
	return repo
}

// TryGit runs git in the repository and returns trimmed stdout.
func (r *GitRepo) TryGit(args ...string) (string, error) {
	return r.gitWithEnv(nil, args...)
}

// Git runs git and fails the test on error.
func (r *GitRepo) Git(args ...string) string {
	r.t.Helper()
	out, err := r.TryGit(args...)
	require.NoError(r.t, err, "git %s", strings.Join(args, " "))
	return out
}

func (r *GitRepo) gitWithEnv(env []string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), env...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// WriteFile writes content to a file relative to the repository root.
func (r *GitRepo) WriteFile(name, content string) {
	r.t.Helper()
	path := filepath.Join(r.Dir, name)
	require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(r.t, os.WriteFile(path, []byte(content), 0o600))
}

// ReadFile reads a file relative to the repository root.
func (r *GitRepo) ReadFile(name string) string {
	r.t.Helper()
	data, err := os.ReadFile(filepath.Join(r.Dir, name)) // #nosec G304 -- test fixture path
	require.NoError(r.t, err)
	return string(data)
}

// CommitAt records a commit touching a file named after message, with both
// author and committer dates set to when. It returns the full hash.
func (r *GitRepo) CommitAt(message string, when time.Time) string {
	r.t.Helper()
	file := strings.ReplaceAll(message, " ", "_") + ".txt"
	r.WriteFile(file, message+"\n")
	r.Git("add", file)

	stamp := when.Format(time.RFC3339)
	_, err := r.gitWithEnv([]string{
		"GIT_AUTHOR_DATE=" + stamp,
		"GIT_COMMITTER_DATE=" + stamp,
	}, "commit", "-q", "-m", message)
	require.NoError(r.t, err)
	return r.Git("rev-parse", "HEAD")
}

// CommitAs records a commit with a specific author email.
func (r *GitRepo) CommitAs(message, email string, when time.Time) string {
	r.t.Helper()
	r.Git("config", "user.email", email)
	defer r.Git("config", "user.email", "test@example.com")
	return r.CommitAt(message, when)
}

// Branch creates name at the current HEAD without switching to it.
func (r *GitRepo) Branch(name string) {
	r.t.Helper()
	r.Git("branch", name)
}

// Checkout switches to an existing branch.
func (r *GitRepo) Checkout(name string) {
	r.t.Helper()
	r.Git("checkout", "-q", name)
}

// CurrentBranch returns the checked out branch name.
func (r *GitRepo) CurrentBranch() string {
	r.t.Helper()
	return r.Git("branch", "--show-current")
}

// HasBranch reports whether refs/heads/name exists.
func (r *GitRepo) HasBranch(name string) bool {
	_, err := r.TryGit("rev-parse", "--verify", "--quiet", "refs/heads/"+name)
	return err == nil
}

// AddRemoteBranch creates refs/remotes/<remote>/<name> pointing at rev,
// configuring the remote first when needed. Nothing is fetched.
func (r *GitRepo) AddRemoteBranch(remote, name, rev string) {
	r.t.Helper()
	if _, err := r.TryGit("remote", "get-url", remote); err != nil {
		r.Git("remote", "add", remote, "https://example.invalid/"+remote+".git")
	}
	r.Git("update-ref", "refs/remotes/"+remote+"/"+name, rev)
}

// SetRemoteHead points refs/remotes/<remote>/HEAD at branch.
func (r *GitRepo) SetRemoteHead(remote, branch string) {
	r.t.Helper()
	r.Git("symbolic-ref", "refs/remotes/"+remote+"/HEAD", "refs/remotes/"+remote+"/"+branch)
}

// AddWorktree checks branch out in a linked worktree and returns its path.
func (r *GitRepo) AddWorktree(branch string) string {
	r.t.Helper()
	path := filepath.Join(r.t.TempDir(), branch)
	r.Git("worktree", "add", "-q", path, branch)
	return path
}
