package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/daveschumaker/gbm/internal/models"
)

const (
	headsPrefix   = "refs/heads/"
	remotesPrefix = "refs/remotes/"
	fieldSep      = "\x1f"
)

// CurrentBranch returns the checked out branch, or "" on a detached HEAD.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	return r.runner.Run(ctx, "branch", "--show-current")
}

// ListLocalBranches enumerates refs/heads. InWorktree is set for branches
// checked out in a work tree other than the one gbm runs in.
func (r *Repo) ListLocalBranches(ctx context.Context) ([]models.LocalRef, error) {
	lines, err := r.runner.Lines(ctx, "for-each-ref",
		"--format=%(HEAD)%1f%(refname)%1f%(worktreepath)", "refs/heads")
	if err != nil {
		return nil, err
	}
	return parseLocalBranches(lines), nil
}

func parseLocalBranches(lines []string) []models.LocalRef {
	var refs []models.LocalRef
	for _, line := range lines {
		parts := strings.Split(line, fieldSep)
		if len(parts) < 2 {
			continue
		}
		name := strings.TrimPrefix(parts[1], headsPrefix)
		if name == "" || name == parts[1] {
			continue
		}
		head := strings.TrimSpace(parts[0]) == "*"
		worktree := len(parts) > 2 && strings.TrimSpace(parts[2]) != ""
		refs = append(refs, models.LocalRef{
			Name:       name,
			InWorktree: worktree && !head,
		})
	}
	return refs
}

// ListRemoteBranches enumerates refs/remotes, skipping symbolic refs such as
// origin/HEAD.
func (r *Repo) ListRemoteBranches(ctx context.Context) ([]models.RemoteRef, error) {
	lines, err := r.runner.Lines(ctx, "for-each-ref",
		"--format=%(refname)%1f%(symref)", "refs/remotes")
	if err != nil {
		return nil, err
	}
	return parseRemoteBranches(lines), nil
}

func parseRemoteBranches(lines []string) []models.RemoteRef {
	var refs []models.RemoteRef
	for _, line := range lines {
		parts := strings.Split(line, fieldSep)
		if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
			continue
		}
		full := strings.TrimPrefix(parts[0], remotesPrefix)
		if full == parts[0] {
			continue
		}
		remote, _, ok := strings.Cut(full, "/")
		if !ok || strings.HasSuffix(full, "/HEAD") {
			continue
		}
		refs = append(refs, models.RemoteRef{Remote: remote, Name: full})
	}
	return refs
}

// MergedInto returns the local branches whose tips are reachable from base.
// The base itself is included.
func (r *Repo) MergedInto(ctx context.Context, base string) ([]string, error) {
	lines, err := r.runner.Lines(ctx, "for-each-ref",
		"--merged="+headsPrefix+base, "--format=%(refname)", "refs/heads")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(lines))
	for _, line := range lines {
		if name := strings.TrimPrefix(strings.TrimSpace(line), headsPrefix); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// AheadBehind counts commits on branch not on base (ahead) and on base not on
// branch (behind). Output git cannot produce sensibly yields zero counts.
func (r *Repo) AheadBehind(ctx context.Context, branch, base string) (ahead, behind int, err error) {
	target := fmt.Sprintf("%s%s...%s%s", headsPrefix, base, headsPrefix, branch)
	out, err := r.runner.Run(ctx, "rev-list", "--left-right", "--count", target)
	if err != nil {
		return 0, 0, err
	}
	ahead, behind = parseLeftRight(out)
	return ahead, behind, nil
}

// parseLeftRight reads "<behind>\t<ahead>" as printed for base...branch.
func parseLeftRight(out string) (ahead, behind int) {
	parts := strings.Fields(out)
	if len(parts) != 2 {
		return 0, 0
	}
	b, errB := strconv.Atoi(parts[0])
	a, errA := strconv.Atoi(parts[1])
	if errA != nil || errB != nil || a < 0 || b < 0 {
		return 0, 0
	}
	return a, b
}

// Checkout switches to ref. When createLocalAs is set, ref names a remote
// branch and a local tracking branch called createLocalAs is created.
func (r *Repo) Checkout(ctx context.Context, ref, createLocalAs string) error {
	args := []string{"checkout"}
	if createLocalAs != "" {
		args = append(args, "-b", createLocalAs, "--track", ref)
	} else {
		args = append(args, ref, "--")
	}
	_, err := r.runner.Run(ctx, args...)
	return err
}

// DeleteBranch deletes a local branch. force skips git's merge check.
func (r *Repo) DeleteBranch(ctx context.Context, name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := r.runner.Run(ctx, "branch", flag, name)
	return err
}

// RenameBranch renames a local branch without overwriting an existing one.
func (r *Repo) RenameBranch(ctx context.Context, oldName, newName string) error {
	_, err := r.runner.Run(ctx, "branch", "-m", oldName, newName)
	return err
}
