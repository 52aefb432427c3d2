package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/daveschumaker/gbm/internal/models"
)

// StashPush stashes tracked and untracked changes under message. It returns
// nil when git found nothing to stash, which shows as an unchanged
// refs/stash.
func (r *Repo) StashPush(ctx context.Context, message string) (*models.Stash, error) {
	before, err := r.stashHead(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := r.runner.Run(ctx, "stash", "push", "--include-untracked", "-m", message); err != nil {
		return nil, err
	}
	after, err := r.stashHead(ctx)
	if err != nil {
		return nil, err
	}
	if after == "" || after == before {
		return nil, nil
	}
	stashes, err := r.stashList(ctx, "--max-count=1")
	if err != nil {
		return nil, err
	}
	if len(stashes) == 0 || stashes[0].Hash != after {
		return nil, fmt.Errorf("stash %s not found after push", after)
	}
	return &stashes[0], nil
}

// stashHead returns the commit refs/stash points at, or "" with no stashes.
func (r *Repo) stashHead(ctx context.Context) (string, error) {
	out, err := r.runner.Run(ctx, "rev-parse", "-q", "--verify", "refs/stash")
	if err != nil {
		if exitCode(err) == 1 {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// StashPop applies and drops the stash at ref.
func (r *Repo) StashPop(ctx context.Context, ref string) error {
	_, err := r.runner.Run(ctx, "stash", "pop", ref)
	return err
}

// StashList returns every stash entry, newest first.
func (r *Repo) StashList(ctx context.Context) ([]models.Stash, error) {
	return r.stashList(ctx)
}

func (r *Repo) stashList(ctx context.Context, extra ...string) ([]models.Stash, error) {
	args := append([]string{"stash", "list", "--format=%gd%x1f%H%x1f%gs"}, extra...)
	lines, err := r.runner.Lines(ctx, args...)
	if err != nil {
		return nil, err
	}
	stashes := make([]models.Stash, 0, len(lines))
	for _, line := range lines {
		s, err := parseStash(line)
		if err != nil {
			return nil, err
		}
		stashes = append(stashes, s)
	}
	return stashes, nil
}

func parseStash(line string) (models.Stash, error) {
	parts := strings.SplitN(line, fieldSep, 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return models.Stash{}, fmt.Errorf("malformed stash entry %q", line)
	}
	return models.Stash{
		Ref:     parts[0],
		Hash:    parts[1],
		Message: parts[2],
		Branch:  models.StashBranch(parts[2]),
	}, nil
}
