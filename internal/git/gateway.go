// Package git is the gateway between gbm and the git executable. Every
// method maps to a small, fixed set of git invocations so callers can reason
// about the cost of a refresh.
package git

import (
	"context"
	"strings"
)

// Repo runs branch queries and mutations against one repository.
type Repo struct {
	runner *Runner
}

// NewRepo creates a Repo rooted at dir.
func NewRepo(dir string) *Repo {
	return &Repo{runner: NewRunner(dir)}
}

// Dir returns the directory git commands run in.
func (r *Repo) Dir() string {
	return r.runner.Dir()
}

// UserEmail returns the configured user.email, or "" when unset.
func (r *Repo) UserEmail(ctx context.Context) (string, error) {
	out, err := r.runner.Run(ctx, "config", "--get", "user.email")
	if err != nil {
		// git config exits 1 for a missing key
		if exitCode(err) == 1 {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// FetchAll fetches and prunes every configured remote.
func (r *Repo) FetchAll(ctx context.Context) error {
	_, err := r.runner.Run(ctx, "fetch", "--all", "--prune")
	return err
}
