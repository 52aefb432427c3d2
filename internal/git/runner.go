package git

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	gbmerrors "github.com/daveschumaker/gbm/internal/errors"
	"github.com/daveschumaker/gbm/internal/log"
)

// DefaultCommandTimeout bounds a git call whose context carries no deadline.
const DefaultCommandTimeout = 5 * time.Minute

// Runner executes git inside one working directory.
type Runner struct {
	dir string
}

// NewRunner creates a Runner for dir. An empty dir means the process cwd.
func NewRunner(dir string) *Runner {
	return &Runner{dir: dir}
}

// Dir returns the working directory.
func (r *Runner) Dir() string {
	return r.dir
}

// Run executes git and returns its trimmed stdout.
func (r *Runner) Run(ctx context.Context, args ...string) (string, error) {
	out, err := r.run(ctx, args)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// RunRaw executes git and returns stdout untouched.
func (r *Runner) RunRaw(ctx context.Context, args ...string) (string, error) {
	return r.run(ctx, args)
}

// Lines executes git and splits the output into non-empty lines.
func (r *Runner) Lines(ctx context.Context, args ...string) ([]string, error) {
	out, err := r.run(ctx, args)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func (r *Runner) run(ctx context.Context, args []string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCommandTimeout)
		defer cancel()
	}

	command := strings.Join(args, " ")
	log.Debug("git run", "args", command, "dir", r.dir)
	start := time.Now()

	// #nosec G204 -- arguments are built by this package, never shell interpolated
	cmd := exec.CommandContext(ctx, "git", args...)
	if r.dir != "" {
		cmd.Dir = r.dir
	}
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		log.Debug("git error", "args", command, "stderr", strings.TrimSpace(stderr.String()), "err", err)
		return "", gbmerrors.NewGitCommandError(args, stdout.String(), stderr.String(), err)
	}

	log.Debug("git ok", "args", command, "took", time.Since(start))
	return stdout.String(), nil
}

// exitCode extracts the process exit status from a runner error, or -1.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if gbmerrors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
