package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// ErrNotARepository is returned by Discover outside a git work tree.
var ErrNotARepository = errors.New("not a git repository")

// Location describes where a repository lives on disk.
type Location struct {
	WorkTree  string // top-level directory of the checked out tree
	GitDir    string // .git directory, or .git/worktrees/<name> for linked worktrees
	CommonDir string // shared directory holding refs; equals GitDir outside linked worktrees
}

// Discover finds the repository containing path, walking up like git does.
func Discover(path string) (*Location, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	repo, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, ErrNotARepository
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		// bare repositories have no branches to check out
		return nil, fmt.Errorf("%w: %v", ErrNotARepository, err)
	}

	loc := &Location{WorkTree: wt.Filesystem.Root()}
	loc.GitDir = filepath.Join(loc.WorkTree, ".git")
	if fs, ok := repo.Storer.(*filesystem.Storage); ok {
		loc.GitDir = fs.Filesystem().Root()
	}
	loc.GitDir = resolveGitFile(loc.WorkTree, loc.GitDir)
	loc.CommonDir = resolveCommonDir(loc.GitDir)
	return loc, nil
}

// resolveGitFile follows a "gitdir: <path>" file, as found in linked worktrees.
func resolveGitFile(workTree, gitDir string) string {
	dotGit := filepath.Join(workTree, ".git")
	info, err := os.Stat(dotGit)
	if err != nil || info.IsDir() {
		return gitDir
	}
	data, err := os.ReadFile(dotGit) // #nosec G304 -- fixed name inside the work tree
	if err != nil {
		return gitDir
	}
	target := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(string(data)), "gitdir:"))
	if target == "" {
		return gitDir
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(workTree, target)
	}
	return filepath.Clean(target)
}

func resolveCommonDir(gitDir string) string {
	data, err := os.ReadFile(filepath.Join(gitDir, "commondir")) // #nosec G304 -- fixed name inside the git dir
	if err != nil {
		return gitDir
	}
	common := strings.TrimSpace(string(data))
	if !filepath.IsAbs(common) {
		common = filepath.Join(gitDir, common)
	}
	return filepath.Clean(common)
}
