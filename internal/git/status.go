package git

import (
	"bufio"
	"context"
	"strings"

	"github.com/daveschumaker/gbm/internal/models"
)

// WorkingTreeStatus returns the changed files of the current work tree.
func (r *Repo) WorkingTreeStatus(ctx context.Context) ([]models.FileChange, error) {
	out, err := r.runner.RunRaw(ctx, "status", "--porcelain=v1")
	if err != nil {
		return nil, err
	}
	return parseStatus(out), nil
}

// WorkingTreeDirty reports tracked modifications or untracked files.
func (r *Repo) WorkingTreeDirty(ctx context.Context) (bool, error) {
	files, err := r.WorkingTreeStatus(ctx)
	if err != nil {
		return false, err
	}
	return len(files) > 0, nil
}

// parseStatus parses git status --porcelain output
// Format: XY PATH
// X = staged status, Y = working tree status
func parseStatus(output string) []models.FileChange {
	var files []models.FileChange
	scanner := bufio.NewScanner(strings.NewReader(output))

	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 4 {
			continue
		}

		stagedChar := line[0]
		workingChar := line[1]
		path := strings.TrimSpace(line[3:])

		// "R  old -> new"
		if stagedChar == 'R' || stagedChar == 'C' {
			if _, newPath, ok := strings.Cut(path, " -> "); ok {
				path = newPath
			}
		}

		file := models.FileChange{Path: path}

		if stagedChar == 'U' || workingChar == 'U' || (stagedChar == 'A' && workingChar == 'A') || (stagedChar == 'D' && workingChar == 'D') {
			file.Status = models.StatusUnmerged
			files = append(files, file)
			continue
		}

		switch stagedChar {
		case 'M':
			file.StagedStatus = models.StatusModified
			file.IsStaged = true
		case 'A':
			file.StagedStatus = models.StatusAdded
			file.IsStaged = true
		case 'D':
			file.StagedStatus = models.StatusDeleted
			file.IsStaged = true
		case 'R':
			file.StagedStatus = models.StatusRenamed
			file.IsStaged = true
		case 'C':
			file.StagedStatus = models.StatusCopied
			file.IsStaged = true
		}

		switch workingChar {
		case 'M':
			file.Status = models.StatusModified
		case 'D':
			file.Status = models.StatusDeleted
		case '?':
			file.Status = models.StatusUntracked
			file.IsUntracked = true
		}

		files = append(files, file)
	}

	return files
}
