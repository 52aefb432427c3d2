package models

import (
	"fmt"
	"strings"
)

type FileStatus string

const (
	StatusModified  FileStatus = "M"
	StatusAdded     FileStatus = "A"
	StatusDeleted   FileStatus = "D"
	StatusRenamed   FileStatus = "R"
	StatusCopied    FileStatus = "C"
	StatusUntracked FileStatus = "??"
	StatusUnmerged  FileStatus = "U"
)

// FileChange is a single entry of `git status --porcelain`.
type FileChange struct {
	Path         string
	Status       FileStatus // working tree
	StagedStatus FileStatus // index
	IsStaged     bool
	IsUntracked  bool
}

// ChangeSummary counts working tree entries by kind. A file with both staged
// and unstaged edits counts in both.
type ChangeSummary struct {
	Staged    int
	Unstaged  int
	Untracked int
	Unmerged  int
}

// SummarizeChanges classifies porcelain entries.
func SummarizeChanges(files []FileChange) ChangeSummary {
	var s ChangeSummary
	for _, f := range files {
		switch {
		case f.Status == StatusUnmerged:
			s.Unmerged++
			continue
		case f.IsUntracked:
			s.Untracked++
			continue
		}
		if f.IsStaged {
			s.Staged++
		}
		if f.Status != "" {
			s.Unstaged++
		}
	}
	return s
}

// Total is the number of changed entries of any kind.
func (s ChangeSummary) Total() int {
	return s.Staged + s.Unstaged + s.Untracked + s.Unmerged
}

func (s ChangeSummary) String() string {
	var parts []string
	add := func(n int, label string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, label))
		}
	}
	add(s.Unmerged, "unmerged")
	add(s.Staged, "staged")
	add(s.Unstaged, "unstaged")
	add(s.Untracked, "untracked")
	if len(parts) == 0 {
		return "clean"
	}
	return strings.Join(parts, ", ")
}
