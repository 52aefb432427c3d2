package models

import "strings"

// StashMarker tags every stash gbm creates.
const StashMarker = "Stashed by git-branch-manager"

const branchTagPrefix = " (branch: "

// Stash is an entry of `git stash list`.
type Stash struct {
	Ref     string // stash@{n}; shifts as other stashes come and go
	Hash    string
	Message string
	Branch  string // branch tag when the stash was made by gbm
}

// Owned reports whether the stash was created by gbm.
func (s Stash) Owned() bool {
	return s.Branch != ""
}

// StashMessage builds the message for a stash taken while on branch.
func StashMessage(branch string) string {
	return StashMarker + branchTagPrefix + branch + ")"
}

// StashBranch extracts the branch tag from a stash message, or "" when the
// stash was not created by gbm.
func StashBranch(message string) string {
	idx := strings.Index(message, StashMarker+branchTagPrefix)
	if idx < 0 {
		return ""
	}
	rest := message[idx+len(StashMarker)+len(branchTagPrefix):]
	end := strings.LastIndex(rest, ")")
	if end <= 0 {
		return ""
	}
	return rest[:end]
}
