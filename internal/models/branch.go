package models

import (
	"strings"
	"time"
)

// Branch is one row of a snapshot. Values are rebuilt wholesale on every
// refresh and never patched in place.
type Branch struct {
	Name        string // "feature/x" for local, "origin/feature/x" for remote
	RemoteName  string // "origin"; empty for local branches
	IsCurrent   bool
	IsRemote    bool
	Hash        string
	CommitTime  time.Time
	Summary     string
	AuthorEmail string

	HasUncommittedChanges bool // only ever set on the current branch
	HasUpstream           bool
	IsMerged              bool
	InWorktree            bool // checked out in a worktree other than this one
	Ahead                 int
	Behind                int
}

// ShortName strips the remote prefix from a remote branch name.
func (b Branch) ShortName() string {
	if !b.IsRemote || b.RemoteName == "" {
		return b.Name
	}
	return strings.TrimPrefix(b.Name, b.RemoteName+"/")
}

// Ref returns the fully qualified ref name.
func (b Branch) Ref() string {
	if b.IsRemote {
		return "refs/remotes/" + b.Name
	}
	return "refs/heads/" + b.Name
}

// LocalRef is a local branch as reported by enumeration.
type LocalRef struct {
	Name       string
	InWorktree bool
}

// RemoteRef is a remote-tracking branch, e.g. Remote "origin", Name "origin/main".
type RemoteRef struct {
	Remote string
	Name   string
}

// ShortName returns the branch name without its remote prefix.
func (r RemoteRef) ShortName() string {
	return strings.TrimPrefix(r.Name, r.Remote+"/")
}
