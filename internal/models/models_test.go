package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBranchShortNameAndRef(t *testing.T) {
	local := Branch{Name: "feature/x"}
	assert.Equal(t, "feature/x", local.ShortName())
	assert.Equal(t, "refs/heads/feature/x", local.Ref())

	remote := Branch{Name: "origin/feature/x", RemoteName: "origin", IsRemote: true}
	assert.Equal(t, "feature/x", remote.ShortName())
	assert.Equal(t, "refs/remotes/origin/feature/x", remote.Ref())

	rr := RemoteRef{Remote: "upstream", Name: "upstream/main"}
	assert.Equal(t, "main", rr.ShortName())
}

func TestStashBranch(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"On main: " + StashMessage("main"), "main"},
		{"On x: " + StashMessage("fix(ui)"), "fix(ui)"},
		{StashMessage("feature/login"), "feature/login"},
		{"On main: WIP", ""},
		{"On main: " + StashMarker, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StashBranch(tt.message), tt.message)
	}
	assert.True(t, Stash{Branch: "main"}.Owned())
	assert.False(t, Stash{}.Owned())
}

func TestSummarizeChanges(t *testing.T) {
	files := []FileChange{
		{Path: "both.go", StagedStatus: StatusModified, IsStaged: true, Status: StatusModified},
		{Path: "staged.go", StagedStatus: StatusAdded, IsStaged: true},
		{Path: "edited.go", Status: StatusDeleted},
		{Path: "new.txt", Status: StatusUntracked, IsUntracked: true},
		{Path: "conflict.go", Status: StatusUnmerged},
	}
	s := SummarizeChanges(files)
	assert.Equal(t, ChangeSummary{Staged: 2, Unstaged: 2, Untracked: 1, Unmerged: 1}, s)
	assert.Equal(t, 6, s.Total())
	assert.Equal(t, "1 unmerged, 2 staged, 2 unstaged, 1 untracked", s.String())

	assert.Equal(t, "clean", SummarizeChanges(nil).String())
	assert.Zero(t, SummarizeChanges(nil).Total())
}
