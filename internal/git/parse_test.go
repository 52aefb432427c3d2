package git

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daveschumaker/gbm/internal/models"
)

func TestParseLocalBranches(t *testing.T) {
	lines := []string{
		"*\x1frefs/heads/main\x1f/repo",
		" \x1frefs/heads/feature\x1f",
		" \x1frefs/heads/wt\x1f/elsewhere",
		"garbage",
	}
	got := parseLocalBranches(lines)
	assert.Equal(t, []models.LocalRef{
		{Name: "main"},
		{Name: "feature"},
		{Name: "wt", InWorktree: true},
	}, got)
}

func TestParseRemoteBranches(t *testing.T) {
	lines := []string{
		"refs/remotes/origin/HEAD\x1frefs/remotes/origin/main",
		"refs/remotes/origin/main\x1f",
		"refs/remotes/upstream/feat/x\x1f",
		"refs/remotes/origin/HEAD\x1f",
	}
	got := parseRemoteBranches(lines)
	assert.Equal(t, []models.RemoteRef{
		{Remote: "origin", Name: "origin/main"},
		{Remote: "upstream", Name: "upstream/feat/x"},
	}, got)
}

func TestParseLeftRight(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		ahead  int
		behind int
	}{
		{"tab separated", "5\t3", 3, 5},
		{"even", "0\t0", 0, 0},
		{"garbage", "not numbers", 0, 0},
		{"single field", "4", 0, 0},
		{"empty", "", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ahead, behind := parseLeftRight(tt.input)
			assert.Equal(t, tt.ahead, ahead)
			assert.Equal(t, tt.behind, behind)
		})
	}
}

func TestParseRefMeta(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		meta, err := parseRefMeta("refs/heads/main\x1fabcdef123456\x1f1704110400\x1f<dev@example.com>\x1ffix: handle a|b\x1fc")
		require.NoError(t, err)
		assert.Equal(t, "refs/heads/main", meta.Ref)
		assert.Equal(t, "abcdef123456", meta.Hash)
		assert.Equal(t, time.Unix(1704110400, 0), meta.CommitTime)
		assert.Equal(t, "dev@example.com", meta.AuthorEmail)
		assert.Equal(t, "fix: handle a|b\x1fc", meta.Summary)
	})

	t.Run("empty subject", func(t *testing.T) {
		meta, err := parseRefMeta("refs/heads/x\x1fabc\x1f1\x1f<a@b>\x1f")
		require.NoError(t, err)
		assert.Equal(t, "", meta.Summary)
	})

	malformed := map[string]string{
		"too few fields": "refs/heads/main\x1fabc\x1f1704110400",
		"bad timestamp":  "refs/heads/main\x1fabc\x1fyesterday\x1f<a@b>\x1fmsg",
		"empty hash":     "refs/heads/main\x1f\x1f1\x1f<a@b>\x1fmsg",
		"empty ref":      "\x1fabc\x1f1\x1f<a@b>\x1fmsg",
	}
	for name, line := range malformed {
		t.Run(name, func(t *testing.T) {
			_, err := parseRefMeta(line)
			assert.Error(t, err)
		})
	}
}

func TestRefNamespaces(t *testing.T) {
	got := refNamespaces([]string{"refs/heads/a", "refs/remotes/origin/b", "refs/heads/c"})
	assert.Equal(t, []string{"refs/heads", "refs/remotes"}, got)
}

func TestParseStatus(t *testing.T) {
	out := " M changed.go\n?? new.txt\nR  old.go -> renamed.go\nUU conflict.go\nA  added.go\n"
	files := parseStatus(out)
	require.Len(t, files, 5)

	assert.Equal(t, "changed.go", files[0].Path)
	assert.Equal(t, models.StatusModified, files[0].Status)
	assert.False(t, files[0].IsStaged)

	assert.True(t, files[1].IsUntracked)

	assert.Equal(t, "renamed.go", files[2].Path)
	assert.Equal(t, models.StatusRenamed, files[2].StagedStatus)

	assert.Equal(t, models.StatusUnmerged, files[3].Status)

	assert.True(t, files[4].IsStaged)
	assert.Equal(t, models.StatusAdded, files[4].StagedStatus)

	sum := models.SummarizeChanges(files)
	assert.Equal(t, models.ChangeSummary{Staged: 2, Unstaged: 1, Untracked: 1, Unmerged: 1}, sum)
}

func TestParseStash(t *testing.T) {
	s, err := parseStash("stash@{1}\x1fdeadbeef\x1fOn main: " + models.StashMessage("main"))
	require.NoError(t, err)
	assert.Equal(t, "stash@{1}", s.Ref)
	assert.Equal(t, "deadbeef", s.Hash)
	assert.Equal(t, "main", s.Branch)
	assert.True(t, s.Owned())

	_, err = parseStash("stash@{0}")
	assert.Error(t, err)
}
