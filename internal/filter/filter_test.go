package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/daveschumaker/gbm/internal/models"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func sample() []models.Branch {
	return []models.Branch{
		{Name: "feature/login", AuthorEmail: "me@example.com", CommitTime: now.Add(-time.Hour)},
		{Name: "main", IsCurrent: true, IsMerged: false, AuthorEmail: "other@example.com", CommitTime: now.Add(-2 * time.Hour)},
		{Name: "origin/feature/api", RemoteName: "origin", IsRemote: true, AuthorEmail: "Me@Example.com", CommitTime: now.Add(-3 * time.Hour)},
		{Name: "bugfix/crash", IsMerged: true, AuthorEmail: "me@example.com", CommitTime: now.Add(-10 * 24 * time.Hour)},
		{Name: "stale", IsMerged: true, AuthorEmail: "other@example.com", CommitTime: now.Add(-90 * 24 * time.Hour)},
	}
}

func names(branches []models.Branch) []string {
	out := make([]string, len(branches))
	for i, b := range branches {
		out[i] = b.Name
	}
	return out
}

func TestApplyStages(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  []string
	}{
		{"zero state", State{}, []string{"feature/login", "main", "origin/feature/api", "bugfix/crash", "stale"}},
		{"search is case insensitive", State{Search: "FEAT"}, []string{"feature/login", "origin/feature/api"}},
		{"mine", State{Mine: true, AuthorEmail: "me@example.com"}, []string{"feature/login", "origin/feature/api", "bugfix/crash"}},
		{"mine without identity accepts all", State{Mine: true}, []string{"feature/login", "main", "origin/feature/api", "bugfix/crash", "stale"}},
		{"max age", State{MaxAge: 30 * 24 * time.Hour}, []string{"feature/login", "main", "origin/feature/api", "bugfix/crash"}},
		{"prefix uses short name", State{Prefix: "feature/"}, []string{"feature/login", "origin/feature/api"}},
		{"hide merged", State{HideMerged: true}, []string{"feature/login", "main", "origin/feature/api"}},
		{"combined", State{Search: "f", Mine: true, AuthorEmail: "me@example.com", HideMerged: true}, []string{"feature/login", "origin/feature/api"}},
		{"nothing matches", State{Search: "zzz"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Apply(sample(), tt.state, now)))
		})
	}
}

func TestHideMergedKeepsCurrent(t *testing.T) {
	branches := []models.Branch{
		{Name: "main", IsCurrent: true, IsMerged: true},
		{Name: "done", IsMerged: true},
	}
	assert.Equal(t, []string{"main"}, names(Apply(branches, State{HideMerged: true}, now)))
}

func TestApplySearchMatchesSubstring(t *testing.T) {
	branches := []models.Branch{
		{Name: "main", IsCurrent: true, CommitTime: now},
		{Name: "feature/x", CommitTime: now.Add(-time.Minute)},
	}
	assert.Equal(t, []string{"feature/x"}, names(Apply(branches, State{Search: "feat"}, now)))
}

func TestApplyIsSubsequenceAndIdempotent(t *testing.T) {
	input := sample()
	states := []State{
		{Search: "e"},
		{HideMerged: true, MaxAge: 5 * 24 * time.Hour},
		{Prefix: "bug", Mine: true, AuthorEmail: "me@example.com"},
	}
	for _, st := range states {
		once := Apply(input, st, now)
		twice := Apply(input, st, now)
		assert.Equal(t, once, twice)
		assert.Equal(t, once, Apply(once, st, now))

		// order-preserving subsequence of the input
		j := 0
		for _, b := range once {
			for j < len(input) && input[j].Name != b.Name {
				j++
			}
			assert.Less(t, j, len(input), "%s not found in order", b.Name)
			j++
		}

		assert.Equal(t, input, Apply(input, st.Clear(), now))
	}
	assert.Equal(t, sample(), input, "input is not modified")
}

func TestStateSummary(t *testing.T) {
	assert.False(t, State{}.Active())
	assert.Equal(t, "", State{}.Summary())

	st := State{Search: "x", Mine: true, AuthorEmail: "a@b", MaxAge: 14 * 24 * time.Hour, Prefix: "f/", HideMerged: true}
	assert.True(t, st.Active())
	assert.Equal(t, "search:x mine age<14d prefix:f/ hide merged", st.Summary())
	assert.Equal(t, State{AuthorEmail: "a@b"}, st.Clear())
}

func TestClampIndex(t *testing.T) {
	assert.Equal(t, -1, ClampIndex(3, 0))
	assert.Equal(t, 0, ClampIndex(-2, 4))
	assert.Equal(t, 2, ClampIndex(2, 4))
	assert.Equal(t, 3, ClampIndex(10, 4))
}
