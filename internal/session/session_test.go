package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gbmerrors "github.com/daveschumaker/gbm/internal/errors"
	"github.com/daveschumaker/gbm/internal/filter"
	"github.com/daveschumaker/gbm/internal/models"
	"github.com/daveschumaker/gbm/internal/testhelpers"
	"github.com/daveschumaker/gbm/internal/transition"
)

var now = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func newGateway() *testhelpers.FakeGateway {
	gw := testhelpers.NewFakeGateway()
	gw.Current = "main"
	gw.Email = "me@example.com"
	gw.AddLocal("main", "other@example.com", now.Add(-time.Hour))
	gw.AddLocal("feature/x", "me@example.com", now.Add(-time.Minute))
	gw.AddRemote("origin/main", "other@example.com", now.Add(-time.Hour))
	gw.AddRemote("origin/shared", "other@example.com", now.Add(-2*time.Hour))
	return gw
}

func newSession(gw *testhelpers.FakeGateway) *Session {
	return New(gw, Options{
		Protected:   []string{"main"},
		AheadBehind: true,
		Now:         func() time.Time { return now },
	})
}

func names(branches []models.Branch) []string {
	out := make([]string, len(branches))
	for i, b := range branches {
		out[i] = b.Name
	}
	return out
}

func TestRefreshPublishesSnapshot(t *testing.T) {
	gw := newGateway()
	s := newSession(gw)
	assert.Nil(t, s.Snapshot())
	assert.Empty(t, s.Visible())

	snap, err := s.Refresh(context.Background(), false)
	require.NoError(t, err)
	assert.Same(t, snap, s.Snapshot())
	assert.Equal(t, "main", snap.BaseBranch)
	assert.Equal(t, []string{"feature/x", "main"}, names(s.Visible()))

	idx, sel, ok := s.Selected()
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, "feature/x", sel.Name)
}

func TestRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	gw := newGateway()
	s := newSession(gw)
	first, err := s.Refresh(context.Background(), false)
	require.NoError(t, err)

	gw.Fail[testhelpers.OpBatchRefMetadata] = testhelpers.ErrFake
	snap, err := s.Refresh(context.Background(), true)
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, gbmerrors.ErrQuery)
	assert.Same(t, first, s.Snapshot())
	assert.False(t, s.IncludeRemotes())
	assert.Equal(t, []string{"feature/x", "main"}, names(s.Visible()))
}

func TestToggleRemotes(t *testing.T) {
	s := newSession(newGateway())
	_, err := s.Refresh(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, s.IncludeRemotes())
	assert.Equal(t, []string{"feature/x", "main", "origin/shared"}, names(s.Visible()))
}

func TestSetFilter(t *testing.T) {
	gw := newGateway()
	s := newSession(gw)
	_, err := s.Refresh(context.Background(), true)
	require.NoError(t, err)

	email, err := s.AuthorEmail(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"feature/x"}, names(s.SetFilter(filter.State{Search: "feat"})))
	assert.Equal(t, []string{"feature/x"}, names(s.SetFilter(filter.State{Mine: true, AuthorEmail: email})))
	assert.Equal(t, filter.State{Mine: true, AuthorEmail: email}, s.Filter())

	all := s.SetFilter(filter.State{})
	assert.Equal(t, s.Snapshot().Branches, all)
}

func TestSetFilterSearchNarrowsVisibleBranches(t *testing.T) {
	gw := testhelpers.NewFakeGateway()
	gw.Current = "main"
	gw.AddLocal("main", "", now)
	gw.AddLocal("feature/x", "", now.Add(-time.Hour))

	s := newSession(gw)
	_, err := s.Refresh(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"feature/x"}, names(s.SetFilter(filter.State{Search: "feat"})))
}

func TestSelectionClampsAndFollowsBranch(t *testing.T) {
	s := newSession(newGateway())
	_, err := s.Refresh(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, 2, s.Select(10))
	assert.Equal(t, 0, s.Select(-3))
	s.Select(1) // main

	s.SetFilter(filter.State{Search: "ma"})
	_, sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, "main", sel.Name)

	s.SetFilter(filter.State{Search: "nothing"})
	idx, _, ok := s.Selected()
	assert.False(t, ok)
	assert.Equal(t, -1, idx)
	assert.Equal(t, -1, s.Select(3))
}

func TestSubmitRefreshesAfterMutation(t *testing.T) {
	gw := newGateway()
	s := newSession(gw)
	_, err := s.Refresh(context.Background(), false)
	require.NoError(t, err)
	target, ok := s.Snapshot().Find("feature/x", false)
	require.True(t, ok)

	out := s.Submit(context.Background(), transition.StartDelete{Target: target})
	assert.Equal(t, transition.PromptDelete, out.Prompt.Kind)
	assert.Equal(t, transition.PromptDelete, s.Pending().Kind)

	gw.ResetCalls()
	out = s.Submit(context.Background(), transition.Answer{Choice: transition.ChoiceYes})
	require.NoError(t, out.Err)
	assert.True(t, out.Refresh)
	assert.Equal(t, 1, gw.Calls(testhelpers.OpBatchRefMetadata), "snapshot rebuilt once")
	assert.Equal(t, []string{"main"}, names(s.Visible()))
}

func TestSubmitCheckoutSelectsNewCurrent(t *testing.T) {
	gw := newGateway()
	s := newSession(gw)
	_, err := s.Refresh(context.Background(), true)
	require.NoError(t, err)
	remote, ok := s.Snapshot().Find("origin/shared", true)
	require.True(t, ok)

	out := s.Submit(context.Background(), transition.StartCheckout{Target: remote})
	require.NoError(t, out.Err)

	snap := s.Snapshot()
	assert.Equal(t, "shared", snap.Current)
	_, sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, "shared", sel.Name)
	assert.True(t, sel.IsCurrent)
	assert.True(t, sel.HasUpstream)
}

func TestFetch(t *testing.T) {
	gw := newGateway()
	s := newSession(gw)
	_, err := s.Refresh(context.Background(), true)
	require.NoError(t, err)

	gw.AddRemote("origin/new", "", now)
	snap, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Contains(t, names(snap.Branches), "origin/new")
	assert.Equal(t, []string{"FetchAll"}, gw.Mutations())

	gw.Fail[testhelpers.OpFetchAll] = testhelpers.ErrFake
	_, err = s.Fetch(context.Background())
	assert.ErrorIs(t, err, gbmerrors.ErrMutation)
	assert.Same(t, snap, s.Snapshot())
}

func TestAuthorEmailOverride(t *testing.T) {
	gw := newGateway()
	s := New(gw, Options{AuthorEmail: "override@example.com"})
	email, err := s.AuthorEmail(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "override@example.com", email)
	assert.Equal(t, 0, gw.Calls(testhelpers.OpUserEmail))
}

func TestFilteringDuringRefresh(t *testing.T) {
	gw := newGateway()
	s := newSession(gw)
	_, err := s.Refresh(context.Background(), false)
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	gw.BeforeCall = func(op string) {
		if op == testhelpers.OpBatchRefMetadata {
			once.Do(func() { close(entered) })
			<-release
		}
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Refresh(context.Background(), false)
		done <- err
	}()
	<-entered

	filtered := make(chan []models.Branch, 1)
	go func() { filtered <- s.SetFilter(filter.State{Search: "main"}) }()
	select {
	case got := <-filtered:
		assert.Equal(t, []string{"main"}, names(got))
	case <-time.After(2 * time.Second):
		t.Fatal("filtering blocked behind an in-flight refresh")
	}

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"main"}, names(s.Visible()))
}
