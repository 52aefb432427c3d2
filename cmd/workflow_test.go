package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daveschumaker/gbm/internal/models"
	"github.com/daveschumaker/gbm/internal/session"
	"github.com/daveschumaker/gbm/internal/testhelpers"
	"github.com/daveschumaker/gbm/internal/transition"
)

var now = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func newSession(t *testing.T, gw *testhelpers.FakeGateway) *session.Session {
	t.Helper()
	s := session.New(gw, session.Options{
		Protected: []string{"main"},
		Now:       func() time.Time { return now },
	})
	_, err := s.Refresh(context.Background(), true)
	require.NoError(t, err)
	return s
}

func newGateway() *testhelpers.FakeGateway {
	gw := testhelpers.NewFakeGateway()
	gw.Current = "main"
	gw.AddLocal("main", "me@example.com", now.Add(-time.Hour))
	gw.AddLocal("feature/x", "me@example.com", now.Add(-time.Minute))
	gw.AddRemote("origin/topic", "other@example.com", now.Add(-2*time.Hour))
	return gw
}

type scriptedAnswerer struct {
	answers []transition.Choice
	asked   []transition.PromptKind
}

func (s *scriptedAnswerer) Choose(p transition.Prompt) (transition.Choice, error) {
	s.asked = append(s.asked, p.Kind)
	if len(s.answers) == 0 {
		return transition.ChoiceCancel, nil
	}
	c := s.answers[0]
	s.answers = s.answers[1:]
	return c, nil
}

func TestRunWorkflowSwitchDirtyTree(t *testing.T) {
	gw := newGateway()
	gw.Dirty = true
	s := newSession(t, gw)

	target, ok := findBranch(s.Snapshot(), "feature/x")
	require.True(t, ok)

	ans := &scriptedAnswerer{answers: []transition.Choice{transition.ChoiceYes}}
	var buf bytes.Buffer
	out, err := runWorkflow(context.Background(), s, transition.StartCheckout{Target: target}, ans, &buf)
	require.NoError(t, err)
	assert.True(t, out.Done)
	assert.Equal(t, []transition.PromptKind{transition.PromptDirtyTree}, ans.asked)
	assert.Equal(t, "feature/x", gw.CurrentName())
	assert.Equal(t, 1, gw.StashCount())
	assert.Contains(t, buf.String(), "switched to feature/x")
}

func TestRunWorkflowRemoteCreatesTrackingBranch(t *testing.T) {
	gw := newGateway()
	s := newSession(t, gw)

	target, ok := findBranch(s.Snapshot(), "origin/topic")
	require.True(t, ok)
	assert.True(t, target.IsRemote)

	var buf bytes.Buffer
	_, err := runWorkflow(context.Background(), s, transition.StartCheckout{Target: target}, autoAnswerer{yes: true}, &buf)
	require.NoError(t, err)
	assert.Equal(t, "topic", gw.CurrentName())
	assert.True(t, gw.HasLocal("topic"))
}

func TestRunWorkflowAutoAnswerer(t *testing.T) {
	t.Run("confirmation without --yes fails and cancels", func(t *testing.T) {
		gw := newGateway()
		s := newSession(t, gw)
		target, _ := findBranch(s.Snapshot(), "feature/x")

		_, err := runWorkflow(context.Background(), s, transition.StartDelete{Target: target}, autoAnswerer{}, &bytes.Buffer{})
		assert.ErrorIs(t, err, errConfirmationRequired)
		assert.True(t, gw.HasLocal("feature/x"))
		assert.False(t, s.Pending().Waiting())
	})

	t.Run("--yes deletes", func(t *testing.T) {
		gw := newGateway()
		s := newSession(t, gw)
		target, _ := findBranch(s.Snapshot(), "feature/x")

		var buf bytes.Buffer
		_, err := runWorkflow(context.Background(), s, transition.StartDelete{Target: target}, autoAnswerer{yes: true}, &buf)
		require.NoError(t, err)
		assert.False(t, gw.HasLocal("feature/x"))
		assert.Contains(t, buf.String(), "deleted feature/x")
	})

	t.Run("protected needs --force-protected", func(t *testing.T) {
		gw := newGateway()
		gw.Current = "feature/x"
		s := newSession(t, gw)
		target, _ := findBranch(s.Snapshot(), "main")

		_, err := runWorkflow(context.Background(), s, transition.StartDelete{Target: target}, autoAnswerer{yes: true}, &bytes.Buffer{})
		assert.ErrorIs(t, err, errProtected)
		assert.True(t, gw.HasLocal("main"))

		_, err = runWorkflow(context.Background(), s, transition.StartDelete{Target: target}, autoAnswerer{yes: true, forceProtected: true}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.False(t, gw.HasLocal("main"))
	})
}

func TestRunWorkflowDeclinesRestoreWithoutYes(t *testing.T) {
	gw := newGateway()
	gw.AddStash("feature/x", models.StashMessage("feature/x"))
	s := newSession(t, gw)
	target, _ := findBranch(s.Snapshot(), "feature/x")

	var buf bytes.Buffer
	out, err := runWorkflow(context.Background(), s, transition.StartCheckout{Target: target}, autoAnswerer{}, &buf)
	require.NoError(t, err)
	assert.True(t, out.Done)
	assert.Equal(t, "feature/x", gw.CurrentName())
	assert.Equal(t, []string{"Checkout feature/x"}, gw.Mutations())
	assert.Equal(t, 1, gw.StashCount())
	require.NotNil(t, s.TrackedStash())
	assert.Contains(t, buf.String(), "left stashed changes")
}

type failingAnswerer struct{}

func (failingAnswerer) Choose(transition.Prompt) (transition.Choice, error) {
	return transition.ChoiceCancel, errors.New("prompt closed")
}

func TestRunWorkflowAnswerErrorAfterCheckoutIsNotAFailure(t *testing.T) {
	gw := newGateway()
	gw.AddStash("feature/x", models.StashMessage("feature/x"))
	s := newSession(t, gw)
	target, _ := findBranch(s.Snapshot(), "feature/x")

	out, err := runWorkflow(context.Background(), s, transition.StartCheckout{Target: target}, failingAnswerer{}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, out.Done)
	assert.Equal(t, "feature/x", gw.CurrentName())
	assert.False(t, s.Pending().Waiting())
	assert.NotNil(t, s.TrackedStash())
}

func TestRunWorkflowSurfacesValidation(t *testing.T) {
	gw := newGateway()
	s := newSession(t, gw)
	target, _ := findBranch(s.Snapshot(), "main")

	var buf bytes.Buffer
	_, err := runWorkflow(context.Background(), s, transition.StartCheckout{Target: target}, &scriptedAnswerer{}, &buf)
	assert.Error(t, err)
	assert.Contains(t, buf.String(), "already on main")
	assert.Empty(t, gw.Mutations())
}

func TestFindBranchPrefersLocal(t *testing.T) {
	gw := newGateway()
	gw.AddRemote("origin/main", "me@example.com", now.Add(-time.Hour))
	s := newSession(t, gw)

	b, ok := findBranch(s.Snapshot(), "main")
	require.True(t, ok)
	assert.False(t, b.IsRemote)

	_, ok = findBranch(s.Snapshot(), "nope")
	assert.False(t, ok)
	_, ok = findBranch(nil, "main")
	assert.False(t, ok)
}

func TestRenderListPlain(t *testing.T) {
	branches := []models.Branch{
		{Name: "main", IsCurrent: true, Hash: "abc123def456", CommitTime: now.Add(-2 * time.Hour), AuthorEmail: "me@example.com", Summary: "init", HasUpstream: true},
		{Name: "feature/x", Hash: "0123456789ab", CommitTime: now.Add(-24 * time.Hour), AuthorEmail: "me@example.com", Summary: "wip", IsMerged: true, Ahead: 1, Behind: 2},
	}

	var buf bytes.Buffer
	require.NoError(t, renderList(&buf, branches, now, false, 0))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "*\tmain\tabc123def456\t2 hours ago\tme@example.com\t\tinit", lines[0])
	assert.Equal(t, " \tfeature/x\t0123456789ab\tyesterday\tme@example.com\tmerged,+1/-2,local\twip", lines[1])
}

func TestRenderListStyledTruncates(t *testing.T) {
	branches := []models.Branch{
		{Name: "feature/with-a-very-long-name", Hash: "0123456789ab", CommitTime: now, Summary: strings.Repeat("x", 200)},
	}
	var buf bytes.Buffer
	require.NoError(t, renderList(&buf, branches, now, true, 40))
	assert.Contains(t, buf.String(), "…")
}
