package snapshot

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gbmerrors "github.com/daveschumaker/gbm/internal/errors"
	"github.com/daveschumaker/gbm/internal/models"
	"github.com/daveschumaker/gbm/internal/testhelpers"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newFake() *testhelpers.FakeGateway {
	gw := testhelpers.NewFakeGateway()
	gw.Current = "main"
	gw.AddLocal("main", "me@example.com", t0)
	gw.AddLocal("feature/x", "me@example.com", t0.Add(2*time.Hour))
	gw.AddLocal("old", "other@example.com", t0.Add(-48*time.Hour))
	gw.AddRemote("origin/main", "me@example.com", t0)
	gw.AddRemote("origin/remote-only", "other@example.com", t0.Add(time.Hour))
	return gw
}

func names(branches []models.Branch) []string {
	out := make([]string, len(branches))
	for i, b := range branches {
		out[i] = b.Name
	}
	return out
}

func TestBuildSortsByCommitTimeDescending(t *testing.T) {
	gw := newFake()
	snap, err := NewBuilder(gw).Build(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"feature/x", "main", "old"}, names(snap.Branches))
	assert.Equal(t, "main", snap.Current)
	for i := 1; i < len(snap.Branches); i++ {
		assert.False(t, snap.Branches[i].CommitTime.After(snap.Branches[i-1].CommitTime))
	}
}

func TestBuildTiesKeepDiscoveryOrder(t *testing.T) {
	gw := testhelpers.NewFakeGateway()
	gw.Current = "c"
	gw.AddLocal("c", "", t0)
	gw.AddLocal("a", "", t0)
	gw.AddLocal("b", "", t0)

	snap, err := NewBuilder(gw).Build(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, names(snap.Branches))
}

func TestBuildIncludesRemotesWithoutDuplicates(t *testing.T) {
	gw := newFake()
	snap, err := NewBuilder(gw).Build(context.Background(), Options{IncludeRemotes: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"feature/x", "origin/remote-only", "main", "old"}, names(snap.Branches))
	remote, ok := snap.Find("origin/remote-only", true)
	require.True(t, ok)
	assert.Equal(t, "origin", remote.RemoteName)
	assert.Equal(t, "remote-only", remote.ShortName())
	assert.False(t, remote.IsCurrent)

	_, ok = snap.Find("origin/main", true)
	assert.False(t, ok, "remote sharing a local short name is suppressed")
}

func TestBuildCallCountIndependentOfBranchCount(t *testing.T) {
	for _, n := range []int{0, 3, 200} {
		t.Run(fmt.Sprintf("%d branches", n), func(t *testing.T) {
			gw := testhelpers.NewFakeGateway()
			gw.Current = "main"
			gw.AddLocal("main", "", t0)
			for i := 0; i < n; i++ {
				gw.AddLocal(fmt.Sprintf("b%03d", i), "", t0.Add(time.Duration(i)*time.Minute))
				gw.AddRemote(fmt.Sprintf("origin/r%03d", i), "", t0)
			}

			snap, err := NewBuilder(gw).Build(context.Background(), Options{IncludeRemotes: true})
			require.NoError(t, err)
			assert.Equal(t, 1+2*n, snap.Len())

			assert.Equal(t, 1, gw.Calls(testhelpers.OpBatchRefMetadata))
			assert.Equal(t, 1, gw.Calls(testhelpers.OpWorkingTreeDirty))
			assert.Equal(t, 1, gw.Calls(testhelpers.OpCurrentBranch))
			assert.Equal(t, 1, gw.Calls(testhelpers.OpListLocalBranches))
			assert.Equal(t, 1, gw.Calls(testhelpers.OpListRemoteBranches))
		})
	}
}

func TestBuildDirtyOnlyOnCurrent(t *testing.T) {
	gw := newFake()
	gw.Dirty = true

	snap, err := NewBuilder(gw).Build(context.Background(), Options{IncludeRemotes: true})
	require.NoError(t, err)
	assert.True(t, snap.Dirty)

	for _, b := range snap.Branches {
		assert.Equal(t, b.Name == "main", b.HasUncommittedChanges, b.Name)
	}
}

func TestBuildDetachedHead(t *testing.T) {
	gw := newFake()
	gw.Current = ""

	snap, err := NewBuilder(gw).Build(context.Background(), Options{IncludeRemotes: true})
	require.NoError(t, err)
	for _, b := range snap.Branches {
		assert.False(t, b.IsCurrent, b.Name)
	}
}

func TestBuildAtMostOneCurrent(t *testing.T) {
	gw := newFake()
	gw.AddRemote("upstream/main", "", t0)

	snap, err := NewBuilder(gw).Build(context.Background(), Options{IncludeRemotes: true})
	require.NoError(t, err)
	count := 0
	for _, b := range snap.Branches {
		if b.IsCurrent {
			count++
			assert.False(t, b.IsRemote)
		}
	}
	assert.Equal(t, 1, count)
}

func TestBuildDropsVanishedRefs(t *testing.T) {
	gw := newFake()
	delete(gw.Meta, "refs/heads/old")

	snap, err := NewBuilder(gw).Build(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"feature/x", "main"}, names(snap.Branches))
}

func TestBuildQueryFailureIsFatal(t *testing.T) {
	ops := []string{
		testhelpers.OpCurrentBranch,
		testhelpers.OpListLocalBranches,
		testhelpers.OpListRemoteBranches,
		testhelpers.OpBatchRefMetadata,
		testhelpers.OpWorkingTreeDirty,
	}
	for _, op := range ops {
		t.Run(op, func(t *testing.T) {
			gw := newFake()
			gw.Fail[op] = testhelpers.ErrFake

			snap, err := NewBuilder(gw).Build(context.Background(), Options{})
			assert.Nil(t, snap)
			assert.ErrorIs(t, err, gbmerrors.ErrQuery)
			assert.ErrorIs(t, err, testhelpers.ErrFake)
		})
	}
}
