package snapshot

import (
	"context"

	gbmerrors "github.com/daveschumaker/gbm/internal/errors"
	"github.com/daveschumaker/gbm/internal/log"
)

// StatusSource is the part of the gateway used for derived status.
type StatusSource interface {
	MergedInto(ctx context.Context, base string) ([]string, error)
	AheadBehind(ctx context.Context, branch, base string) (ahead, behind int, err error)
}

// fallbackBases are tried in order when the configured hint does not exist.
var fallbackBases = []string{"main", "master"}

// Annotator derives merge, upstream, worktree and ahead/behind status.
type Annotator struct {
	src         StatusSource
	aheadBehind bool
}

// NewAnnotator creates an Annotator. When aheadBehind is false the per-branch
// commit counts are skipped and left at zero.
func NewAnnotator(src StatusSource, aheadBehind bool) *Annotator {
	return &Annotator{src: src, aheadBehind: aheadBehind}
}

// ResolveBase picks the base branch: the hint if it exists locally, else
// main, else master, else "".
func ResolveBase(snap *Snapshot, hint string) string {
	if hint != "" && snap.HasLocal(hint) {
		return hint
	}
	for _, name := range fallbackBases {
		if snap.HasLocal(name) {
			return name
		}
	}
	return ""
}

// Annotate returns a copy of snap with derived fields filled in. Records keep
// their order and none are dropped.
func (a *Annotator) Annotate(ctx context.Context, snap *Snapshot, baseHint string) (*Snapshot, error) {
	out := snap.clone()
	base := ResolveBase(snap, baseHint)
	out.BaseBranch = base

	for i := range out.Branches {
		b := &out.Branches[i]
		b.IsMerged = false
		b.Ahead, b.Behind = 0, 0
		if b.IsRemote {
			b.HasUpstream = true
			b.InWorktree = false
			continue
		}
		b.HasUpstream = snap.remoteShort[b.Name]
		b.InWorktree = snap.occupied[b.Name]
	}

	if base == "" {
		log.Debug("no base branch resolved", "hint", baseHint)
		return out, nil
	}

	merged, err := a.src.MergedInto(ctx, base)
	if err != nil {
		return nil, gbmerrors.NewQueryError("merged branches", err)
	}
	mergedSet := make(map[string]bool, len(merged))
	for _, name := range merged {
		mergedSet[name] = true
	}

	for i := range out.Branches {
		b := &out.Branches[i]
		if b.IsRemote || b.Name == base {
			continue
		}
		b.IsMerged = mergedSet[b.Name]
		if !a.aheadBehind {
			continue
		}
		ahead, behind, err := a.src.AheadBehind(ctx, b.Name, base)
		if err != nil {
			return nil, gbmerrors.NewQueryError("ahead/behind "+b.Name, err)
		}
		b.Ahead, b.Behind = ahead, behind
	}

	return out, nil
}
