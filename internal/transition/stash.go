package transition

import (
	"context"

	gbmerrors "github.com/daveschumaker/gbm/internal/errors"
	"github.com/daveschumaker/gbm/internal/models"
)

// popTracked restores the tracked stash. The reference is kept when the pop
// fails so the operator can retry.
func (c *Controller) popTracked(ctx context.Context) Outcome {
	c.begin(KindStashPop, models.Branch{Name: c.current})
	if c.tracked == nil {
		return c.finish(Outcome{Err: gbmerrors.ErrNoTrackedStash, Message: "no stash to restore"})
	}

	c.enter(Popping)
	tracked := c.tracked
	ref, err := c.resolveStash(ctx, tracked)
	if err != nil {
		if gbmerrors.Is(err, gbmerrors.ErrStashGone) {
			c.tracked = nil
		}
		return c.finish(Outcome{Err: gbmerrors.NewMutationError("stash pop", tracked.Ref, err)})
	}
	if err := c.gw.StashPop(ctx, ref); err != nil {
		return c.finish(Outcome{Err: gbmerrors.NewMutationError("stash pop", ref, err)})
	}
	c.tracked = nil
	return c.finish(Outcome{Refresh: true, Message: "restored " + ref})
}
