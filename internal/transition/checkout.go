package transition

import (
	"context"
	"fmt"

	gbmerrors "github.com/daveschumaker/gbm/internal/errors"
	"github.com/daveschumaker/gbm/internal/log"
	"github.com/daveschumaker/gbm/internal/models"
)

// checkoutPlan is what git needs to switch to a record.
type checkoutPlan struct {
	ref      string // argument to checkout
	createAs string // new local tracking branch, remote records only
	local    string // branch checked out afterwards
}

func (c *Controller) planCheckout(target models.Branch) checkoutPlan {
	if !target.IsRemote {
		return checkoutPlan{ref: target.Name, local: target.Name}
	}
	short := target.ShortName()
	if c.locals[short] {
		// never clobber an existing local branch
		return checkoutPlan{ref: short, local: short}
	}
	return checkoutPlan{ref: target.Name, createAs: short, local: short}
}

func (c *Controller) startCheckout(ctx context.Context, target models.Branch) Outcome {
	c.begin(KindCheckout, target)
	plan := c.planCheckout(target)

	if target.IsCurrent || (c.current != "" && plan.local == c.current) {
		return c.reject("already on %s", plan.local)
	}
	if target.InWorktree || c.occupied[plan.local] {
		return c.reject("%s is checked out in another worktree", target.Name)
	}

	files, err := c.gw.WorkingTreeStatus(ctx)
	if err != nil {
		return c.finish(Outcome{Err: gbmerrors.NewQueryError("working tree status", err)})
	}
	changes := models.SummarizeChanges(files)
	if changes.Unmerged > 0 {
		// git stash refuses an index with conflicts
		return c.reject("resolve %d unmerged path(s) before switching", changes.Unmerged)
	}
	if changes.Total() > 0 {
		return c.ask(ConfirmStash, Prompt{
			Kind:    PromptDirtyTree,
			Text:    fmt.Sprintf("You have uncommitted changes (%s). Stash them before switching to %s?", changes, plan.local),
			Choices: yesNoCancel,
		})
	}
	return c.checkout(ctx)
}

func (c *Controller) answerDirtyTree(ctx context.Context, choice Choice) Outcome {
	switch choice {
	case ChoiceCancel:
		return c.finish(Outcome{Message: "checkout cancelled"})
	case ChoiceNo:
		return c.checkout(ctx)
	}

	c.enter(Stashing)
	stash, err := c.gw.StashPush(ctx, models.StashMessage(c.stashTag()))
	if err != nil {
		return c.finish(Outcome{Err: gbmerrors.NewMutationError("stash", c.current, err)})
	}
	if stash != nil {
		c.sess.created = stash
		log.Info("stashed changes", "session", c.sess.id, "stash", stash.Ref, "branch", c.stashTag())
	}
	return c.checkout(ctx)
}

func (c *Controller) stashTag() string {
	if c.current == "" {
		return "HEAD"
	}
	return c.current
}

func (c *Controller) checkout(ctx context.Context) Outcome {
	c.enter(CheckingOut)
	plan := c.planCheckout(c.sess.target)

	if err := c.gw.Checkout(ctx, plan.ref, plan.createAs); err != nil {
		out := Outcome{Err: gbmerrors.NewMutationError("checkout", plan.local, err)}
		if created := c.sess.created; created != nil {
			c.tracked = created
			out.Refresh = true
			out.Message = fmt.Sprintf("your changes are saved in %s", created.Ref)
		}
		return c.finish(out)
	}

	previous := c.current
	c.current = plan.local
	c.locals[plan.local] = true

	msg := fmt.Sprintf("switched to %s", plan.local)
	if plan.createAs != "" {
		msg = fmt.Sprintf("created %s tracking %s", plan.local, plan.ref)
	}
	if created := c.sess.created; created != nil {
		msg += fmt.Sprintf(" (changes from %s stashed)", previous)
	}

	stashes, err := c.gw.StashList(ctx)
	if err != nil {
		log.Warn("stash lookup failed", "session", c.sess.id, "err", err)
		return c.completeCheckout(msg)
	}
	for i := range stashes {
		s := stashes[i]
		if s.Branch != plan.local {
			continue
		}
		if c.sess.created != nil && s.Hash == c.sess.created.Hash {
			continue
		}
		c.sess.offered = &s
		out := c.ask(PostCheckStash, Prompt{
			Kind:    PromptRestoreStash,
			Text:    fmt.Sprintf("Found changes stashed on %s (%s). Restore them?", plan.local, s.Ref),
			Choices: yesNo,
		})
		out.Refresh = true
		out.Message = msg
		return out
	}
	return c.completeCheckout(msg)
}

func (c *Controller) completeCheckout(msg string) Outcome {
	if c.sess.created != nil {
		c.tracked = c.sess.created
	}
	return c.finish(Outcome{Refresh: true, Message: msg})
}

// leaveStashed ends a checkout whose restore offer was declined. The checkout
// already happened, so the stash pushed in this session stays reachable by
// the pop command; without one the offered stash is tracked instead.
func (c *Controller) leaveStashed() Outcome {
	offered := c.sess.offered
	if c.sess.created != nil {
		c.tracked = c.sess.created
	} else {
		c.tracked = offered
	}
	return c.finish(Outcome{Refresh: true, Message: fmt.Sprintf("switched to %s, left stashed changes in %s", c.current, offered.Ref)})
}

func (c *Controller) answerRestore(ctx context.Context, choice Choice) Outcome {
	offered := c.sess.offered
	if choice != ChoiceYes {
		return c.leaveStashed()
	}

	c.enter(Popping)
	ref, err := c.resolveStash(ctx, offered)
	if err == nil {
		err = c.gw.StashPop(ctx, ref)
	}
	if err != nil {
		if !gbmerrors.Is(err, gbmerrors.ErrStashGone) {
			c.tracked = offered
		}
		return c.finish(Outcome{Refresh: true, Err: gbmerrors.NewMutationError("stash pop", offered.Ref, err)})
	}

	if c.sess.created != nil {
		c.tracked = c.sess.created
	} else if c.tracked != nil && c.tracked.Hash == offered.Hash {
		c.tracked = nil
	}
	return c.finish(Outcome{Refresh: true, Message: "restored stashed changes on " + c.current})
}
