package transition

import (
	"context"
	"fmt"

	gbmerrors "github.com/daveschumaker/gbm/internal/errors"
	"github.com/daveschumaker/gbm/internal/log"
	"github.com/daveschumaker/gbm/internal/models"
)

func (c *Controller) startDelete(target models.Branch) Outcome {
	c.begin(KindDelete, target)

	switch {
	case target.IsRemote:
		return c.reject("cannot delete remote branch %s", target.Name)
	case target.IsCurrent || target.Name == c.current:
		return c.reject("cannot delete the current branch %s", target.Name)
	case target.InWorktree:
		return c.reject("%s is checked out in another worktree", target.Name)
	}

	if c.protected[target.Name] {
		return c.ask(ProtectedConfirm, Prompt{
			Kind:    PromptProtected,
			Text:    fmt.Sprintf("%s is a protected branch. Are you absolutely sure you want to delete it?", target.Name),
			Choices: yesNo,
		})
	}
	return c.askDelete()
}

func (c *Controller) askDelete() Outcome {
	return c.ask(DeleteConfirm, Prompt{
		Kind:    PromptDelete,
		Text:    fmt.Sprintf("Delete branch %s?", c.sess.target.Name),
		Choices: yesNo,
	})
}

func (c *Controller) answerProtected(choice Choice) Outcome {
	if choice != ChoiceYes {
		return c.finish(Outcome{Message: "delete cancelled"})
	}
	return c.askDelete()
}

// answerDelete tries a safe delete, then escalates to a forced delete once.
func (c *Controller) answerDelete(ctx context.Context, choice Choice) Outcome {
	if choice != ChoiceYes {
		return c.finish(Outcome{Message: "delete cancelled"})
	}

	c.enter(Deleting)
	name := c.sess.target.Name

	safeErr := c.gw.DeleteBranch(ctx, name, false)
	if safeErr == nil {
		delete(c.locals, name)
		return c.finish(Outcome{Refresh: true, Message: "deleted " + name})
	}
	log.Info("safe delete refused, forcing", "session", c.sess.id, "branch", name, "err", safeErr)

	if forceErr := c.gw.DeleteBranch(ctx, name, true); forceErr != nil {
		return c.finish(Outcome{Err: gbmerrors.NewMutationError("delete", name, gbmerrors.Join(safeErr, forceErr))})
	}
	delete(c.locals, name)
	return c.finish(Outcome{
		Refresh: true,
		Forced:  true,
		Message: fmt.Sprintf("force-deleted %s (it was not fully merged)", name),
	})
}
