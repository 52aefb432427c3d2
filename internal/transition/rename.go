package transition

import (
	"context"
	"fmt"
	"strings"

	gbmerrors "github.com/daveschumaker/gbm/internal/errors"
	"github.com/daveschumaker/gbm/internal/models"
)

func (c *Controller) startRename(target models.Branch) Outcome {
	c.begin(KindRename, target)
	if target.IsRemote {
		return c.reject("cannot rename remote branch %s", target.Name)
	}
	return c.askName()
}

func (c *Controller) askName() Outcome {
	return c.ask(NamePrompt, Prompt{
		Kind:    PromptName,
		Text:    fmt.Sprintf("Rename %s to:", c.sess.target.Name),
		Default: c.sess.target.Name,
	})
}

// retryName keeps the prompt open after rejected input.
func (c *Controller) retryName(format string, args ...any) Outcome {
	err := gbmerrors.Validationf(format, args...)
	out := c.askName()
	out.Message = err.Reason
	out.Err = err
	return out
}

func (c *Controller) submitName(ctx context.Context, name string) Outcome {
	name = strings.TrimSpace(name)
	old := c.sess.target.Name

	c.enter(ValidateUnique)
	switch {
	case name == "":
		return c.retryName("branch name cannot be empty")
	case name == old:
		return c.finish(Outcome{Message: "name unchanged"})
	case strings.ContainsAny(name, " \t~^:?*[\\") || strings.HasPrefix(name, "-") || strings.Contains(name, ".."):
		return c.retryName("%q is not a valid branch name", name)
	case c.locals[name]:
		return c.retryName("a branch named %s already exists", name)
	}

	c.enter(Renaming)
	if err := c.gw.RenameBranch(ctx, old, name); err != nil {
		return c.finish(Outcome{Err: gbmerrors.NewMutationError("rename", old, err)})
	}

	delete(c.locals, old)
	c.locals[name] = true
	if c.current == old {
		c.current = name
	}
	return c.finish(Outcome{Refresh: true, Message: fmt.Sprintf("renamed %s to %s", old, name)})
}
