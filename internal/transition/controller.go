package transition

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	gbmerrors "github.com/daveschumaker/gbm/internal/errors"
	"github.com/daveschumaker/gbm/internal/log"
	"github.com/daveschumaker/gbm/internal/models"
	"github.com/daveschumaker/gbm/internal/snapshot"
)

// session is the transient state of one workflow.
type session struct {
	id      string
	kind    Kind
	state   State
	target  models.Branch
	prompt  Prompt
	created *models.Stash // stash pushed during this session
	offered *models.Stash // gbm stash offered for restore after checkout
}

// Controller runs one workflow at a time.
type Controller struct {
	gw        Gateway
	protected map[string]bool

	current  string
	locals   map[string]bool
	occupied map[string]bool // checked out in another worktree

	// tracked outlives sessions so the operator can restore it later.
	tracked *models.Stash

	sess *session
}

// New creates a Controller. Deleting a branch named in protected needs an
// extra confirmation.
func New(gw Gateway, protected []string) *Controller {
	c := &Controller{
		gw:        gw,
		protected: make(map[string]bool, len(protected)),
		locals:    map[string]bool{},
		occupied:  map[string]bool{},
	}
	for _, name := range protected {
		c.protected[name] = true
	}
	return c
}

// Sync adopts the current branch and local branch names of a fresh snapshot.
func (c *Controller) Sync(snap *snapshot.Snapshot) {
	if snap == nil {
		return
	}
	c.current = snap.Current
	c.locals = make(map[string]bool, len(snap.Branches))
	c.occupied = map[string]bool{}
	for _, b := range snap.Branches {
		if b.IsRemote {
			continue
		}
		c.locals[b.Name] = true
		if b.InWorktree {
			c.occupied[b.Name] = true
		}
	}
}

// Current returns the controller's notion of the checked out branch.
func (c *Controller) Current() string {
	return c.current
}

// TrackedStash returns the stash PopStash would restore, or nil.
func (c *Controller) TrackedStash() *models.Stash {
	if c.tracked == nil {
		return nil
	}
	s := *c.tracked
	return &s
}

// IsProtected reports whether name needs the extra delete confirmation.
func (c *Controller) IsProtected(name string) bool {
	return c.protected[name]
}

// State returns the active workflow state, Idle when none runs.
func (c *Controller) State() State {
	if c.sess == nil {
		return Idle
	}
	return c.sess.state
}

// Prompt returns the pending question of the active workflow.
func (c *Controller) Prompt() Prompt {
	if c.sess == nil {
		return Prompt{}
	}
	return c.sess.prompt
}

// Submit feeds one event to the controller and runs it to completion.
func (c *Controller) Submit(ctx context.Context, ev Event) Outcome {
	switch e := ev.(type) {
	case StartCheckout:
		if c.sess != nil {
			return c.unexpected(ev)
		}
		return c.startCheckout(ctx, e.Target)
	case StartDelete:
		if c.sess != nil {
			return c.unexpected(ev)
		}
		return c.startDelete(e.Target)
	case StartRename:
		if c.sess != nil {
			return c.unexpected(ev)
		}
		return c.startRename(e.Target)
	case PopStash:
		if c.sess != nil {
			return c.unexpected(ev)
		}
		return c.popTracked(ctx)
	case SubmitName:
		if c.sess == nil || c.sess.state != NamePrompt {
			return c.unexpected(ev)
		}
		return c.submitName(ctx, e.Name)
	case Answer:
		if c.sess == nil || !c.sess.prompt.Allows(e.Choice) {
			return c.unexpected(ev)
		}
		return c.answer(ctx, e.Choice)
	case Cancel:
		if c.sess == nil {
			return Outcome{State: Idle, Done: true}
		}
		if c.sess.state == PostCheckStash {
			return c.leaveStashed()
		}
		return c.finish(Outcome{Message: c.sess.kind.String() + " cancelled"})
	default:
		return c.unexpected(ev)
	}
}

func (c *Controller) answer(ctx context.Context, choice Choice) Outcome {
	switch c.sess.state {
	case ConfirmStash:
		return c.answerDirtyTree(ctx, choice)
	case PostCheckStash:
		return c.answerRestore(ctx, choice)
	case ProtectedConfirm:
		return c.answerProtected(choice)
	case DeleteConfirm:
		return c.answerDelete(ctx, choice)
	default:
		return c.unexpected(Answer{Choice: choice})
	}
}

func (c *Controller) begin(kind Kind, target models.Branch) {
	c.sess = &session{
		id:     uuid.NewString(),
		kind:   kind,
		state:  Idle,
		target: target,
	}
	log.Info("transition start", "session", c.sess.id, "kind", kind.String(), "target", target.Name)
}

func (c *Controller) enter(state State) {
	log.Debug("transition state", "session", c.sess.id, "from", c.sess.state.String(), "to", state.String())
	c.sess.state = state
	c.sess.prompt = Prompt{}
}

// ask moves to state and waits for input.
func (c *Controller) ask(state State, p Prompt) Outcome {
	c.enter(state)
	c.sess.prompt = p
	return Outcome{Kind: c.sess.kind, State: state, Prompt: p}
}

// finish ends the session and returns to Idle.
func (c *Controller) finish(out Outcome) Outcome {
	if c.sess != nil {
		out.Kind = c.sess.kind
		attrs := []any{"session", c.sess.id, "kind", c.sess.kind.String(), "from", c.sess.state.String(), "refresh", out.Refresh}
		if out.Err != nil {
			log.Warn("transition failed", append(attrs, "err", out.Err)...)
		} else {
			log.Info("transition done", append(attrs, "message", out.Message)...)
		}
	}
	c.sess = nil
	out.State = Idle
	out.Prompt = Prompt{}
	out.Done = true
	return out
}

// reject ends the session with a validation error before any mutation.
func (c *Controller) reject(format string, args ...any) Outcome {
	err := gbmerrors.Validationf(format, args...)
	return c.finish(Outcome{Message: err.Reason, Err: err})
}

func (c *Controller) unexpected(ev Event) Outcome {
	out := Outcome{State: c.State(), Prompt: c.Prompt(), Err: fmt.Errorf("%w: %T in state %s", gbmerrors.ErrUnexpectedEvent, ev, c.State())}
	if c.sess != nil {
		out.Kind = c.sess.kind
	} else {
		out.Done = true
	}
	return out
}

// resolveStash finds the current stash@{n} of s by hash. Indices shift when
// other stashes are pushed or dropped.
func (c *Controller) resolveStash(ctx context.Context, s *models.Stash) (string, error) {
	stashes, err := c.gw.StashList(ctx)
	if err != nil {
		return "", err
	}
	for _, entry := range stashes {
		if entry.Hash == s.Hash {
			return entry.Ref, nil
		}
	}
	return "", fmt.Errorf("%w: %s", gbmerrors.ErrStashGone, shortHash(s.Hash))
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
