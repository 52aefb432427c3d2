// Package session is the surface drivers talk to. It owns the published
// snapshot, the filter state and the transition controller, and it makes
// sure no two git commands run at the same time.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	gbmerrors "github.com/daveschumaker/gbm/internal/errors"
	"github.com/daveschumaker/gbm/internal/filter"
	"github.com/daveschumaker/gbm/internal/log"
	"github.com/daveschumaker/gbm/internal/models"
	"github.com/daveschumaker/gbm/internal/snapshot"
	"github.com/daveschumaker/gbm/internal/transition"
)

// Gateway is everything a session needs from the repository.
type Gateway interface {
	snapshot.Source
	snapshot.StatusSource
	transition.Gateway
	FetchAll(ctx context.Context) error
	UserEmail(ctx context.Context) (string, error)
}

// Options configures a Session.
type Options struct {
	BaseBranch   string   // hint for base branch resolution
	Protected    []string // names needing a second delete confirmation
	AheadBehind  bool     // compute per-branch ahead/behind counts
	AuthorEmail  string   // identity for the author filter; git config when empty
	FetchTimeout time.Duration
	Now          func() time.Time
}

// Session couples a gateway with the engine.
type Session struct {
	gw        Gateway
	opts      Options
	builder   *snapshot.Builder
	annotator *snapshot.Annotator
	ctrl      *transition.Controller

	// gitMu serializes every gateway call and the controller.
	gitMu sync.Mutex

	published atomic.Pointer[snapshot.Snapshot]

	// mu guards the view state below; it is never held across git calls.
	mu             sync.RWMutex
	filter         filter.State
	visible        []models.Branch
	selected       int
	includeRemotes bool
}

// New creates a Session. Nothing is queried until Refresh.
func New(gw Gateway, opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		gw:        gw,
		opts:      opts,
		builder:   snapshot.NewBuilder(gw),
		annotator: snapshot.NewAnnotator(gw, opts.AheadBehind),
		ctrl:      transition.New(gw, opts.Protected),
		selected:  -1,
	}
}

// Refresh rebuilds the snapshot. On failure the previously published
// snapshot stays in place and the error is returned.
func (s *Session) Refresh(ctx context.Context, includeRemotes bool) (*snapshot.Snapshot, error) {
	s.gitMu.Lock()
	defer s.gitMu.Unlock()
	return s.refreshLocked(ctx, includeRemotes)
}

func (s *Session) refreshLocked(ctx context.Context, includeRemotes bool) (*snapshot.Snapshot, error) {
	start := time.Now()
	built, err := s.builder.Build(ctx, snapshot.Options{IncludeRemotes: includeRemotes})
	if err != nil {
		log.Warn("refresh failed", "err", err)
		return nil, err
	}
	snap, err := s.annotator.Annotate(ctx, built, s.opts.BaseBranch)
	if err != nil {
		log.Warn("refresh failed", "err", err)
		return nil, err
	}

	s.published.Store(snap)
	s.ctrl.Sync(snap)

	s.mu.Lock()
	s.includeRemotes = includeRemotes
	s.recomputeLocked()
	s.mu.Unlock()

	log.Debug("refresh published", "branches", snap.Len(), "base", snap.BaseBranch, "took", time.Since(start))
	return snap, nil
}

// Snapshot returns the last published snapshot, or nil before the first
// successful refresh.
func (s *Session) Snapshot() *snapshot.Snapshot {
	return s.published.Load()
}

// IncludeRemotes reports whether the published snapshot has remote records.
func (s *Session) IncludeRemotes() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.includeRemotes
}

// SetFilter replaces the filter state and returns the new visible list.
func (s *Session) SetFilter(st filter.State) []models.Branch {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = st
	s.recomputeLocked()
	return append([]models.Branch(nil), s.visible...)
}

// Filter returns the active filter state.
func (s *Session) Filter() filter.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// Visible returns the filtered branch list.
func (s *Session) Visible() []models.Branch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Branch(nil), s.visible...)
}

// Select moves the selection to i, clamped to the visible list.
func (s *Session) Select(i int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = filter.ClampIndex(i, len(s.visible))
	return s.selected
}

// Selected returns the selected index and record. ok is false when the
// visible list is empty.
func (s *Session) Selected() (int, models.Branch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected < 0 || s.selected >= len(s.visible) {
		return -1, models.Branch{}, false
	}
	return s.selected, s.visible[s.selected], true
}

// recomputeLocked derives the visible list from the published snapshot and
// keeps the selection on the same branch when it is still visible.
func (s *Session) recomputeLocked() {
	var prev *models.Branch
	if s.selected >= 0 && s.selected < len(s.visible) {
		b := s.visible[s.selected]
		prev = &b
	}

	snap := s.published.Load()
	if snap == nil {
		s.visible = nil
		s.selected = -1
		return
	}
	s.visible = filter.Apply(snap.Branches, s.filter, s.opts.Now())

	if prev != nil {
		for i, b := range s.visible {
			if b.Name == prev.Name && b.IsRemote == prev.IsRemote {
				s.selected = i
				return
			}
		}
	}
	if s.selected < 0 {
		s.selected = 0
	}
	s.selected = filter.ClampIndex(s.selected, len(s.visible))
}

// Submit feeds a transition event to the controller. When the event
// completed a mutation the snapshot is rebuilt before Submit returns.
func (s *Session) Submit(ctx context.Context, ev transition.Event) transition.Outcome {
	s.gitMu.Lock()
	defer s.gitMu.Unlock()

	out := s.ctrl.Submit(ctx, ev)
	if !out.Refresh {
		return out
	}
	if _, err := s.refreshLocked(ctx, s.IncludeRemotes()); err != nil {
		out.Err = gbmerrors.Join(out.Err, err)
	}
	if out.Kind == transition.KindCheckout || out.Kind == transition.KindRename {
		s.selectName(s.ctrl.Current())
	}
	return out
}

func (s *Session) selectName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.visible {
		if !b.IsRemote && b.Name == name {
			s.selected = i
			return
		}
	}
}

// Pending returns the prompt the controller is waiting on.
func (s *Session) Pending() transition.Prompt {
	s.gitMu.Lock()
	defer s.gitMu.Unlock()
	return s.ctrl.Prompt()
}

// TrackedStash returns the stash the pop command would restore.
func (s *Session) TrackedStash() *models.Stash {
	s.gitMu.Lock()
	defer s.gitMu.Unlock()
	return s.ctrl.TrackedStash()
}

// IsProtected reports whether deleting name needs the extra confirmation.
func (s *Session) IsProtected(name string) bool {
	return s.ctrl.IsProtected(name)
}

// Fetch updates remote-tracking refs and rebuilds the snapshot.
func (s *Session) Fetch(ctx context.Context) (*snapshot.Snapshot, error) {
	s.gitMu.Lock()
	defer s.gitMu.Unlock()

	fetchCtx := ctx
	if s.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.opts.FetchTimeout)
		defer cancel()
	}
	if err := s.gw.FetchAll(fetchCtx); err != nil {
		return nil, gbmerrors.NewMutationError("fetch", "", err)
	}
	return s.refreshLocked(ctx, s.IncludeRemotes())
}

// AuthorEmail returns the identity used by the author filter.
func (s *Session) AuthorEmail(ctx context.Context) (string, error) {
	if s.opts.AuthorEmail != "" {
		return s.opts.AuthorEmail, nil
	}
	s.gitMu.Lock()
	defer s.gitMu.Unlock()
	email, err := s.gw.UserEmail(ctx)
	if err != nil {
		return "", gbmerrors.NewQueryError("user email", err)
	}
	return email, nil
}
