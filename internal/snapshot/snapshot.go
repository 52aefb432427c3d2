// Package snapshot builds the branch list shown by gbm. A Snapshot is
// assembled from a fixed number of gateway queries, annotated with derived
// status, and then treated as immutable.
package snapshot

import (
	"context"
	"sort"
	"time"

	gbmerrors "github.com/daveschumaker/gbm/internal/errors"
	"github.com/daveschumaker/gbm/internal/log"
	"github.com/daveschumaker/gbm/internal/models"
)

// Source is the read-only part of the repository gateway the builder needs.
type Source interface {
	CurrentBranch(ctx context.Context) (string, error)
	ListLocalBranches(ctx context.Context) ([]models.LocalRef, error)
	ListRemoteBranches(ctx context.Context) ([]models.RemoteRef, error)
	BatchRefMetadata(ctx context.Context, refs []string) ([]models.RefMeta, error)
	WorkingTreeDirty(ctx context.Context) (bool, error)
}

// Snapshot is the branch set for one point in time. Callers must not modify
// a published Snapshot; Annotate returns a copy.
type Snapshot struct {
	Branches       []models.Branch // sorted by commit time, newest first
	Current        string          // empty on a detached HEAD
	IncludeRemotes bool
	Dirty          bool
	BaseBranch     string // resolved by Annotate; empty when none applies
	TakenAt        time.Time

	// remoteShort holds the short names of every remote-tracking ref, even
	// when remote records are not part of Branches.
	remoteShort map[string]bool
	// occupied marks local branches checked out in another worktree.
	occupied map[string]bool
}

// Len returns the number of branch records.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Branches)
}

// Find returns the record with the given name and locality.
func (s *Snapshot) Find(name string, remote bool) (models.Branch, bool) {
	if s == nil {
		return models.Branch{}, false
	}
	for _, b := range s.Branches {
		if b.Name == name && b.IsRemote == remote {
			return b, true
		}
	}
	return models.Branch{}, false
}

// HasLocal reports whether a local branch called name exists.
func (s *Snapshot) HasLocal(name string) bool {
	_, ok := s.Find(name, false)
	return ok
}

// Options controls a build.
type Options struct {
	IncludeRemotes bool
}

// Builder issues the gateway queries for a refresh.
type Builder struct {
	src Source
	now func() time.Time
}

// NewBuilder creates a Builder reading from src.
func NewBuilder(src Source) *Builder {
	return &Builder{src: src, now: time.Now}
}

// Build queries the repository and returns a fresh, unannotated Snapshot.
// The number of gateway calls does not depend on the number of branches:
// one each for the current branch, local refs, remote refs, batched
// metadata and working tree status. Any failure aborts the build.
func (b *Builder) Build(ctx context.Context, opts Options) (*Snapshot, error) {
	current, err := b.src.CurrentBranch(ctx)
	if err != nil {
		return nil, gbmerrors.NewQueryError("current branch", err)
	}

	locals, err := b.src.ListLocalBranches(ctx)
	if err != nil {
		return nil, gbmerrors.NewQueryError("list local branches", err)
	}

	remotes, err := b.src.ListRemoteBranches(ctx)
	if err != nil {
		return nil, gbmerrors.NewQueryError("list remote branches", err)
	}

	snap := &Snapshot{
		Current:        current,
		IncludeRemotes: opts.IncludeRemotes,
		TakenAt:        b.now(),
		remoteShort:    make(map[string]bool, len(remotes)),
		occupied:       make(map[string]bool),
	}

	type candidate struct {
		name   string
		remote string
		ref    string
	}
	var candidates []candidate
	localNames := make(map[string]bool, len(locals))
	for _, l := range locals {
		if localNames[l.Name] {
			continue
		}
		localNames[l.Name] = true
		if l.InWorktree {
			snap.occupied[l.Name] = true
		}
		candidates = append(candidates, candidate{name: l.Name, ref: "refs/heads/" + l.Name})
	}

	seenRemote := make(map[string]bool, len(remotes))
	for _, r := range remotes {
		snap.remoteShort[r.ShortName()] = true
		if !opts.IncludeRemotes || localNames[r.ShortName()] || seenRemote[r.Name] {
			continue
		}
		seenRemote[r.Name] = true
		candidates = append(candidates, candidate{name: r.Name, remote: r.Remote, ref: "refs/remotes/" + r.Name})
	}

	refs := make([]string, len(candidates))
	for i, c := range candidates {
		refs[i] = c.ref
	}
	metas, err := b.src.BatchRefMetadata(ctx, refs)
	if err != nil {
		return nil, gbmerrors.NewQueryError("ref metadata", err)
	}
	byRef := make(map[string]models.RefMeta, len(metas))
	for _, m := range metas {
		byRef[m.Ref] = m
	}

	dirty, err := b.src.WorkingTreeDirty(ctx)
	if err != nil {
		return nil, gbmerrors.NewQueryError("working tree status", err)
	}
	snap.Dirty = dirty

	snap.Branches = make([]models.Branch, 0, len(candidates))
	for _, c := range candidates {
		meta, ok := byRef[c.ref]
		if !ok {
			// deleted between enumeration and the metadata query
			log.Debug("dropping vanished ref", "ref", c.ref)
			continue
		}
		isRemote := c.remote != ""
		isCurrent := !isRemote && current != "" && c.name == current
		snap.Branches = append(snap.Branches, models.Branch{
			Name:                  c.name,
			RemoteName:            c.remote,
			IsCurrent:             isCurrent,
			IsRemote:              isRemote,
			Hash:                  meta.Hash,
			CommitTime:            meta.CommitTime,
			Summary:               meta.Summary,
			AuthorEmail:           meta.AuthorEmail,
			HasUncommittedChanges: isCurrent && dirty,
		})
	}

	sort.SliceStable(snap.Branches, func(i, j int) bool {
		return snap.Branches[i].CommitTime.After(snap.Branches[j].CommitTime)
	})

	log.Debug("snapshot built", "branches", len(snap.Branches), "current", current, "remotes", opts.IncludeRemotes)
	return snap, nil
}

func (s *Snapshot) clone() *Snapshot {
	cp := *s
	cp.Branches = append([]models.Branch(nil), s.Branches...)
	return &cp
}
