package testhelpers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/daveschumaker/gbm/internal/models"
)

// Operation names recorded by FakeGateway.
const (
	OpCurrentBranch      = "CurrentBranch"
	OpListLocalBranches  = "ListLocalBranches"
	OpListRemoteBranches = "ListRemoteBranches"
	OpBatchRefMetadata   = "BatchRefMetadata"
	OpWorkingTreeDirty   = "WorkingTreeDirty"
	OpWorkingTreeStatus  = "WorkingTreeStatus"
	OpMergedInto         = "MergedInto"
	OpAheadBehind        = "AheadBehind"
	OpUserEmail          = "UserEmail"
	OpFetchAll           = "FetchAll"
	OpCheckout           = "Checkout"
	OpDeleteBranch       = "DeleteBranch"
	OpRenameBranch       = "RenameBranch"
	OpStashPush          = "StashPush"
	OpStashPop           = "StashPop"
	OpStashList          = "StashList"
)

// ErrFake is the default injected failure.
var ErrFake = errors.New("fake git failure")

// FakeGateway is an in-memory repository that records every call. Mutations
// change its state the way git would, so a refresh after a mutation sees
// the result.
type FakeGateway struct {
	mu sync.Mutex

	Current string
	Locals  []models.LocalRef
	Remotes []models.RemoteRef
	Meta    map[string]models.RefMeta // keyed by full refname
	Dirty   bool
	// Files overrides the entries WorkingTreeStatus reports while Dirty.
	Files   []models.FileChange
	Merged  map[string][]string // base -> merged local names
	Counts  map[string][2]int   // branch -> ahead, behind
	Email   string
	Stashes []models.Stash

	// Fail maps an operation key to the error it returns. Keys are operation
	// names, optionally followed by a space and the first argument, e.g.
	// "DeleteBranch -d" or "Checkout feature".
	Fail map[string]error

	// BeforeCall runs outside the lock before every operation.
	BeforeCall func(op string)

	calls     map[string]int
	mutations []string
	stashSeq  int
}

// NewFakeGateway returns an empty fake on branch main with no commits.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		Meta:   map[string]models.RefMeta{},
		Merged: map[string][]string{},
		Counts: map[string][2]int{},
		Fail:   map[string]error{},
		calls:  map[string]int{},
	}
}

// AddLocal registers a local branch with tip metadata.
func (f *FakeGateway) AddLocal(name, email string, when time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Locals = append(f.Locals, models.LocalRef{Name: name})
	ref := "refs/heads/" + name
	f.Meta[ref] = models.RefMeta{
		Ref:         ref,
		Hash:        fakeHash(name),
		CommitTime:  when,
		Summary:     "work on " + name,
		AuthorEmail: email,
	}
}

// AddRemote registers a remote-tracking branch such as origin/feature.
func (f *FakeGateway) AddRemote(full, email string, when time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	remote, _, _ := strings.Cut(full, "/")
	f.Remotes = append(f.Remotes, models.RemoteRef{Remote: remote, Name: full})
	ref := "refs/remotes/" + full
	f.Meta[ref] = models.RefMeta{
		Ref:         ref,
		Hash:        fakeHash(full),
		CommitTime:  when,
		Summary:     "work on " + full,
		AuthorEmail: email,
	}
}

// SetInWorktree flags a local branch as checked out elsewhere.
func (f *FakeGateway) SetInWorktree(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.Locals {
		if f.Locals[i].Name == name {
			f.Locals[i].InWorktree = true
		}
	}
}

// AddStash prepends a stash entry with message, as if made on branch.
func (f *FakeGateway) AddStash(branch, message string) models.Stash {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushStashLocked("On " + branch + ": " + message)
}

// Calls returns how often op has been invoked.
func (f *FakeGateway) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// ResetCalls clears the call counters and the mutation log.
func (f *FakeGateway) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = map[string]int{}
	f.mutations = nil
}

// Mutations returns the mutating calls in order, e.g. "DeleteBranch -D x".
func (f *FakeGateway) Mutations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.mutations...)
}

// HasLocal reports whether a local branch exists.
func (f *FakeGateway) HasLocal(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.localIndex(name) >= 0
}

// CurrentName returns the checked out branch.
func (f *FakeGateway) CurrentName() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Current
}

// IsDirty returns the simulated working tree state.
func (f *FakeGateway) IsDirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Dirty
}

// StashCount returns the number of stash entries.
func (f *FakeGateway) StashCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Stashes)
}

func (f *FakeGateway) enter(op string, args ...string) error {
	if f.BeforeCall != nil {
		f.BeforeCall(op)
	}
	f.mu.Lock()
	f.calls[op]++
	err := f.failure(op, args...)
	f.mu.Unlock()
	return err
}

func (f *FakeGateway) failure(op string, args ...string) error {
	if len(args) > 0 {
		if err, ok := f.Fail[op+" "+args[0]]; ok {
			return err
		}
	}
	return f.Fail[op]
}

func (f *FakeGateway) record(op string, args ...string) {
	f.mutations = append(f.mutations, strings.TrimSpace(op+" "+strings.Join(args, " ")))
}

// CurrentBranch implements the gateway query.
func (f *FakeGateway) CurrentBranch(ctx context.Context) (string, error) {
	if err := f.enter(OpCurrentBranch); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Current, nil
}

// ListLocalBranches implements the gateway query.
func (f *FakeGateway) ListLocalBranches(ctx context.Context) ([]models.LocalRef, error) {
	if err := f.enter(OpListLocalBranches); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.LocalRef(nil), f.Locals...), nil
}

// ListRemoteBranches implements the gateway query.
func (f *FakeGateway) ListRemoteBranches(ctx context.Context) ([]models.RemoteRef, error) {
	if err := f.enter(OpListRemoteBranches); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.RemoteRef(nil), f.Remotes...), nil
}

// BatchRefMetadata implements the gateway query. Unknown refs are omitted.
func (f *FakeGateway) BatchRefMetadata(ctx context.Context, refs []string) ([]models.RefMeta, error) {
	if err := f.enter(OpBatchRefMetadata); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RefMeta
	for _, ref := range refs {
		if meta, ok := f.Meta[ref]; ok {
			out = append(out, meta)
		}
	}
	return out, nil
}

// WorkingTreeDirty implements the gateway query.
func (f *FakeGateway) WorkingTreeDirty(ctx context.Context) (bool, error) {
	if err := f.enter(OpWorkingTreeDirty); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Dirty, nil
}

// WorkingTreeStatus implements the gateway query. A dirty tree without
// explicit Files reports one unstaged modification.
func (f *FakeGateway) WorkingTreeStatus(ctx context.Context) ([]models.FileChange, error) {
	if err := f.enter(OpWorkingTreeStatus); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.Dirty {
		return nil, nil
	}
	if len(f.Files) > 0 {
		return append([]models.FileChange(nil), f.Files...), nil
	}
	return []models.FileChange{{Path: "file.txt", Status: models.StatusModified}}, nil
}

// MergedInto implements the gateway query.
func (f *FakeGateway) MergedInto(ctx context.Context, base string) ([]string, error) {
	if err := f.enter(OpMergedInto, base); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Merged[base]...), nil
}

// AheadBehind implements the gateway query.
func (f *FakeGateway) AheadBehind(ctx context.Context, branch, base string) (int, int, error) {
	if err := f.enter(OpAheadBehind, branch); err != nil {
		return 0, 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.Counts[branch]
	return c[0], c[1], nil
}

// UserEmail implements the gateway query.
func (f *FakeGateway) UserEmail(ctx context.Context) (string, error) {
	if err := f.enter(OpUserEmail); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Email, nil
}

// FetchAll implements the gateway mutation.
func (f *FakeGateway) FetchAll(ctx context.Context) error {
	if err := f.enter(OpFetchAll); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(OpFetchAll)
	return nil
}

// Checkout implements the gateway mutation.
func (f *FakeGateway) Checkout(ctx context.Context, ref, createLocalAs string) error {
	if err := f.enter(OpCheckout, ref); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if createLocalAs != "" {
		f.record(OpCheckout, ref, "-b", createLocalAs)
		if f.localIndex(createLocalAs) >= 0 {
			return fmt.Errorf("a branch named '%s' already exists", createLocalAs)
		}
		meta, ok := f.Meta["refs/remotes/"+ref]
		if !ok {
			return fmt.Errorf("invalid reference: %s", ref)
		}
		meta.Ref = "refs/heads/" + createLocalAs
		f.Meta[meta.Ref] = meta
		f.Locals = append(f.Locals, models.LocalRef{Name: createLocalAs})
		f.Current = createLocalAs
		return nil
	}
	f.record(OpCheckout, ref)
	if f.localIndex(ref) < 0 {
		return fmt.Errorf("pathspec '%s' did not match any file(s) known to git", ref)
	}
	f.Current = ref
	return nil
}

// DeleteBranch implements the gateway mutation.
func (f *FakeGateway) DeleteBranch(ctx context.Context, name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	if err := f.enter(OpDeleteBranch, flag); err != nil {
		f.mu.Lock()
		f.record(OpDeleteBranch, flag, name)
		f.mu.Unlock()
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(OpDeleteBranch, flag, name)
	idx := f.localIndex(name)
	if idx < 0 {
		return fmt.Errorf("branch '%s' not found", name)
	}
	f.Locals = append(f.Locals[:idx], f.Locals[idx+1:]...)
	delete(f.Meta, "refs/heads/"+name)
	return nil
}

// RenameBranch implements the gateway mutation.
func (f *FakeGateway) RenameBranch(ctx context.Context, oldName, newName string) error {
	if err := f.enter(OpRenameBranch, oldName); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(OpRenameBranch, oldName, newName)
	if f.localIndex(newName) >= 0 {
		return fmt.Errorf("a branch named '%s' already exists", newName)
	}
	idx := f.localIndex(oldName)
	if idx < 0 {
		return fmt.Errorf("branch '%s' not found", oldName)
	}
	f.Locals[idx].Name = newName
	if meta, ok := f.Meta["refs/heads/"+oldName]; ok {
		delete(f.Meta, "refs/heads/"+oldName)
		meta.Ref = "refs/heads/" + newName
		f.Meta[meta.Ref] = meta
	}
	if f.Current == oldName {
		f.Current = newName
	}
	return nil
}

// StashPush implements the gateway mutation.
func (f *FakeGateway) StashPush(ctx context.Context, message string) (*models.Stash, error) {
	if err := f.enter(OpStashPush); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(OpStashPush, message)
	if !f.Dirty {
		return nil, nil
	}
	s := f.pushStashLocked("On " + f.Current + ": " + message)
	f.Dirty = false
	return &s, nil
}

// StashPop implements the gateway mutation.
func (f *FakeGateway) StashPop(ctx context.Context, ref string) error {
	if err := f.enter(OpStashPop, ref); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(OpStashPop, ref)
	for i, s := range f.Stashes {
		if s.Ref == ref {
			f.Stashes = append(f.Stashes[:i], f.Stashes[i+1:]...)
			f.renumberStashes()
			f.Dirty = true
			return nil
		}
	}
	return fmt.Errorf("%s is not a valid reference", ref)
}

// StashList implements the gateway query.
func (f *FakeGateway) StashList(ctx context.Context) ([]models.Stash, error) {
	if err := f.enter(OpStashList); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Stash(nil), f.Stashes...), nil
}

func (f *FakeGateway) pushStashLocked(message string) models.Stash {
	f.stashSeq++
	s := models.Stash{
		Hash:    fmt.Sprintf("%040d", f.stashSeq),
		Message: message,
		Branch:  models.StashBranch(message),
	}
	f.Stashes = append([]models.Stash{s}, f.Stashes...)
	f.renumberStashes()
	return f.Stashes[0]
}

func (f *FakeGateway) renumberStashes() {
	for i := range f.Stashes {
		f.Stashes[i].Ref = fmt.Sprintf("stash@{%d}", i)
	}
}

func (f *FakeGateway) localIndex(name string) int {
	for i, l := range f.Locals {
		if l.Name == name {
			return i
		}
	}
	return -1
}

// LocalNames returns the local branch names in sorted order.
func (f *FakeGateway) LocalNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.Locals))
	for _, l := range f.Locals {
		names = append(names, l.Name)
	}
	sort.Strings(names)
	return names
}

func fakeHash(name string) string {
	h := uint32(2166136261)
	for i := 0; i < len(name); i++ {
		h ^= uint32(name[i])
		h *= 16777619
	}
	return fmt.Sprintf("%012x", uint64(h)*0x9e3779b1)[:12]
}
