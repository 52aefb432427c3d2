// Package filter narrows a branch list down to what the operator asked to see.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/daveschumaker/gbm/internal/models"
)

// State holds the independent filter toggles. The zero value shows everything.
type State struct {
	Search      string        // case-insensitive substring of the branch name
	Mine        bool          // only branches whose tip was authored by AuthorEmail
	AuthorEmail string        // ignored unless Mine is set
	MaxAge      time.Duration // zero disables the age filter
	Prefix      string        // name prefix, matched against the short name
	HideMerged  bool          // hide merged branches except the current one
}

// Active reports whether any predicate narrows the list.
func (s State) Active() bool {
	return s.Search != "" || (s.Mine && s.AuthorEmail != "") || s.MaxAge > 0 || s.Prefix != "" || s.HideMerged
}

// Clear returns a State with every predicate disabled but the author identity kept.
func (s State) Clear() State {
	return State{AuthorEmail: s.AuthorEmail}
}

// Summary renders the active predicates for a status line.
func (s State) Summary() string {
	var parts []string
	if s.Search != "" {
		parts = append(parts, "search:"+s.Search)
	}
	if s.Mine && s.AuthorEmail != "" {
		parts = append(parts, "mine")
	}
	if s.MaxAge > 0 {
		parts = append(parts, "age<"+formatDays(s.MaxAge))
	}
	if s.Prefix != "" {
		parts = append(parts, "prefix:"+s.Prefix)
	}
	if s.HideMerged {
		parts = append(parts, "hide merged")
	}
	return strings.Join(parts, " ")
}

func formatDays(d time.Duration) string {
	day := 24 * time.Hour
	if d%day == 0 {
		return fmt.Sprintf("%dd", d/day)
	}
	return d.String()
}

type predicate func(models.Branch) bool

// Apply returns the branches accepted by every enabled predicate, in input
// order. Stages run as search, author, age, prefix, merged. The input slice
// is never modified.
func Apply(branches []models.Branch, st State, now time.Time) []models.Branch {
	stages := st.pipeline(now)
	out := make([]models.Branch, 0, len(branches))
	for _, b := range branches {
		if accept(b, stages) {
			out = append(out, b)
		}
	}
	return out
}

func accept(b models.Branch, stages []predicate) bool {
	for _, p := range stages {
		if !p(b) {
			return false
		}
	}
	return true
}

func (s State) pipeline(now time.Time) []predicate {
	var stages []predicate

	if s.Search != "" {
		needle := strings.ToLower(s.Search)
		stages = append(stages, func(b models.Branch) bool {
			return strings.Contains(strings.ToLower(b.Name), needle)
		})
	}

	if s.Mine && s.AuthorEmail != "" {
		stages = append(stages, func(b models.Branch) bool {
			return strings.EqualFold(b.AuthorEmail, s.AuthorEmail)
		})
	}

	if s.MaxAge > 0 {
		cutoff := now.Add(-s.MaxAge)
		stages = append(stages, func(b models.Branch) bool {
			return !b.CommitTime.Before(cutoff)
		})
	}

	if s.Prefix != "" {
		stages = append(stages, func(b models.Branch) bool {
			return strings.HasPrefix(b.ShortName(), s.Prefix)
		})
	}

	if s.HideMerged {
		stages = append(stages, func(b models.Branch) bool {
			return b.IsCurrent || !b.IsMerged
		})
	}

	return stages
}

// ClampIndex keeps a selection inside a list of n items. It returns -1 for an
// empty list.
func ClampIndex(i, n int) int {
	if n <= 0 {
		return -1
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
