package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/daveschumaker/gbm/internal/models"
	"github.com/daveschumaker/gbm/internal/snapshot"
)

var (
	branchStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	currentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	remoteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	hashStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	modifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	badgeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("238"))
)

// BranchView renders the visible branch list with a scrolling window.
type BranchView struct {
	branches []models.Branch
	cursor   int
	offset   int
	width    int
	height   int
	now      func() time.Time
}

func NewBranchView(now func() time.Time) *BranchView {
	if now == nil {
		now = time.Now
	}
	return &BranchView{cursor: -1, now: now}
}

// SetBranches replaces the rows and the selected index.
func (b *BranchView) SetBranches(branches []models.Branch, cursor int) {
	b.branches = branches
	b.cursor = cursor
	b.scrollToCursor()
}

func (b *BranchView) SetSize(width, height int) {
	b.width = width
	b.height = height
	b.scrollToCursor()
}

func (b *BranchView) scrollToCursor() {
	if b.height <= 0 || b.cursor < 0 {
		b.offset = 0
		return
	}
	if b.cursor < b.offset {
		b.offset = b.cursor
	}
	if b.cursor >= b.offset+b.height {
		b.offset = b.cursor - b.height + 1
	}
	if maxOffset := len(b.branches) - b.height; b.offset > maxOffset {
		b.offset = max(maxOffset, 0)
	}
}

func (b *BranchView) View() string {
	if len(b.branches) == 0 {
		return dimStyle.Render("  No branches match the current filters.")
	}

	end := len(b.branches)
	if b.height > 0 && b.offset+b.height < end {
		end = b.offset + b.height
	}

	var out strings.Builder
	for i := b.offset; i < end; i++ {
		out.WriteString(b.renderRow(b.branches[i], i == b.cursor))
		if i < end-1 {
			out.WriteString("\n")
		}
	}
	return out.String()
}

func (b *BranchView) renderRow(branch models.Branch, selected bool) string {
	var name string
	switch {
	case branch.IsCurrent:
		name = "* " + currentStyle.Render(branch.Name)
	case branch.IsRemote:
		name = "  " + remoteStyle.Render(branch.Name)
	default:
		name = "  " + branchStyle.Render(branch.Name)
	}
	if branch.HasUncommittedChanges {
		name += modifiedStyle.Render(" [modified]")
	}

	parts := []string{
		name,
		dimStyle.Render(snapshot.RelativeAge(branch.CommitTime, b.now())),
		hashStyle.Render(branch.Hash),
	}
	if badges := rowBadges(branch); badges != "" {
		parts = append(parts, badgeStyle.Render(badges))
	}
	line := strings.Join(parts, " • ")

	if branch.Summary != "" {
		line += " • " + dimStyle.Render(branch.Summary)
	}

	if b.width > 4 {
		line = truncate.StringWithTail(line, uint(b.width-2), "…")
	}

	if selected {
		return selectedStyle.Render("▸ " + line)
	}
	return "  " + line
}

func rowBadges(branch models.Branch) string {
	var badges []string
	if branch.Ahead > 0 || branch.Behind > 0 {
		badges = append(badges, fmt.Sprintf("↑%d ↓%d", branch.Ahead, branch.Behind))
	}
	if branch.IsMerged {
		badges = append(badges, "merged")
	}
	if branch.InWorktree {
		badges = append(badges, "worktree")
	}
	if !branch.IsRemote && !branch.HasUpstream {
		badges = append(badges, "local only")
	}
	return strings.Join(badges, " ")
}
