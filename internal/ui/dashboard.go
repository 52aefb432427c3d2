package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/daveschumaker/gbm/internal/models"
	"github.com/daveschumaker/gbm/internal/snapshot"
)

// DetailsView shows everything known about the selected branch.
type DetailsView struct {
	branch *models.Branch
	base   string
	width  int
	now    func() time.Time
}

func NewDetailsView(now func() time.Time) *DetailsView {
	if now == nil {
		now = time.Now
	}
	return &DetailsView{now: now}
}

func (d *DetailsView) SetBranch(b *models.Branch, base string) {
	d.branch = b
	d.base = base
}

func (d *DetailsView) SetWidth(width int) {
	d.width = width
}

func (d *DetailsView) View() string {
	if d.branch == nil {
		return ""
	}
	b := d.branch

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("cyan")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("white"))

	greenStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("34")).
		Bold(true)

	orangeStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Bold(true)

	yesNo := func(v bool) string {
		if v {
			return "yes"
		}
		return "no"
	}

	row := func(label, value string) string {
		return fmt.Sprintf("%s %s", labelStyle.Render(label+":"), valueStyle.Render(value))
	}

	metrics := []string{
		row("Branch", b.Name),
		row("Commit", fmt.Sprintf("%s (%s, %s)", b.Hash, snapshot.RelativeAge(b.CommitTime, d.now()), b.CommitTime.Local().Format("2006-01-02 15:04"))),
		row("Author", b.AuthorEmail),
		row("Summary", b.Summary),
	}

	if b.IsRemote {
		metrics = append(metrics, row("Remote", b.RemoteName))
	} else {
		metrics = append(metrics,
			row("Pushed", yesNo(b.HasUpstream)),
			row("Worktree elsewhere", yesNo(b.InWorktree)),
		)
		if d.base != "" && b.Name != d.base {
			metrics = append(metrics,
				row("Merged into "+d.base, yesNo(b.IsMerged)),
				fmt.Sprintf("%s %s %s",
					labelStyle.Render("vs "+d.base+":"),
					greenStyle.Render(fmt.Sprintf("↑%d", b.Ahead)),
					orangeStyle.Render(fmt.Sprintf("↓%d", b.Behind)),
				),
			)
		}
	}
	if b.HasUncommittedChanges {
		metrics = append(metrics, row("Working tree", "uncommitted changes"))
	}

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 2)
	if d.width > 10 {
		boxStyle = boxStyle.Width(d.width - 4)
	}

	return boxStyle.Render(strings.Join(metrics, "\n"))
}
