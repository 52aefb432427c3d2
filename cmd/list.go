package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/daveschumaker/gbm/internal/models"
	"github.com/daveschumaker/gbm/internal/snapshot"
)

var listFlags struct {
	search     string
	mine       bool
	maxAgeDays int
	prefix     string
	hideMerged bool
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print branches, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		ctx := cmd.Context()
		if err := env.refresh(ctx); err != nil {
			return err
		}

		st := env.session.Filter()
		st.Search = listFlags.search
		st.Mine = listFlags.mine
		st.Prefix = listFlags.prefix
		st.HideMerged = listFlags.hideMerged
		if listFlags.maxAgeDays > 0 {
			st.MaxAge = time.Duration(listFlags.maxAgeDays) * 24 * time.Hour
		}
		visible := env.session.SetFilter(st)

		out := os.Stdout
		styled := isatty.IsTerminal(out.Fd())
		width := 0
		if styled {
			if w, _, err := term.GetSize(int(out.Fd())); err == nil {
				width = w
			}
		}
		return renderList(out, visible, time.Now(), styled, width)
	},
}

func init() {
	listCmd.Flags().StringVarP(&listFlags.search, "search", "s", "", "only names containing this text")
	listCmd.Flags().BoolVarP(&listFlags.mine, "mine", "m", false, "only branches whose last commit is yours")
	listCmd.Flags().IntVar(&listFlags.maxAgeDays, "max-age", 0, "only branches committed to in the last N days")
	listCmd.Flags().StringVarP(&listFlags.prefix, "prefix", "p", "", "only names starting with this prefix")
	listCmd.Flags().BoolVar(&listFlags.hideMerged, "hide-merged", false, "hide branches merged into the base branch")
	rootCmd.AddCommand(listCmd)
}

var (
	listCurrentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	listRemoteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	listHashStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	listDimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// renderList writes one line per branch. Plain output is tab separated so it
// pipes cleanly into cut and awk.
func renderList(w io.Writer, branches []models.Branch, now time.Time, styled bool, width int) error {
	for _, b := range branches {
		var line string
		if styled {
			line = styledLine(b, now)
			if width > 0 {
				line = truncate.StringWithTail(line, uint(width), "…")
			}
		} else {
			line = plainLine(b, now)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func plainLine(b models.Branch, now time.Time) string {
	marker := " "
	if b.IsCurrent {
		marker = "*"
	}
	return strings.Join([]string{
		marker,
		b.Name,
		b.Hash,
		snapshot.RelativeAge(b.CommitTime, now),
		b.AuthorEmail,
		strings.Join(flags(b), ","),
		b.Summary,
	}, "\t")
}

func styledLine(b models.Branch, now time.Time) string {
	name := "  " + b.Name
	switch {
	case b.IsCurrent:
		name = "* " + listCurrentStyle.Render(b.Name)
	case b.IsRemote:
		name = "  " + listRemoteStyle.Render(b.Name)
	}
	parts := []string{
		name,
		listHashStyle.Render(b.Hash),
		listDimStyle.Render(snapshot.RelativeAge(b.CommitTime, now)),
	}
	if f := flags(b); len(f) > 0 {
		parts = append(parts, "["+strings.Join(f, " ")+"]")
	}
	parts = append(parts, b.Summary)
	return strings.Join(parts, "  ")
}

func flags(b models.Branch) []string {
	var out []string
	if b.HasUncommittedChanges {
		out = append(out, "modified")
	}
	if b.IsMerged {
		out = append(out, "merged")
	}
	if b.InWorktree {
		out = append(out, "worktree")
	}
	if b.Ahead > 0 || b.Behind > 0 {
		out = append(out, fmt.Sprintf("+%d/-%d", b.Ahead, b.Behind))
	}
	if !b.IsRemote && !b.HasUpstream {
		out = append(out, "local")
	}
	return out
}
