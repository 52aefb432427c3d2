package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/daveschumaker/gbm/internal/session"
	"github.com/daveschumaker/gbm/internal/transition"
)

type snapshotMsg struct {
	err error
}

type outcomeMsg struct {
	out transition.Outcome
}

type authorMsg struct {
	email string
	err   error
}

type clipboardMsg struct {
	text string
	err  error
}

type watchMsg struct{}

func refreshCmd(ctx context.Context, s *session.Session, includeRemotes bool) tea.Cmd {
	return func() tea.Msg {
		_, err := s.Refresh(ctx, includeRemotes)
		return snapshotMsg{err: err}
	}
}

func fetchCmd(ctx context.Context, s *session.Session) tea.Cmd {
	return func() tea.Msg {
		_, err := s.Fetch(ctx)
		return snapshotMsg{err: err}
	}
}

func submitCmd(ctx context.Context, s *session.Session, ev transition.Event) tea.Cmd {
	return func() tea.Msg {
		return outcomeMsg{out: s.Submit(ctx, ev)}
	}
}

func authorCmd(ctx context.Context, s *session.Session) tea.Cmd {
	return func() tea.Msg {
		email, err := s.AuthorEmail(ctx)
		return authorMsg{email: email, err: err}
	}
}

func copyCmd(write func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardMsg{text: text, err: write(text)}
	}
}

// waitForWatch blocks until the watcher reports a change. A closed channel
// ends the subscription.
func waitForWatch(events <-chan struct{}) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-events; !ok {
			return nil
		}
		return watchMsg{}
	}
}
