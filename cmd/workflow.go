package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/daveschumaker/gbm/internal/models"
	"github.com/daveschumaker/gbm/internal/session"
	"github.com/daveschumaker/gbm/internal/snapshot"
	"github.com/daveschumaker/gbm/internal/transition"
)

var (
	errConfirmationRequired = errors.New("confirmation required; rerun with --yes")
	errProtected            = errors.New("refusing to delete a protected branch without --force-protected")
)

// answerer replies to controller prompts outside the TUI.
type answerer interface {
	Choose(p transition.Prompt) (transition.Choice, error)
}

type surveyAnswerer struct{}

func (surveyAnswerer) Choose(p transition.Prompt) (transition.Choice, error) {
	if len(p.Choices) == 2 {
		confirmed := false
		prompt := &survey.Confirm{
			Message: p.Text,
			Default: false,
		}
		if err := survey.AskOne(prompt, &confirmed); err != nil {
			return interrupted(err)
		}
		if confirmed {
			return transition.ChoiceYes, nil
		}
		return transition.ChoiceNo, nil
	}

	labels := make([]string, len(p.Choices))
	byLabel := make(map[string]transition.Choice, len(p.Choices))
	for i, c := range p.Choices {
		labels[i] = choiceLabel(p.Kind, c)
		byLabel[labels[i]] = c
	}
	var selected string
	prompt := &survey.Select{
		Message: p.Text,
		Options: labels,
		Default: labels[0],
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return interrupted(err)
	}
	return byLabel[selected], nil
}

func interrupted(err error) (transition.Choice, error) {
	if errors.Is(err, terminal.InterruptErr) {
		return transition.ChoiceCancel, nil
	}
	return transition.ChoiceCancel, err
}

func choiceLabel(kind transition.PromptKind, c transition.Choice) string {
	if kind == transition.PromptDirtyTree {
		switch c {
		case transition.ChoiceYes:
			return "Stash changes and switch"
		case transition.ChoiceNo:
			return "Switch without stashing"
		}
	}
	switch c {
	case transition.ChoiceYes:
		return "Yes"
	case transition.ChoiceNo:
		return "No"
	default:
		return "Cancel"
	}
}

// autoAnswerer answers without a terminal. The protected-branch question is
// only ever confirmed with forceProtected.
type autoAnswerer struct {
	yes            bool
	forceProtected bool
}

func (a autoAnswerer) Choose(p transition.Prompt) (transition.Choice, error) {
	switch {
	case p.Kind == transition.PromptProtected && !a.forceProtected:
		return transition.ChoiceNo, errProtected
	case p.Kind == transition.PromptRestoreStash && !a.yes:
		// declining keeps the stash tracked
		return transition.ChoiceNo, nil
	}
	if !a.yes {
		return transition.ChoiceCancel, errConfirmationRequired
	}
	return transition.ChoiceYes, nil
}

func newAnswerer(yes, forceProtected bool) answerer {
	if yes || !isInteractive() {
		return autoAnswerer{yes: yes, forceProtected: forceProtected}
	}
	return surveyAnswerer{}
}

// runWorkflow submits ev and answers prompts until the controller is done.
// Messages are written to w as they arrive.
func runWorkflow(ctx context.Context, s *session.Session, ev transition.Event, ans answerer, w io.Writer) (transition.Outcome, error) {
	out := s.Submit(ctx, ev)
	for out.Prompt.Waiting() {
		if out.Message != "" {
			fmt.Fprintln(w, out.Message)
		}
		if out.Prompt.Kind == transition.PromptName {
			s.Submit(ctx, transition.Cancel{})
			return out, fmt.Errorf("a new name is required")
		}

		choice, err := ans.Choose(out.Prompt)
		if err != nil {
			mutated := out.Refresh
			cancelled := s.Submit(ctx, transition.Cancel{})
			if !mutated {
				return out, err
			}
			// the branch already changed; report how the workflow ended
			if cancelled.Message != "" {
				fmt.Fprintln(w, cancelled.Message)
			}
			return cancelled, cancelled.Err
		}
		if !out.Prompt.Allows(choice) {
			choice = transition.ChoiceNo
		}
		out = s.Submit(ctx, transition.Answer{Choice: choice})
	}
	if out.Message != "" {
		fmt.Fprintln(w, out.Message)
	}
	return out, out.Err
}

// findBranch looks name up among local branches first, then remote ones.
func findBranch(snap *snapshot.Snapshot, name string) (models.Branch, bool) {
	if snap == nil {
		return models.Branch{}, false
	}
	if b, ok := snap.Find(name, false); ok {
		return b, true
	}
	return snap.Find(name, true)
}
