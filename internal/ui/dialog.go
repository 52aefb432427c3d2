package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/daveschumaker/gbm/internal/transition"
)

// ConfirmView renders a pending controller question.
type ConfirmView struct {
	prompt transition.Prompt
	width  int
}

func NewConfirmView() *ConfirmView {
	return &ConfirmView{}
}

func (c *ConfirmView) SetPrompt(p transition.Prompt) {
	c.prompt = p
}

func (c *ConfirmView) SetWidth(width int) {
	c.width = width
}

func (c *ConfirmView) View() string {
	border := lipgloss.Color("214")
	if c.prompt.Kind == transition.PromptProtected {
		border = lipgloss.Color("196")
	}

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 2)
	if c.width > 10 {
		boxStyle = boxStyle.Width(min(c.width-6, 72))
	}

	textStyle := lipgloss.NewStyle().Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	var choices []string
	for _, ch := range c.prompt.Choices {
		switch ch {
		case transition.ChoiceYes:
			choices = append(choices, keyStyle.Render("y")+helpStyle.Render(" "+yesLabel(c.prompt.Kind)))
		case transition.ChoiceNo:
			choices = append(choices, keyStyle.Render("n")+helpStyle.Render(" "+noLabel(c.prompt.Kind)))
		case transition.ChoiceCancel:
			choices = append(choices, keyStyle.Render("c")+helpStyle.Render(" cancel"))
		}
	}

	body := textStyle.Render(c.prompt.Text) + "\n\n" + strings.Join(choices, "   ")
	return boxStyle.Render(body)
}

func yesLabel(kind transition.PromptKind) string {
	switch kind {
	case transition.PromptDirtyTree:
		return "stash & switch"
	case transition.PromptRestoreStash:
		return "restore"
	case transition.PromptProtected, transition.PromptDelete:
		return "delete"
	default:
		return "yes"
	}
}

func noLabel(kind transition.PromptKind) string {
	switch kind {
	case transition.PromptDirtyTree:
		return "switch anyway"
	case transition.PromptRestoreStash:
		return "keep stashed"
	default:
		return "no"
	}
}
