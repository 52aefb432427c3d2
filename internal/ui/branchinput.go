package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type inputPurpose int

const (
	inputSearch inputPurpose = iota
	inputPrefix
	inputRename
)

type BranchInputView struct {
	textInput textinput.Model
	purpose   inputPurpose
	label     string
	err       string
}

func NewBranchInputView() *BranchInputView {
	ti := textinput.New()
	ti.CharLimit = 200
	ti.Width = 40

	return &BranchInputView{
		textInput: ti,
	}
}

// Open focuses the input for purpose with an initial value.
func (b *BranchInputView) Open(purpose inputPurpose, label, value string) tea.Cmd {
	b.purpose = purpose
	b.label = label
	b.err = ""
	switch purpose {
	case inputSearch:
		b.textInput.Placeholder = "part of a branch name"
	case inputPrefix:
		b.textInput.Placeholder = "feature/"
	default:
		b.textInput.Placeholder = "feature/my-branch"
	}
	b.textInput.SetValue(value)
	b.textInput.CursorEnd()
	b.textInput.Focus()
	return textinput.Blink
}

func (b *BranchInputView) Close() {
	b.textInput.Blur()
	b.err = ""
}

func (b *BranchInputView) SetError(msg string) {
	b.err = msg
}

func (b *BranchInputView) Purpose() inputPurpose {
	return b.purpose
}

func (b *BranchInputView) Value() string {
	return b.textInput.Value()
}

func (b *BranchInputView) Update(msg tea.Msg) (*BranchInputView, tea.Cmd) {
	var cmd tea.Cmd
	b.textInput, cmd = b.textInput.Update(msg)
	return b, cmd
}

func (b *BranchInputView) View() string {
	promptStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	errStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("196"))

	help := "enter to confirm • esc to cancel"
	if b.purpose == inputSearch {
		help = "type to filter • enter to keep • esc to clear"
	}

	view := promptStyle.Render(b.label+" ") + b.textInput.View()
	if b.err != "" {
		view += "\n" + errStyle.Render(b.err)
	}
	return view + "\n" + helpStyle.Render(help)
}
