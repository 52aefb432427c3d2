package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	gbmerrors "github.com/daveschumaker/gbm/internal/errors"
	"github.com/daveschumaker/gbm/internal/filter"
	"github.com/daveschumaker/gbm/internal/log"
	"github.com/daveschumaker/gbm/internal/models"
	"github.com/daveschumaker/gbm/internal/session"
	"github.com/daveschumaker/gbm/internal/transition"
)

type mode int

const (
	modeList mode = iota
	modeInput
	modeConfirm
)

// Options configures the interactive model.
type Options struct {
	ShowRemotes bool
	MaxAge      time.Duration   // window used by the "recent" toggle
	Watch       <-chan struct{} // repository change notifications; nil disables auto refresh
	Clipboard   func(text string) error
	Now         func() time.Time
}

type Model struct {
	ctx     context.Context
	session *session.Session
	opts    Options

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	branchView *BranchView
	inputView  *BranchInputView
	confirm    *ConfirmView
	details    *DetailsView

	mode           mode
	busy           bool
	busyLabel      string
	loaded         bool
	refreshPending bool
	quitAfter      bool
	showDetails    bool
	tracked        *models.Stash

	status string
	err    error

	width  int
	height int
}

func NewModel(s *session.Session, opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 30 * 24 * time.Hour
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

	return Model{
		ctx:        context.Background(),
		session:    s,
		opts:       opts,
		keys:       defaultKeyMap(),
		help:       help.New(),
		spinner:    sp,
		branchView: NewBranchView(opts.Now),
		inputView:  NewBranchInputView(),
		confirm:    NewConfirmView(),
		details:    NewDetailsView(opts.Now),
		busy:       true,
		busyLabel:  "Loading branches",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		refreshCmd(m.ctx, m.session, m.opts.ShowRemotes),
		authorCmd(m.ctx, m.session),
		waitForWatch(m.opts.Watch),
		m.spinner.Tick,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layout()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case snapshotMsg:
		return m.handleSnapshot(msg)

	case outcomeMsg:
		return m.handleOutcome(msg.out)

	case authorMsg:
		if msg.err != nil {
			log.Warn("author lookup failed", "err", msg.err)
		}
		st := m.session.Filter()
		st.AuthorEmail = msg.email
		m.session.SetFilter(st)
		m.syncView()
		return m, nil

	case clipboardMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("copy to clipboard: %w", msg.err)
		} else {
			m.status = "Copied " + msg.text
		}
		return m, nil

	case watchMsg:
		next := waitForWatch(m.opts.Watch)
		if m.busy || m.mode != modeList {
			m.refreshPending = true
			return m, next
		}
		log.Debug("repository changed, refreshing")
		updated, cmd := m.refresh(m.session.IncludeRemotes())
		return updated, tea.Batch(next, cmd)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if !m.busy {
				return m, tea.Quit
			}
			m.quitAfter = true
			m.status = "Waiting for git to finish..."
			return m, nil
		}
		switch m.mode {
		case modeInput:
			return m.updateInput(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		default:
			return m.updateList(msg)
		}
	}

	if m.mode == modeInput {
		var cmd tea.Cmd
		m.inputView, cmd = m.inputView.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleSnapshot(msg snapshotMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.err = msg.err
	} else {
		m.loaded = true
		m.err = nil
	}
	m.tracked = m.session.TrackedStash()
	m.syncView()
	if m.quitAfter {
		return m, tea.Quit
	}
	return m.settle()
}

func (m Model) handleOutcome(out transition.Outcome) (tea.Model, tea.Cmd) {
	m.busy = false
	m.err = nil
	m.status = out.Message
	m.tracked = m.session.TrackedStash()

	if out.Err != nil && !gbmerrors.Is(out.Err, gbmerrors.ErrValidation) {
		m.err = out.Err
	}

	switch {
	case out.Prompt.Kind == transition.PromptName:
		if m.mode != modeInput || m.inputView.Purpose() != inputRename {
			m.mode = modeInput
			cmd := m.inputView.Open(inputRename, out.Prompt.Text, out.Prompt.Default)
			m.syncView()
			return m, m.quitOr(cmd)
		}
		if out.Err != nil {
			m.inputView.SetError(out.Message)
			m.status = ""
		}
	case out.Prompt.Waiting():
		m.inputView.Close()
		m.mode = modeConfirm
		m.confirm.SetPrompt(out.Prompt)
	default:
		m.inputView.Close()
		m.mode = modeList
	}

	m.syncView()
	if m.quitAfter {
		return m, tea.Quit
	}
	if m.mode == modeList {
		return m.settle()
	}
	return m, nil
}

func (m Model) quitOr(cmd tea.Cmd) tea.Cmd {
	if m.quitAfter {
		return tea.Quit
	}
	return cmd
}

// settle runs a refresh that was deferred while busy or prompting.
func (m Model) settle() (tea.Model, tea.Cmd) {
	if !m.refreshPending || m.busy || m.mode != modeList {
		return m, nil
	}
	m.refreshPending = false
	return m.refresh(m.session.IncludeRemotes())
}

func (m Model) refresh(includeRemotes bool) (tea.Model, tea.Cmd) {
	m.busy = true
	m.busyLabel = "Refreshing"
	return m, tea.Batch(refreshCmd(m.ctx, m.session, includeRemotes), m.spinner.Tick)
}

func (m Model) submit(ev transition.Event, label string) (tea.Model, tea.Cmd) {
	m.busy = true
	m.busyLabel = label
	m.status = ""
	m.err = nil
	return m, tea.Batch(submitCmd(m.ctx, m.session, ev), m.spinner.Tick)
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.busy {
			m.quitAfter = true
			m.status = "Waiting for git to finish..."
			return m, nil
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil
	case key.Matches(msg, m.keys.Details):
		m.showDetails = !m.showDetails
		m.layout()
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.move(1)
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.session.Select(0)
		m.syncView()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.session.Select(len(m.session.Visible()) - 1)
		m.syncView()
		return m, nil
	}

	if m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Checkout):
		if _, b, ok := m.session.Selected(); ok {
			return m.submit(transition.StartCheckout{Target: b}, "Switching to "+b.Name)
		}
	case key.Matches(msg, m.keys.Delete):
		if _, b, ok := m.session.Selected(); ok {
			return m.submit(transition.StartDelete{Target: b}, "Deleting "+b.Name)
		}
	case key.Matches(msg, m.keys.Rename):
		if _, b, ok := m.session.Selected(); ok {
			return m.submit(transition.StartRename{Target: b}, "Renaming "+b.Name)
		}
	case key.Matches(msg, m.keys.PopStash):
		return m.submit(transition.PopStash{}, "Restoring stash")
	case key.Matches(msg, m.keys.Refresh):
		m.status = ""
		return m.refresh(m.session.IncludeRemotes())
	case key.Matches(msg, m.keys.Fetch):
		m.busy = true
		m.busyLabel = "Fetching"
		m.status = ""
		return m, tea.Batch(fetchCmd(m.ctx, m.session), m.spinner.Tick)
	case key.Matches(msg, m.keys.ToggleRemotes):
		return m.refresh(!m.session.IncludeRemotes())
	case key.Matches(msg, m.keys.Search):
		m.mode = modeInput
		return m, m.inputView.Open(inputSearch, "/", m.session.Filter().Search)
	case key.Matches(msg, m.keys.Prefix):
		m.mode = modeInput
		return m, m.inputView.Open(inputPrefix, "Prefix:", m.session.Filter().Prefix)
	case key.Matches(msg, m.keys.Mine):
		st := m.session.Filter()
		st.Mine = !st.Mine
		if st.Mine && st.AuthorEmail == "" {
			m.status = "No user.email configured; showing every author"
		}
		m.applyFilter(st)
	case key.Matches(msg, m.keys.Age):
		st := m.session.Filter()
		if st.MaxAge > 0 {
			st.MaxAge = 0
		} else {
			st.MaxAge = m.opts.MaxAge
		}
		m.applyFilter(st)
	case key.Matches(msg, m.keys.HideMerged):
		st := m.session.Filter()
		st.HideMerged = !st.HideMerged
		m.applyFilter(st)
	case key.Matches(msg, m.keys.ClearFilters):
		m.applyFilter(m.session.Filter().Clear())
	case key.Matches(msg, m.keys.Copy):
		if _, b, ok := m.session.Selected(); ok {
			return m, copyCmd(m.opts.Clipboard, b.ShortName())
		}
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	purpose := m.inputView.Purpose()

	switch msg.String() {
	case "esc":
		m.inputView.Close()
		switch purpose {
		case inputRename:
			return m.submit(transition.Cancel{}, "Cancelling")
		case inputSearch:
			st := m.session.Filter()
			st.Search = ""
			m.applyFilter(st)
		}
		m.mode = modeList
		return m.settle()

	case "enter":
		value := strings.TrimSpace(m.inputView.Value())
		switch purpose {
		case inputRename:
			return m.submit(transition.SubmitName{Name: value}, "Renaming")
		case inputPrefix:
			st := m.session.Filter()
			st.Prefix = value
			m.applyFilter(st)
		}
		m.inputView.Close()
		m.mode = modeList
		return m.settle()
	}

	var cmd tea.Cmd
	m.inputView, cmd = m.inputView.Update(msg)
	if purpose == inputSearch {
		st := m.session.Filter()
		st.Search = m.inputView.Value()
		m.applyFilter(st)
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	switch msg.String() {
	case "y", "Y":
		return m.submit(transition.Answer{Choice: transition.ChoiceYes}, "Working")
	case "n", "N":
		return m.submit(transition.Answer{Choice: transition.ChoiceNo}, "Working")
	case "c", "C":
		return m.submit(transition.Answer{Choice: transition.ChoiceCancel}, "Cancelling")
	case "esc", "q":
		return m.submit(transition.Cancel{}, "Cancelling")
	}
	return m, nil
}

func (m *Model) move(delta int) {
	i, _, ok := m.session.Selected()
	if !ok {
		return
	}
	m.session.Select(i + delta)
	m.syncView()
}

func (m *Model) applyFilter(st filter.State) {
	m.session.SetFilter(st)
	m.syncView()
}

// syncView pushes the session's visible list and selection into the views.
func (m *Model) syncView() {
	visible := m.session.Visible()
	i, b, ok := m.session.Selected()
	m.branchView.SetBranches(visible, i)

	base := ""
	if snap := m.session.Snapshot(); snap != nil {
		base = snap.BaseBranch
	}
	if ok {
		m.details.SetBranch(&b, base)
	} else {
		m.details.SetBranch(nil, base)
	}
}

func (m *Model) layout() {
	listHeight := m.height - 6
	if m.help.ShowAll {
		listHeight -= 4
	}
	if m.showDetails {
		listHeight -= 12
	}
	m.branchView.SetSize(m.width, max(listHeight, 3))
	m.details.SetWidth(m.width)
	m.confirm.SetWidth(m.width)
}

func (m Model) View() string {
	sections := []string{m.renderHeader()}

	if !m.loaded && m.err != nil {
		sections = append(sections, errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	sections = append(sections, m.branchView.View())
	if m.showDetails {
		if d := m.details.View(); d != "" {
			sections = append(sections, d)
		}
	}

	switch m.mode {
	case modeConfirm:
		sections = append(sections, m.confirm.View())
	case modeInput:
		sections = append(sections, m.inputView.View())
	}

	sections = append(sections, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

func (m Model) renderHeader() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("170")).
		MarginRight(2)

	branchStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("green")).
		Bold(true)

	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("244"))

	dividerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("238"))

	title := titleStyle.Render("gbm")

	var info []string
	if snap := m.session.Snapshot(); snap != nil {
		current := snap.Current
		if current == "" {
			current = "(detached)"
		}
		info = append(info, branchStyle.Render(current))
		info = append(info, statusStyle.Render(fmt.Sprintf("%d/%d branches", len(m.session.Visible()), snap.Len())))
		if snap.IncludeRemotes {
			info = append(info, statusStyle.Render("+remotes"))
		}
	}
	if summary := m.session.Filter().Summary(); summary != "" {
		info = append(info, statusStyle.Render("["+summary+"]"))
	}
	if m.tracked != nil {
		info = append(info, modifiedStyle.Render("stash: "+stashLabel(m.tracked)))
	}

	headerLine := lipgloss.JoinHorizontal(lipgloss.Top, title, strings.Join(info, " "))
	divider := dividerStyle.Render(strings.Repeat("─", max(m.width, 0)))

	return lipgloss.JoinVertical(lipgloss.Left, headerLine, divider)
}

func stashLabel(s *models.Stash) string {
	if s.Branch != "" {
		return s.Branch
	}
	return s.Ref
}

func (m Model) renderFooter() string {
	dividerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("238"))

	var line string
	switch {
	case m.busy:
		line = m.spinner.View() + " " + m.busyLabel + "..."
	case m.err != nil:
		line = errorStyle.Render(m.err.Error())
	case m.status != "":
		line = statusLineStyle.Render(m.status)
	}

	divider := dividerStyle.Render(strings.Repeat("─", max(m.width, 0)))
	return lipgloss.JoinVertical(lipgloss.Left, divider, line, m.help.View(m.keys))
}

var statusLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
