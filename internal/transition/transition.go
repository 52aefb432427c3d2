// Package transition drives the multi-step branch workflows: checkout,
// delete, rename and restoring a stash. The Controller is a state machine
// fed with typed events; it never renders anything and never assumes a
// failed git call had partial effect.
package transition

import (
	"context"

	"github.com/daveschumaker/gbm/internal/models"
)

// Gateway is the part of the repository gateway the workflows use.
type Gateway interface {
	WorkingTreeStatus(ctx context.Context) ([]models.FileChange, error)
	Checkout(ctx context.Context, ref, createLocalAs string) error
	DeleteBranch(ctx context.Context, name string, force bool) error
	RenameBranch(ctx context.Context, oldName, newName string) error
	StashPush(ctx context.Context, message string) (*models.Stash, error)
	StashPop(ctx context.Context, ref string) error
	StashList(ctx context.Context) ([]models.Stash, error)
}

// Kind identifies a workflow.
type Kind int

const (
	KindNone Kind = iota
	KindCheckout
	KindDelete
	KindRename
	KindStashPop
)

func (k Kind) String() string {
	switch k {
	case KindCheckout:
		return "checkout"
	case KindDelete:
		return "delete"
	case KindRename:
		return "rename"
	case KindStashPop:
		return "stash-pop"
	default:
		return "none"
	}
}

// State is a step of a workflow.
type State int

const (
	Idle State = iota
	ConfirmStash
	Stashing
	CheckingOut
	PostCheckStash
	ProtectedConfirm
	DeleteConfirm
	Deleting
	NamePrompt
	ValidateUnique
	Renaming
	Popping
)

var stateNames = map[State]string{
	Idle:             "idle",
	ConfirmStash:     "confirm-stash",
	Stashing:         "stashing",
	CheckingOut:      "checking-out",
	PostCheckStash:   "post-check-stash",
	ProtectedConfirm: "protected-confirm",
	DeleteConfirm:    "delete-confirm",
	Deleting:         "deleting",
	NamePrompt:       "prompt-name",
	ValidateUnique:   "validate-unique",
	Renaming:         "renaming",
	Popping:          "popping",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Choice is the operator's answer to a confirmation.
type Choice int

const (
	ChoiceYes Choice = iota
	ChoiceNo
	ChoiceCancel
)

func (c Choice) String() string {
	switch c {
	case ChoiceYes:
		return "yes"
	case ChoiceNo:
		return "no"
	default:
		return "cancel"
	}
}

// PromptKind tells the driver what input the controller waits for.
type PromptKind int

const (
	PromptNone PromptKind = iota
	PromptDirtyTree
	PromptProtected
	PromptDelete
	PromptName
	PromptRestoreStash
)

// Prompt is a pending question. Kind PromptName expects SubmitName, every
// other kind expects Answer with one of Choices.
type Prompt struct {
	Kind    PromptKind
	Text    string
	Choices []Choice
	Default string // prefilled input for PromptName
}

// Waiting reports whether the prompt expects input.
func (p Prompt) Waiting() bool {
	return p.Kind != PromptNone
}

// Allows reports whether c is an accepted answer.
func (p Prompt) Allows(c Choice) bool {
	for _, allowed := range p.Choices {
		if allowed == c {
			return true
		}
	}
	return false
}

var (
	yesNo       = []Choice{ChoiceYes, ChoiceNo}
	yesNoCancel = []Choice{ChoiceYes, ChoiceNo, ChoiceCancel}
)

// Event is input to the controller.
type Event interface {
	event()
}

// StartCheckout begins switching to Target.
type StartCheckout struct{ Target models.Branch }

// StartDelete begins deleting Target.
type StartDelete struct{ Target models.Branch }

// StartRename begins renaming Target.
type StartRename struct{ Target models.Branch }

// SubmitName answers a PromptName.
type SubmitName struct{ Name string }

// Answer answers a confirmation prompt.
type Answer struct{ Choice Choice }

// PopStash restores the tracked stash.
type PopStash struct{}

// Cancel abandons the active workflow.
type Cancel struct{}

func (StartCheckout) event() {}
func (StartDelete) event()   {}
func (StartRename) event()   {}
func (SubmitName) event()    {}
func (Answer) event()        {}
func (PopStash) event()      {}
func (Cancel) event()        {}

// Outcome is the controller's response to one event.
type Outcome struct {
	Kind    Kind
	State   State  // state after the event; Idle once Done
	Prompt  Prompt // pending question, if any
	Done    bool   // the workflow finished (successfully or not)
	Refresh bool   // a mutation succeeded and the snapshot is stale
	Forced  bool   // delete needed the forced variant
	Message string // operator-facing summary
	Err     error
}
