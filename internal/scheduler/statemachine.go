package scheduler

import (
	"errors"
	"fmt"

	"github.com/inboxpilot/scheduler/internal/models"
)

// Action is what the reconciler should do with the calendar for one
// message.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionSkip    Action = "skip"
	ActionClarify Action = "clarify"
	ActionCancel  Action = "cancel"
	ActionRecord  Action = "record" // history only, no calendar work
	ActionIgnore  Action = "ignore" // unrelated message, no thread at all
)

// Decision is the state machine's verdict for one classified message.
type Decision struct {
	Action Action
	Reason string
}

// ErrIllegalTransition marks an attempt to drive the thread status
// somewhere the state machine does not allow.
var ErrIllegalTransition = errors.New("scheduler: illegal status transition")

// SkipPolicy decides whether a message arriving on an already scheduled
// thread should be treated as a duplicate request rather than a new
// calendar action. It is a named, swappable policy so the guard can be
// tightened (e.g. by comparing proposed times against the live event)
// without touching the state machine.
type SkipPolicy interface {
	ShouldSkip(state *models.ThreadState, proposal *models.Proposal) bool
}

// IntentOnlySkipPolicy skips whenever the thread already has a live
// event and the new intent does not clearly request a change. This is a
// conservative heuristic: it cannot tell a genuine second meeting
// request apart from a repeated confirmation.
type IntentOnlySkipPolicy struct{}

func (IntentOnlySkipPolicy) ShouldSkip(state *models.ThreadState, proposal *models.Proposal) bool {
	if state == nil || state.Status != models.StatusScheduled || state.ScheduledEvent == nil {
		return false
	}
	return !proposal.Intent.RequestsChange()
}

// Machine is the negotiation state machine.
type Machine struct {
	skip SkipPolicy
}

func NewMachine(policy SkipPolicy) *Machine {
	if policy == nil {
		policy = IntentOnlySkipPolicy{}
	}
	return &Machine{skip: policy}
}

// Decide maps the classified intent plus the current thread state to an
// action. state is nil for a thread that has never been seen.
func (m *Machine) Decide(state *models.ThreadState, proposal *models.Proposal) Decision {
	intent := proposal.Intent

	if !intent.Relevant() {
		return Decision{Action: ActionIgnore, Reason: "intent not meeting related"}
	}

	hasLiveEvent := state != nil && state.ScheduledEvent != nil && state.Status != models.StatusCancelled

	if intent == models.IntentCancel {
		if hasLiveEvent {
			return Decision{Action: ActionCancel, Reason: "cancel intent with live event"}
		}
		return Decision{Action: ActionRecord, Reason: "cancel intent but no live event to cancel"}
	}

	if !intent.SchedulingTrigger() {
		return Decision{Action: ActionRecord, Reason: "relevant intent without scheduling trigger"}
	}

	if m.skip.ShouldSkip(state, proposal) {
		return Decision{Action: ActionSkip, Reason: "thread already scheduled and intent does not request a change"}
	}

	if proposal.FirstTimePhrase() == "" {
		return Decision{Action: ActionClarify, Reason: "scheduling intent without a time proposal"}
	}

	if hasLiveEvent && intent.RequestsChange() {
		return Decision{Action: ActionUpdate, Reason: "change requested for live event"}
	}
	return Decision{Action: ActionCreate, Reason: "scheduling intent with time proposal and no live event"}
}

// statusUnseen is the implicit status of an absent ThreadState.
const statusUnseen models.ThreadStatus = ""

var legalTransitions = map[models.ThreadStatus]map[models.ThreadStatus]bool{
	statusUnseen: {
		models.StatusAnalyzed:           true,
		models.StatusScheduled:          true,
		models.StatusScheduleFailed:     true,
		models.StatusNeedsClarification: true,
	},
	models.StatusAnalyzed: {
		models.StatusAnalyzed:           true,
		models.StatusScheduled:          true,
		models.StatusScheduleFailed:     true,
		models.StatusNeedsClarification: true,
		models.StatusCancelled:          true,
	},
	models.StatusScheduled: {
		models.StatusAnalyzed:           true,
		models.StatusScheduled:          true,
		models.StatusScheduleFailed:     true,
		models.StatusNeedsClarification: true,
		models.StatusCancelled:          true,
	},
	models.StatusScheduleFailed: {
		models.StatusAnalyzed:           true,
		models.StatusScheduled:          true,
		models.StatusScheduleFailed:     true,
		models.StatusNeedsClarification: true,
		models.StatusCancelled:          true,
	},
	models.StatusNeedsClarification: {
		models.StatusAnalyzed:           true,
		models.StatusScheduled:          true,
		models.StatusScheduleFailed:     true,
		models.StatusNeedsClarification: true,
		models.StatusCancelled:          true,
	},
	models.StatusCancelled: {
		models.StatusAnalyzed:           true,
		models.StatusScheduled:          true,
		models.StatusScheduleFailed:     true,
		models.StatusNeedsClarification: true,
	},
}

// Transition validates and returns the new status. It errors rather
// than silently writing a status the machine does not permit.
func Transition(from, to models.ThreadStatus) (models.ThreadStatus, error) {
	if allowed, ok := legalTransitions[from]; ok && allowed[to] {
		return to, nil
	}
	return from, fmt.Errorf("%w: %q -> %q", ErrIllegalTransition, from, to)
}
