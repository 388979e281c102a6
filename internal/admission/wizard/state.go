package wizard

import (
	"training-admissions/internal/admission/fees"
	"training-admissions/internal/admission/warnings"
	"training-admissions/internal/models"
)

// Facts are the inputs the guards read. They are recomputed by the
// caller whenever the form changes.
type Facts struct {
	HasWarning bool
	Fee        *float64
	Payee      *models.Payee

	// Selection is the participant list and slot count the fee was
	// computed from. When set, it is what gets submitted.
	Selection *Selection
}

type Selection struct {
	Participants []models.Participant
	Slots        models.Slots
}

func (f Facts) FeeDefined() bool { return f.Fee != nil }

// FactsFrom derives the guard inputs from the resolver's current state,
// so a removed participant changes the warning flag, the fee and the
// submitted list together. Payee is left for the caller.
func FactsFrom(r *warnings.Resolver, rates models.FeeRates, mode models.DeliveryMode, currency models.Currency) Facts {
	selected := r.Slots()
	snapshot := fees.NewSnapshot(selected, rates, mode, currency)
	return Facts{
		HasWarning: r.HasWarning(),
		Fee:        snapshot.Total,
		Selection:  &Selection{Participants: r.Participants(), Slots: selected},
	}
}

// State is a value: Reduce never modifies the State it is given.
type State struct {
	Role    Role   `json:"role"`
	Steps   []Step `json:"steps"`
	Index   int    `json:"index"`
	Pending bool   `json:"pending"`
	Done    bool   `json:"done"`

	ApplicationID string `json:"applicationId,omitempty"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
}

func NewState(role Role, hasWarnings bool) State {
	return State{Role: role, Steps: Plan(role, hasWarnings)}
}

func (s State) Current() Step {
	if s.Index < 0 || s.Index >= len(s.Steps) {
		return ""
	}
	return s.Steps[s.Index]
}

// lastInput is the index of the step the submission is started from.
func (s State) lastInput() int {
	return len(s.Steps) - 2
}

// StepComplete is the exit condition of a single step.
func StepComplete(step Step, f Facts) bool {
	switch step {
	case StepWarnings:
		return !f.HasWarning
	case StepReview:
		return true
	case StepFees:
		return f.FeeDefined()
	case StepPayee:
		return f.FeeDefined() && !f.Payee.IsEmpty()
	case StepSubmit:
		return false
	}
	return false
}

// CanAdvance reports whether Next is enabled on the current step.
func CanAdvance(s State, f Facts) bool {
	if s.Pending || s.Done || s.Index >= s.lastInput() {
		return false
	}
	return StepComplete(s.Current(), f)
}

// CanGoBack reports whether Back is enabled.
func CanGoBack(s State) bool {
	return !s.Pending && !s.Done && s.Index > 0
}

// CanSubmit reports whether the submit action is enabled: the wizard is
// on its last input step and every step up to and including it is
// complete.
func CanSubmit(s State, f Facts) bool {
	if s.Pending || s.Done || s.Index != s.lastInput() {
		return false
	}
	for _, step := range s.Steps[:s.lastInput()+1] {
		if !StepComplete(step, f) {
			return false
		}
	}
	return true
}
