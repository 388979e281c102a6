package wizard

import (
	"errors"
	"fmt"
)

var (
	ErrStepIncomplete    = errors.New("current step is not complete")
	ErrNoPreviousStep    = errors.New("already on the first step")
	ErrNoNextStep        = errors.New("no further step; submit instead")
	ErrSubmissionPending = errors.New("a submission is already in flight")
	ErrNotPending        = errors.New("no submission in flight")
	ErrAlreadySubmitted  = errors.New("application already submitted")
	ErrUnknownEvent      = errors.New("unknown wizard event")
)

// Reduce applies event to s. It returns s unchanged together with an
// error when the event's guard does not hold.
func Reduce(s State, f Facts, event Event) (State, error) {
	if s.Done {
		return s, ErrAlreadySubmitted
	}

	switch e := event.(type) {
	case EventNext:
		if s.Pending {
			return s, ErrSubmissionPending
		}
		if s.Index >= s.lastInput() {
			return s, ErrNoNextStep
		}
		if !CanAdvance(s, f) {
			return s, fmt.Errorf("%w: %s", ErrStepIncomplete, s.Current())
		}
		s.Index++
		s.Error = ""
		return s, nil

	case EventBack:
		if s.Pending {
			return s, ErrSubmissionPending
		}
		if !CanGoBack(s) {
			return s, ErrNoPreviousStep
		}
		s.Index--
		s.Error = ""
		return s, nil

	case EventSubmitStarted:
		if s.Pending {
			return s, ErrSubmissionPending
		}
		if !CanSubmit(s, f) {
			return s, fmt.Errorf("%w: %s", ErrStepIncomplete, s.Current())
		}
		s.Index = len(s.Steps) - 1
		s.Pending = true
		s.Error = ""
		return s, nil

	case EventSubmitSucceeded:
		if !s.Pending {
			return s, ErrNotPending
		}
		s.Pending = false
		s.Done = true
		s.ApplicationID = e.ApplicationID
		s.Message = e.Message
		return s, nil

	case EventSubmitFailed:
		if !s.Pending {
			return s, ErrNotPending
		}
		// Form state is kept; the user may resubmit from the last input step.
		s.Pending = false
		s.Index = s.lastInput()
		s.Error = e.Message
		return s, nil
	}

	return s, fmt.Errorf("%w: %T", ErrUnknownEvent, event)
}
