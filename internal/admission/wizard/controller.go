package wizard

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"training-admissions/internal/models"
)

var ErrEmptyResult = errors.New("submission returned no result")

// Submitter is the submission collaborator.
type Submitter interface {
	Submit(ctx context.Context, req *models.SubmissionRequest) (*models.SubmissionResult, error)
}

// Controller drives one wizard. Guards and transitions live in Reduce;
// the controller only serialises the submission and owns the request
// token that makes resubmission idempotent.
type Controller struct {
	mu        sync.Mutex
	state     State
	facts     Facts
	token     string
	submitter Submitter
}

func NewController(role Role, facts Facts, submitter Submitter) *Controller {
	return &Controller{
		state:     NewState(role, facts.HasWarning),
		facts:     facts,
		token:     uuid.NewString(),
		submitter: submitter,
	}
}

// RequestToken is sent with every submission attempt of this wizard.
func (c *Controller) RequestToken() string { return c.token }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetFacts replaces the guard inputs after a form change.
func (c *Controller) SetFacts(f Facts) {
	c.mu.Lock()
	c.facts = f
	c.mu.Unlock()
}

func (c *Controller) CanAdvance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CanAdvance(c.state, c.facts)
}

func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CanSubmit(c.state, c.facts)
}

func (c *Controller) Next() error { return c.dispatch(EventNext{}) }

func (c *Controller) Back() error { return c.dispatch(EventBack{}) }

func (c *Controller) dispatch(e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := Reduce(c.state, c.facts, e)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// Submit sends req exactly once. The request token, fee, payee and, when
// the facts carry one, the participant selection are filled in from the
// controller. Overlapping calls fail with
// ErrSubmissionPending; nothing is retried.
func (c *Controller) Submit(ctx context.Context, req models.SubmissionRequest) (*models.SubmissionResult, error) {
	c.mu.Lock()
	next, err := Reduce(c.state, c.facts, EventSubmitStarted{})
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.state = next
	req.RequestToken = c.token
	req.ApplicationFee = *c.facts.Fee
	if c.state.Role == RoleAdmin {
		req.Payee = c.facts.Payee
	} else {
		req.Payee = nil
	}
	if sel := c.facts.Selection; sel != nil {
		people := append([]models.Participant{}, sel.Participants...)
		counts := sel.Slots
		req.Participants = &people
		req.Slots = &counts
	}
	c.mu.Unlock()

	result, err := c.submitter.Submit(ctx, &req)

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case err != nil:
		c.state, _ = Reduce(c.state, c.facts, EventSubmitFailed{Message: err.Error()})
		return nil, err
	case result == nil:
		c.state, _ = Reduce(c.state, c.facts, EventSubmitFailed{Message: ErrEmptyResult.Error()})
		return nil, ErrEmptyResult
	case result.Kind == models.SubmissionSuccess:
		c.state, _ = Reduce(c.state, c.facts, EventSubmitSucceeded{ApplicationID: result.ApplicationID, Message: result.Success})
	default:
		c.state, _ = Reduce(c.state, c.facts, EventSubmitFailed{Message: result.Error})
	}
	return result, nil
}
