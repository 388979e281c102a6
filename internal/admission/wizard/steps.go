// Package wizard sequences the application submission steps as an
// explicit state machine. Reduce is pure; Controller owns the one piece
// of mutable state, the in-flight submission.
package wizard

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleApplicant Role = "applicant"
)

type Step string

const (
	StepWarnings Step = "warnings"
	StepReview   Step = "review"
	StepFees     Step = "fees"
	StepPayee    Step = "payee"
	StepSubmit   Step = "submit"
)

// Plan returns the steps shown to role. The warnings step is only added
// when validation raised a warning, and only admins capture a payee.
// StepSubmit is always last and is entered by a submission, never by Next.
func Plan(role Role, hasWarnings bool) []Step {
	steps := make([]Step, 0, 5)
	if hasWarnings {
		steps = append(steps, StepWarnings)
	}
	steps = append(steps, StepReview, StepFees)
	if role == RoleAdmin {
		steps = append(steps, StepPayee)
	}
	return append(steps, StepSubmit)
}
