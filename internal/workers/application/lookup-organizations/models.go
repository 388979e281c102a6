// internal/workers/application/lookup-organizations/models.go
package lookuporganizations

import "training-admissions/internal/models"

type Input struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type Output struct {
	Options []models.Organization `json:"options"`
	// ExactMatchID is set when an option has the same normalised name
	// as the query.
	ExactMatchID string `json:"exactMatchId,omitempty"`
}
