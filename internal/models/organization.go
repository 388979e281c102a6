// internal/models/organization.go
package models

type Organization struct {
	ID      string `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	Email   string `json:"email,omitempty" db:"email"`
	Phone   string `json:"phone,omitempty" db:"phone"`
	Address string `json:"address,omitempty" db:"address"`
	County  string `json:"county,omitempty" db:"county"`
}
