package models

import "time"

// School is the tenant entity; every other record belongs to exactly one
// school.
type School struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Address      string    `db:"address" json:"address"`
	ContactEmail *string   `db:"contact_email" json:"contactEmail,omitempty"`
	ContactPhone *string   `db:"contact_phone" json:"contactPhone,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}
