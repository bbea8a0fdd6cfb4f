package domain

import "time"

// Idempotency records the outcome of a previously processed submission keyed
// by (scope, subject, key). A retried repair-form submission carrying the same
// Idempotency-Key returns the original ResourceID (the request ID) instead of
// allocating a new ticket.
type Idempotency struct {
	ID         string    `gorm:"type:varchar(36);primaryKey"`
	Scope      string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_idem_scope_subject_key,priority:1"`
	Subject    string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_idem_scope_subject_key,priority:2"`
	Key        string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_idem_scope_subject_key,priority:3"`
	ResourceID string    `gorm:"type:varchar(64);not null"`
	Status     int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }

// ScopeRepairSubmit is the idempotency scope of repair-form submissions.
const ScopeRepairSubmit = "repair-form-submit"
