package models

import (
	"time"

	"github.com/google/uuid"
)

// User owns the measurements it submitted. visit_count and last_login are
// best-effort activity fields updated at login; concurrent logins may race on
// them and that is accepted.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"size:100;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:120;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:200;not null" json:"-"`

	VisitCount int        `gorm:"not null;default:0" json:"visit_count"`
	LastLogin  *time.Time `json:"last_login"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Measurements []Measurement `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
