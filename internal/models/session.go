package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is the server-side state for one login. Category implements the
// two-state gate: nil means no water type has been selected yet, non-nil holds
// the selected category. Logout revokes the session, which resets the gate.
type Session struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Category  *string    `gorm:"size:100" json:"category"`
	RevokedAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Selected reports whether the category gate has been passed.
func (s *Session) Selected() bool {
	return s.Category != nil
}
