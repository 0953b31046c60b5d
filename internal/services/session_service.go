package services

import (
	"errors"
	"fmt"

	"github.com/aquafield/aquafield-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrUnknownCategory = errors.New("water type must be ocean or pond")

// SessionService owns the per-login category gate: a session starts
// Unselected and moves to Selected(category) only through a valid
// SelectCategory call.
type SessionService struct {
	db *gorm.DB
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db}
}

// Get returns the live (non-revoked) session.
func (s *SessionService) Get(sessionID uuid.UUID) (*models.Session, error) {
	var session models.Session
	if err := s.db.Where("id = ? AND revoked_at IS NULL", sessionID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// SelectCategory transitions the gate to Selected(waterType). An unknown
// value is rejected and leaves the stored state untouched.
func (s *SessionService) SelectCategory(sessionID uuid.UUID, waterType string) (*models.Session, error) {
	if !models.KnownCategory(waterType) {
		return nil, ErrUnknownCategory
	}

	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(session).Update("category", waterType).Error; err != nil {
		return nil, fmt.Errorf("failed to select category: %w", err)
	}
	session.Category = &waterType
	return session, nil
}
