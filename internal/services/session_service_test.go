package services

import (
	"testing"

	"github.com/aquafield/aquafield-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestSession(t *testing.T, db *gorm.DB) *models.Session {
	t.Helper()
	session := &models.Session{ID: uuid.New(), UserID: uuid.New()}
	require.NoError(t, db.Create(session).Error)
	return session
}

func TestSessionStartsUnselected(t *testing.T) {
	db := openTestDB(t)
	svc := NewSessionService(db)
	session := newTestSession(t, db)

	got, err := svc.Get(session.ID)
	require.NoError(t, err)
	assert.False(t, got.Selected())
}

func TestSelectCategoryTransitions(t *testing.T) {
	db := openTestDB(t)
	svc := NewSessionService(db)
	session := newTestSession(t, db)

	got, err := svc.SelectCategory(session.ID, models.CategoryPond)
	require.NoError(t, err)
	require.True(t, got.Selected())
	assert.Equal(t, models.CategoryPond, *got.Category)

	// Re-selection is allowed; the gate just moves.
	got, err = svc.SelectCategory(session.ID, models.CategoryOcean)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryOcean, *got.Category)
}

func TestSelectCategoryRejectsUnknownValue(t *testing.T) {
	db := openTestDB(t)
	svc := NewSessionService(db)
	session := newTestSession(t, db)

	for _, bad := range []string{"", "lake", "OCEAN", "river"} {
		_, err := svc.SelectCategory(session.ID, bad)
		assert.ErrorIs(t, err, ErrUnknownCategory, "value %q", bad)
	}

	// A rejected value leaves the state at Unselected.
	got, err := svc.Get(session.ID)
	require.NoError(t, err)
	assert.False(t, got.Selected())
}

func TestGetUnknownSession(t *testing.T) {
	db := openTestDB(t)
	svc := NewSessionService(db)

	_, err := svc.Get(uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
