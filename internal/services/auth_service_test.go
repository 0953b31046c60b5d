package services

import (
	"errors"
	"testing"

	"github.com/aquafield/aquafield-backend/internal/dto"
	"github.com/aquafield/aquafield-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func registerTestUser(t *testing.T, svc *AuthService) *dto.AuthResponse {
	t.Helper()
	resp, err := svc.Register(&dto.RegisterRequest{
		Username: "ada",
		Email:    "ada@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig())

	registerTestUser(t, svc)

	resp, err := svc.Login(&dto.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "ada", resp.User.Username)

	var user models.User
	require.NoError(t, db.Where("email = ?", "ada@example.com").First(&user).Error)
	assert.Equal(t, 1, user.VisitCount)
	assert.NotNil(t, user.LastLogin)
}

func TestRegisterDuplicate(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig())

	registerTestUser(t, svc)

	_, err := svc.Register(&dto.RegisterRequest{
		Username: "other", Email: "ada@example.com", Password: "correct-horse",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Register(&dto.RegisterRequest{
		Username: "ada", Email: "other@example.com", Password: "correct-horse",
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLoginGenericRejection(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig())

	registerTestUser(t, svc)

	// Wrong password and unknown account return the same rejection.
	_, wrongPw := svc.Login(&dto.LoginRequest{Email: "ada@example.com", Password: "nope-nope-nope"})
	_, unknown := svc.Login(&dto.LoginRequest{Email: "ghost@example.com", Password: "nope-nope-nope"})
	assert.ErrorIs(t, wrongPw, ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, ErrInvalidCredentials)
	assert.Equal(t, wrongPw.Error(), unknown.Error())
}

func TestVisitCountIncrementsPerLogin(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig())

	registerTestUser(t, svc)

	for i := 0; i < 3; i++ {
		_, err := svc.Login(&dto.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
		require.NoError(t, err)
	}

	var user models.User
	require.NoError(t, db.Where("email = ?", "ada@example.com").First(&user).Error)
	assert.Equal(t, 3, user.VisitCount)
}

func TestLoginSucceedsWhenActivityUpdateFails(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig())

	registerTestUser(t, svc)

	forced := errors.New("forced activity failure")
	require.NoError(t, db.Callback().Update().Before("gorm:update").
		Register("force_update_failure", func(tx *gorm.DB) {
			_ = tx.AddError(forced)
		}))

	resp, err := svc.Login(&dto.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err, "a failed counter update must never undo a successful login")
	assert.NotEmpty(t, resp.AccessToken)

	require.NoError(t, db.Callback().Update().Remove("force_update_failure"))

	var user models.User
	require.NoError(t, db.Where("email = ?", "ada@example.com").First(&user).Error)
	assert.Equal(t, 0, user.VisitCount, "rolled-back update must leave no trace")
}

func TestLoginRepairsSchemaDriftAndRetries(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig())

	registerTestUser(t, svc)

	// Simulate an externally evolved table.
	require.NoError(t, db.Exec("ALTER TABLE users DROP COLUMN visit_count").Error)

	resp, err := svc.Login(&dto.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err, "drift should be repaired and the read retried")
	assert.NotEmpty(t, resp.AccessToken)

	assert.True(t, db.Migrator().HasColumn(&models.User{}, "visit_count"))

	var user models.User
	require.NoError(t, db.Where("email = ?", "ada@example.com").First(&user).Error)
	assert.Equal(t, 1, user.VisitCount)
}

func TestRefreshRotatesAndKeepsGate(t *testing.T) {
	db := openTestDB(t)
	cfg := testConfig()
	svc := NewAuthService(db, cfg)
	sessions := NewSessionService(db)

	login := registerTestUser(t, svc)

	sid := sessionIDFromToken(t, cfg.JWTSecret, login.AccessToken)
	_, err := sessions.SelectCategory(sid, models.CategoryOcean)
	require.NoError(t, err)

	refreshed, err := svc.Refresh(&dto.RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)

	// Single-use: the old token is dead.
	_, err = svc.Refresh(&dto.RefreshRequest{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)

	// The rotated access token still points at the selected session.
	newSid := sessionIDFromToken(t, cfg.JWTSecret, refreshed.AccessToken)
	assert.Equal(t, sid, newSid)

	session, err := sessions.Get(newSid)
	require.NoError(t, err)
	require.True(t, session.Selected())
	assert.Equal(t, models.CategoryOcean, *session.Category)
}

func TestLogoutRevokesSessionAndTokens(t *testing.T) {
	db := openTestDB(t)
	cfg := testConfig()
	svc := NewAuthService(db, cfg)
	sessions := NewSessionService(db)

	login := registerTestUser(t, svc)
	sid := sessionIDFromToken(t, cfg.JWTSecret, login.AccessToken)

	require.NoError(t, svc.Logout(sid))

	_, err := sessions.Get(sid)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.Refresh(&dto.RefreshRequest{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.ErrorIs(t, svc.Logout(sid), ErrSessionNotFound)
}

func sessionIDFromToken(t *testing.T, secret, tokenString string) uuid.UUID {
	t.Helper()
	token, err := jwt.Parse(tokenString, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	sid, err := uuid.Parse(claims["sid"].(string))
	require.NoError(t, err)
	return sid
}
