package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aquafield/aquafield-backend/internal/config"
	"github.com/aquafield/aquafield-backend/internal/database"
	"github.com/aquafield/aquafield-backend/internal/dto"
	"github.com/aquafield/aquafield-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrSessionNotFound    = errors.New("session not found")
)

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{db: db, cfg: cfg}
}

func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if len(req.Username) == 0 || len(req.Email) == 0 || len(req.Password) < 8 {
		return nil, errors.New("username and email required and password must be at least 8 characters")
	}

	var existing models.User
	if err := s.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}
	if err := s.db.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	session, err := s.createSession(&user)
	if err != nil {
		return nil, err
	}
	return s.generateTokenPair(&user, session)
}

// Login verifies the credential and establishes a session. The session exists
// and tokens are issued before the activity counters are touched: a failed
// counter update is logged and swallowed, never turned into a failed login.
func (s *AuthService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.findUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same rejection as a wrong password.
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	session, err := s.createSession(user)
	if err != nil {
		return nil, err
	}

	resp, err := s.generateTokenPair(user, session)
	if err != nil {
		return nil, err
	}

	// Authenticated from here on; the activity update is best-effort.
	if err := s.recordVisit(user.ID); err != nil {
		slog.Warn("login activity update failed", "user_id", user.ID.String(), "error", err)
	} else {
		now := time.Now()
		resp.User.VisitCount = user.VisitCount + 1
		resp.User.LastLogin = &now
	}

	return resp, nil
}

// userColumns lists the model's columns explicitly so a drifted users table
// surfaces as a missing-column error instead of silently zeroed fields.
var userColumns = []string{
	"id", "username", "email", "password_hash",
	"visit_count", "last_login", "created_at", "updated_at",
}

// findUserByEmail reads the user row, repairing schema drift once: if the read
// fails because the users table is missing a column, the additive repair runs
// and the read is retried exactly once.
func (s *AuthService) findUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.db.Select(userColumns).Where("email = ?", email).First(&user).Error
	if database.IsMissingColumn(err) {
		slog.Warn("user read hit schema drift, repairing", "error", err)
		if repairErr := database.RepairUserActivityColumns(s.db); repairErr != nil {
			return nil, fmt.Errorf("schema repair failed: %w", repairErr)
		}
		err = s.db.Select(userColumns).Where("email = ?", email).First(&user).Error
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// recordVisit bumps the activity counters in its own transaction so a failure
// rolls back cleanly without affecting the enclosing login.
func (s *AuthService) recordVisit(userID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"visit_count": gorm.Expr("visit_count + 1"),
				"last_login":  time.Now(),
			}).Error
	})
}

func (s *AuthService) Refresh(req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := s.db.Where("token_hash = ? AND revoked = false", tokenHash).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	if time.Now().After(stored.ExpiresAt) {
		s.db.Model(&stored).Update("revoked", true)
		return nil, ErrInvalidToken
	}

	s.db.Model(&stored).Update("revoked", true)

	var session models.Session
	if err := s.db.Where("id = ? AND revoked_at IS NULL", stored.SessionID).First(&session).Error; err != nil {
		return nil, ErrInvalidToken
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", stored.UserID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	// Same session: the category gate survives the rotation.
	return s.generateTokenPair(&user, &session)
}

// Logout revokes the session (resetting the category gate) and every refresh
// token issued for it.
func (s *AuthService) Logout(sessionID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Session{}).
			Where("id = ? AND revoked_at IS NULL", sessionID).
			Update("revoked_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSessionNotFound
		}
		return tx.Model(&models.RefreshToken{}).
			Where("session_id = ?", sessionID).
			Update("revoked", true).Error
	})
}

func (s *AuthService) createSession(user *models.User) (*models.Session, error) {
	session := models.Session{
		ID:     uuid.New(),
		UserID: user.ID,
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &session, nil
}

func (s *AuthService) generateTokenPair(user *models.User, session *models.Session) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user, session)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(user, session)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: dto.UserResponse{
			ID:         user.ID,
			Username:   user.Username,
			Email:      user.Email,
			VisitCount: user.VisitCount,
			LastLogin:  user.LastLogin,
		},
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User, session *models.Session) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"sid":   session.ID.String(),
		"email": user.Email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(user *models.User, session *models.Session) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)

	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		SessionID: session.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.db.Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
