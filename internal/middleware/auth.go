package middleware

import (
	"errors"

	"github.com/aquafield/aquafield-backend/internal/config"
	"github.com/aquafield/aquafield-backend/internal/dto"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	})
}

// GetUserID extracts the user UUID from JWT claims in context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	return claimUUID(c, "sub")
}

// GetSessionID extracts the login session UUID from JWT claims in context.
func GetSessionID(c *fiber.Ctx) (uuid.UUID, error) {
	return claimUUID(c, "sid")
}

func claimUUID(c *fiber.Ctx, key string) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return uuid.Nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid claims")
	}

	val, ok := claims[key].(string)
	if !ok {
		return uuid.Nil, errors.New("missing " + key + " claim")
	}

	return uuid.Parse(val)
}
