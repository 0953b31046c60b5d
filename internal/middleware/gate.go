package middleware

import (
	"errors"

	"github.com/aquafield/aquafield-backend/internal/dto"
	"github.com/aquafield/aquafield-backend/internal/models"
	"github.com/aquafield/aquafield-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// SelectCategoryPath is where gate-guarded routes send callers that have not
// picked a water type yet.
const SelectCategoryPath = "/api/session/category"

// CategoryGate requires the login session to have a selected category.
// Unselected callers are redirected to the selection step rather than given an
// error; revoked or missing sessions are unauthorized.
func CategoryGate(sessions *services.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID, err := GetSessionID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		session, err := sessions.Get(sessionID)
		if err != nil {
			if errors.Is(err, services.ErrSessionNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
					Error: true, Message: "Session is no longer valid",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}

		if !session.Selected() {
			return c.Redirect(SelectCategoryPath, fiber.StatusSeeOther)
		}

		c.Locals("session", session)
		return c.Next()
	}
}

// SessionFromLocals returns the session stored by CategoryGate.
func SessionFromLocals(c *fiber.Ctx) (*models.Session, error) {
	session, ok := c.Locals("session").(*models.Session)
	if !ok {
		return nil, errors.New("no session in context")
	}
	return session, nil
}
