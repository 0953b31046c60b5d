package handlers

import (
	"errors"

	"github.com/aquafield/aquafield-backend/internal/dto"
	"github.com/aquafield/aquafield-backend/internal/middleware"
	"github.com/aquafield/aquafield-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type SessionHandler struct {
	sessionService *services.SessionService
}

func NewSessionHandler(sessionService *services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// SelectCategory sets the session's water type gate.
func (h *SessionHandler) SelectCategory(c *fiber.Ctx) error {
	sessionID, err := middleware.GetSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.SelectCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	session, err := h.sessionService.SelectCategory(sessionID, req.WaterType)
	if err != nil {
		if errors.Is(err, services.ErrUnknownCategory) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		if errors.Is(err, services.ErrSessionNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Session is no longer valid",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to select category",
		})
	}

	return c.JSON(dto.CategoryResponse{Selected: true, Category: *session.Category})
}

// GetCategory reports the current gate state.
func (h *SessionHandler) GetCategory(c *fiber.Ctx) error {
	sessionID, err := middleware.GetSessionID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	session, err := h.sessionService.Get(sessionID)
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

	resp := dto.CategoryResponse{Selected: session.Selected()}
	if session.Selected() {
		resp.Category = *session.Category
	}
	return c.JSON(resp)
}
