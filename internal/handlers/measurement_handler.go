package handlers

import (
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/aquafield/aquafield-backend/internal/dto"
	"github.com/aquafield/aquafield-backend/internal/middleware"
	"github.com/aquafield/aquafield-backend/internal/models"
	"github.com/aquafield/aquafield-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type MeasurementHandler struct {
	measurementService *services.MeasurementService
	db                 *gorm.DB
}

func NewMeasurementHandler(measurementService *services.MeasurementService, db *gorm.DB) *MeasurementHandler {
	return &MeasurementHandler{measurementService: measurementService, db: db}
}

// Submit accepts one multipart measurement form. Runs behind CategoryGate, so
// the session is guaranteed Selected here.
func (h *MeasurementHandler) Submit(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	session, err := middleware.SessionFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	var form dto.SubmissionForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid form data",
		})
	}

	image, err := readUpload(c, "image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Could not read uploaded image",
		})
	}

	record, err := h.measurementService.Submit(userID, *session.Category, &form, image)
	if err != nil {
		var ve *services.ValidationError
		if errors.As(err, &ve) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
				Error: true, Message: ve.Error(),
			})
		}
		if errors.Is(err, services.ErrCategoryMismatch) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to store measurement",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(toMeasurementResponse(record))
}

// Dashboard returns the caller's profile and a page of their measurements.
func (h *MeasurementHandler) Dashboard(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	session, err := middleware.SessionFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load profile",
		})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	records, total, err := h.measurementService.List(userID, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch measurements",
		})
	}

	resp := dto.DashboardResponse{
		User: dto.UserResponse{
			ID:         user.ID,
			Username:   user.Username,
			Email:      user.Email,
			VisitCount: user.VisitCount,
			LastLogin:  user.LastLogin,
		},
		Category:     *session.Category,
		Measurements: make([]dto.MeasurementResponse, 0, len(records)),
		Total:        total,
		Page:         page,
		Limit:        limit,
	}
	for i := range records {
		resp.Measurements = append(resp.Measurements, toMeasurementResponse(&records[i]))
	}

	return c.JSON(resp)
}

// ExportCSV streams the caller's measurements as a CSV attachment.
func (h *MeasurementHandler) ExportCSV(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	csvBytes, err := h.measurementService.ExportCSV(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to generate export",
		})
	}

	filename := "aquafield-export-" + time.Now().Format("2006-01-02") + ".csv"
	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	c.Set("Cache-Control", "no-cache")

	return c.Send(csvBytes)
}

// readUpload returns the bytes of an optional multipart file field, or nil
// when the field is absent.
func readUpload(c *fiber.Ctx, field string) ([]byte, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

func toMeasurementResponse(m *models.Measurement) dto.MeasurementResponse {
	return dto.MeasurementResponse{
		ID:          m.ID,
		Category:    m.Category,
		Latitude:    m.Latitude,
		Longitude:   m.Longitude,
		PinID:       m.PinID,
		Temperature: m.Temperature,
		PH:          m.PH,
		TDS:         m.TDS,
		DO:          m.DO,
		Chlorophyll: m.Chlorophyll,
		TA:          m.TA,
		DIC:         m.DIC,
		HasImage:    m.ImageData != nil,
		Timestamp:   m.Timestamp,
	}
}
