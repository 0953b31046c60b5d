package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aquafield/aquafield-backend/internal/dto"
	"github.com/aquafield/aquafield-backend/internal/imaging"
	"github.com/aquafield/aquafield-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrCategoryMismatch rejects a submission whose water_type disagrees with the
// session gate. The gate is authoritative; a disagreeing client value is never
// silently overridden.
var ErrCategoryMismatch = errors.New("water type does not match the selected category")

// ValidationError is a field-specific submission rejection. Nothing is
// persisted when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

type MeasurementService struct {
	db *gorm.DB
}

func NewMeasurementService(db *gorm.DB) *MeasurementService {
	return &MeasurementService{db: db}
}

// Submit validates and persists one measurement.
//
// latitude, longitude, pin_id and water_type fail hard: missing (or, for the
// coordinates, unparsable) values abort with a ValidationError. Instrument
// readings fail soft: anything unparsable coerces to null. Readings outside
// the active category's set are nulled regardless of what the client sent,
// and the timestamp is assigned here, never taken from the request.
func (s *MeasurementService) Submit(userID uuid.UUID, gateCategory string, form *dto.SubmissionForm, image []byte) (*models.Measurement, error) {
	lat, err := requireCoordinate("latitude", form.Latitude)
	if err != nil {
		return nil, err
	}
	lng, err := requireCoordinate("longitude", form.Longitude)
	if err != nil {
		return nil, err
	}

	pinID := strings.TrimSpace(form.PinID)
	if pinID == "" {
		return nil, &ValidationError{Field: "pin_id", Reason: "required"}
	}

	waterType := strings.TrimSpace(form.WaterType)
	if waterType == "" {
		return nil, &ValidationError{Field: "water_type", Reason: "required"}
	}
	if !models.KnownCategory(waterType) {
		return nil, &ValidationError{Field: "water_type", Reason: "must be ocean or pond"}
	}
	if waterType != gateCategory {
		return nil, ErrCategoryMismatch
	}

	m := models.Measurement{
		ID:          uuid.New(),
		UserID:      userID,
		Category:    gateCategory,
		Latitude:    lat,
		Longitude:   lng,
		PinID:       pinID,
		Temperature: parseReading(form.Temperature),
		PH:          parseReading(form.PH),
		TDS:         parseReading(form.TDS),
		DO:          parseReading(form.DO),
		Chlorophyll: parseReading(form.Chlorophyll),
		TA:          parseReading(form.TA),
		DIC:         parseReading(form.DIC),
		Timestamp:   time.Now().UTC(),
	}

	// Category-conditional null-out, regardless of client input.
	switch gateCategory {
	case models.CategoryOcean:
		m.DO = nil
	case models.CategoryPond:
		m.Chlorophyll = nil
		m.TA = nil
		m.DIC = nil
	}

	if len(image) > 0 {
		encoded := imaging.Encode(image)
		m.ImageData = &encoded
	}

	if err := s.db.Create(&m).Error; err != nil {
		return nil, fmt.Errorf("failed to store measurement: %w", err)
	}
	return &m, nil
}

// List returns the user's measurements newest-first.
func (s *MeasurementService) List(userID uuid.UUID, page, limit int) ([]models.Measurement, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := s.db.Model(&models.Measurement{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []models.Measurement
	err := s.db.Where("user_id = ?", userID).
		Order("timestamp DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ExportCSV renders all of the user's measurements as a CSV document.
func (s *MeasurementService) ExportCSV(userID uuid.UUID) ([]byte, error) {
	var records []models.Measurement
	if err := s.db.Where("user_id = ?", userID).Order("timestamp ASC").Find(&records).Error; err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"timestamp", "category", "latitude", "longitude", "pin_id",
		"temperature", "ph", "tds", "do", "chlorophyll", "ta", "dic", "has_image"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, m := range records {
		row := []string{
			m.Timestamp.UTC().Format(time.RFC3339),
			m.Category,
			strconv.FormatFloat(m.Latitude, 'f', -1, 64),
			strconv.FormatFloat(m.Longitude, 'f', -1, 64),
			m.PinID,
			formatReading(m.Temperature),
			formatReading(m.PH),
			formatReading(m.TDS),
			formatReading(m.DO),
			formatReading(m.Chlorophyll),
			formatReading(m.TA),
			formatReading(m.DIC),
			strconv.FormatBool(m.ImageData != nil),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func requireCoordinate(field, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &ValidationError{Field: field, Reason: "required"}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &ValidationError{Field: field, Reason: "must be a number"}
	}
	return v, nil
}

// parseReading is the fail-soft coercion for instrument fields: empty or
// unparsable input becomes null, never a rejection.
func parseReading(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func formatReading(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
