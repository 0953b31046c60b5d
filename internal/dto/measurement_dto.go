package dto

import (
	"time"

	"github.com/google/uuid"
)

type SelectCategoryRequest struct {
	WaterType string `json:"water_type" form:"water_type"`
}

type CategoryResponse struct {
	Selected bool   `json:"selected"`
	Category string `json:"category,omitempty"`
}

// SubmissionForm carries the raw textual form fields of POST /api/submit.
// Everything is a string at this layer; coercion happens in the validator.
type SubmissionForm struct {
	WaterType   string `form:"water_type"`
	Latitude    string `form:"latitude"`
	Longitude   string `form:"longitude"`
	PinID       string `form:"pin_id"`
	Temperature string `form:"temperature"`
	PH          string `form:"ph"`
	TDS         string `form:"tds"`
	DO          string `form:"do"`
	Chlorophyll string `form:"chlorophyll"`
	TA          string `form:"ta"`
	DIC         string `form:"dic"`
}

type MeasurementResponse struct {
	ID          uuid.UUID `json:"id"`
	Category    string    `json:"category"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	PinID       string    `json:"pin_id"`
	Temperature *float64  `json:"temperature"`
	PH          *float64  `json:"ph"`
	TDS         *float64  `json:"tds"`
	DO          *float64  `json:"do"`
	Chlorophyll *float64  `json:"chlorophyll"`
	TA          *float64  `json:"ta"`
	DIC         *float64  `json:"dic"`
	HasImage    bool      `json:"has_image"`
	Timestamp   time.Time `json:"timestamp"`
}

type DashboardResponse struct {
	User         UserResponse          `json:"user"`
	Category     string                `json:"category"`
	Measurements []MeasurementResponse `json:"measurements"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
}
