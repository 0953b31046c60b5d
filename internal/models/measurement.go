package models

import (
	"time"

	"github.com/google/uuid"
)

// Water-body categories. Category on a persisted measurement is always one of
// these two values.
const (
	CategoryOcean = "ocean"
	CategoryPond  = "pond"
)

// KnownCategory reports whether v is one of the two supported categories.
func KnownCategory(v string) bool {
	return v == CategoryOcean || v == CategoryPond
}

// Measurement is one accepted field submission. Records are append-only: they
// are created once and never updated or deleted except by user cascade.
//
// Instrument readings are nullable; which of them may be non-null depends on
// the category (ocean: chlorophyll/ta/dic, pond: do, both: temperature/ph/tds).
// The validator enforces that at write time, so a stored row never carries a
// reading outside its category's set.
type Measurement struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Category  string  `gorm:"size:100;not null;index" json:"category"`
	Latitude  float64 `gorm:"not null" json:"latitude"`
	Longitude float64 `gorm:"not null" json:"longitude"`
	PinID     string  `gorm:"size:100;not null" json:"pin_id"`

	Temperature *float64 `json:"temperature"`
	PH          *float64 `json:"ph"`
	TDS         *float64 `json:"tds"`
	DO          *float64 `json:"do"`
	Chlorophyll *float64 `json:"chlorophyll"`
	TA          *float64 `json:"ta"`
	DIC         *float64 `json:"dic"`

	// Base64 of the uploaded image, null when no image was attached.
	ImageData *string `gorm:"type:text" json:"image_data,omitempty"`

	// Server-assigned at acceptance; client-supplied times are ignored.
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
}
