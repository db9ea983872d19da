package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Trip struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID     uuid.UUID `gorm:"type:uuid;index" json:"group_id"`
	Group       Group     `gorm:"foreignKey:GroupID" json:"-"`
	Name        string    `gorm:"not null;size:100" json:"name"`
	Destination string    `gorm:"size:255" json:"destination,omitempty"`
	StartDate   time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate     time.Time `gorm:"type:date;not null" json:"end_date"`
	CreatedBy   uuid.UUID `gorm:"type:uuid" json:"created_by"`
	Days        []TripDay `gorm:"foreignKey:TripID" json:"days,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TripDay is one calendar day of a trip's itinerary. Days are generated from
// the trip's date range, one row per date.
type TripDay struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TripID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_trip_date" json:"trip_id"`
	Date      time.Time `gorm:"type:date;uniqueIndex:idx_trip_date" json:"date"`
	Notes     string    `json:"notes,omitempty"`
	Events    []Event   `gorm:"foreignKey:DayID" json:"events,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (d *TripDay) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Event is a scheduled activity within a day's time slots.
type Event struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DayID       uuid.UUID `gorm:"type:uuid;index" json:"day_id"`
	TripID      uuid.UUID `gorm:"type:uuid;index" json:"trip_id"`
	Title       string    `gorm:"not null;size:100" json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `gorm:"size:255" json:"location,omitempty"`
	StartTime   string    `gorm:"size:5;not null" json:"start_time"` // HH:MM
	EndTime     string    `gorm:"size:5;not null" json:"end_time"`   // HH:MM
	Color       string    `gorm:"size:20" json:"color,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Request structs
type CreateTripRequest struct {
	Name        string `json:"name" binding:"required"`
	Destination string `json:"destination"`
	StartDate   string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate     string `json:"end_date" binding:"required"`   // YYYY-MM-DD
}

type UpdateTripRequest struct {
	Name        string `json:"name"`
	Destination string `json:"destination"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

type CreateEventRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Location    string `json:"location"`
	StartTime   string `json:"start_time" binding:"required"`
	EndTime     string `json:"end_time" binding:"required"`
	Color       string `json:"color"`
}

type UpdateEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Color       string `json:"color"`
}
