package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Split types
const (
	SplitEven     = "even"     // server assigns equal percentages
	SplitCustom   = "custom"   // client supplies percentages
	SplitItemized = "itemized" // per-line-item participant lists
)

type Expense struct {
	ID           uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	TripID       uuid.UUID            `gorm:"type:uuid;index" json:"trip_id"`
	Trip         Trip                 `gorm:"foreignKey:TripID" json:"-"`
	DayID        *uuid.UUID           `gorm:"type:uuid;index" json:"day_id,omitempty"`
	EventID      *uuid.UUID           `gorm:"type:uuid;index" json:"event_id,omitempty"`
	PaidBy       uuid.UUID            `gorm:"type:uuid" json:"paid_by"`
	Payer        User                 `gorm:"foreignKey:PaidBy" json:"payer,omitempty"`
	Description  string               `gorm:"not null;size:255" json:"description"`
	Amount       float64              `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency     string               `gorm:"default:USD;size:3" json:"currency"`
	Category     string               `gorm:"size:50" json:"category"` // food, transport, lodging, activities, other
	SplitType    string               `gorm:"not null;size:20" json:"split_type"`
	Notes        string               `json:"notes,omitempty"`
	ExpenseDate  time.Time            `gorm:"type:date;default:CURRENT_DATE" json:"expense_date"`
	Participants []ExpenseParticipant `gorm:"foreignKey:ExpenseID" json:"participants,omitempty"`
	LineItems    []LineItem           `gorm:"foreignKey:ExpenseID" json:"line_items,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// LineItem is one line of an itemized expense, with its own participant list
// scoped to the item's amount.
type LineItem struct {
	ID           uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	ExpenseID    uuid.UUID            `gorm:"type:uuid;index" json:"expense_id"`
	Description  string               `gorm:"not null;size:255" json:"description"`
	Amount       float64              `gorm:"type:decimal(12,2);not null" json:"amount"`
	Quantity     int                  `gorm:"default:1" json:"quantity"`
	Category     string               `gorm:"size:50" json:"category,omitempty"`
	Participants []ExpenseParticipant `gorm:"foreignKey:LineItemID" json:"participants,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

func (li *LineItem) BeforeCreate(tx *gorm.DB) error {
	if li.ID == uuid.Nil {
		li.ID = uuid.New()
	}
	return nil
}

// ExpenseParticipant is one participant's share of an expense or of a single
// line item — never both. Exactly one of MemberID/ExternalName is set.
// AmountOwed is derived from the owning amount and the percentage.
type ExpenseParticipant struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ExpenseID       *uuid.UUID `gorm:"type:uuid;index" json:"expense_id,omitempty"`
	LineItemID      *uuid.UUID `gorm:"type:uuid;index" json:"line_item_id,omitempty"`
	MemberID        *uuid.UUID `gorm:"type:uuid;index" json:"member_id,omitempty"`
	Member          *User      `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	ExternalName    string     `gorm:"size:100" json:"external_name,omitempty"`
	SplitPercentage float64    `gorm:"type:decimal(5,2);not null" json:"split_percentage"`
	AmountOwed      float64    `gorm:"type:decimal(12,2);not null" json:"amount_owed"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (ep *ExpenseParticipant) BeforeCreate(tx *gorm.DB) error {
	if ep.ID == uuid.Nil {
		ep.ID = uuid.New()
	}
	return nil
}

// Request structs
type ParticipantInput struct {
	ParticipantID   string  `json:"participant_id,omitempty"` // registered member UUID
	ExternalName    string  `json:"external_name,omitempty"`  // freeform name, no account
	SplitPercentage float64 `json:"split_percentage"`
}

type LineItemInput struct {
	Description  string             `json:"description" binding:"required"`
	Amount       float64            `json:"amount" binding:"required,gt=0"`
	Quantity     int                `json:"quantity"`
	Category     string             `json:"category"`
	Participants []ParticipantInput `json:"participants" binding:"required"`
}

type CreateExpenseRequest struct {
	Description  string             `json:"description" binding:"required"`
	Amount       float64            `json:"amount" binding:"required,gte=0"`
	Currency     string             `json:"currency"`
	Category     string             `json:"category"`
	SplitType    string             `json:"split_type" binding:"required,oneof=even custom itemized"`
	DayID        string             `json:"day_id"`
	EventID      string             `json:"event_id"`
	Notes        string             `json:"notes"`
	ExpenseDate  string             `json:"expense_date"` // YYYY-MM-DD
	Participants []ParticipantInput `json:"participants"`
	LineItems    []LineItemInput    `json:"line_items"`
}

// UpdateExpenseRequest replaces the expense's whole participant / line-item
// set; individual rows are never patched.
type UpdateExpenseRequest struct {
	Description  string             `json:"description"`
	Amount       float64            `json:"amount"`
	Category     string             `json:"category"`
	SplitType    string             `json:"split_type"`
	Notes        string             `json:"notes"`
	Participants []ParticipantInput `json:"participants"`
	LineItems    []LineItemInput    `json:"line_items"`
}

// Response structs
type ExpenseResponse struct {
	ID           uuid.UUID             `json:"id"`
	TripID       uuid.UUID             `json:"trip_id"`
	DayID        *uuid.UUID            `json:"day_id,omitempty"`
	EventID      *uuid.UUID            `json:"event_id,omitempty"`
	PaidBy       uuid.UUID             `json:"paid_by"`
	PayerName    string                `json:"payer_name"`
	Description  string                `json:"description"`
	Amount       float64               `json:"amount"`
	Currency     string                `json:"currency"`
	Category     string                `json:"category"`
	SplitType    string                `json:"split_type"`
	Notes        string                `json:"notes,omitempty"`
	ExpenseDate  time.Time             `json:"expense_date"`
	Participants []ParticipantResponse `json:"participants,omitempty"`
	LineItems    []LineItemResponse    `json:"line_items,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

type ParticipantResponse struct {
	MemberID        *uuid.UUID `json:"member_id,omitempty"`
	ExternalName    string     `json:"external_name,omitempty"`
	DisplayName     string     `json:"display_name"`
	SplitPercentage float64    `json:"split_percentage"`
	AmountOwed      float64    `json:"amount_owed"`
}

type LineItemResponse struct {
	ID           uuid.UUID             `json:"id"`
	Description  string                `json:"description"`
	Amount       float64               `json:"amount"`
	Quantity     int                   `json:"quantity"`
	Category     string                `json:"category,omitempty"`
	Participants []ParticipantResponse `json:"participants"`
}
