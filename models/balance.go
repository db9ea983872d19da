package models

import "github.com/google/uuid"

// PairBalance is one counterpart entry in a member's balance sheet. A positive
// amount means the counterpart owes this member; negative means this member
// owes the counterpart.
type PairBalance struct {
	MemberID   uuid.UUID `json:"member_id"`
	MemberName string    `json:"member_name"`
	Amount     float64   `json:"amount"`
}

// BalanceEntry is one member's row of a trip balance sheet. Derived on demand
// from the trip's expenses, never persisted.
type BalanceEntry struct {
	MemberID     uuid.UUID     `json:"member_id"`
	MemberName   string        `json:"member_name"`
	TotalOwed    float64       `json:"total_owed"`  // others owe this member
	TotalOwing   float64       `json:"total_owing"` // this member owes others
	NetBalance   float64       `json:"net_balance"`
	BalancesWith []PairBalance `json:"balances_with"`
}

// TripBalanceSummary is returned for GET /api/trips/:id/balances
type TripBalanceSummary struct {
	TripID        uuid.UUID      `json:"trip_id"`
	TripName      string         `json:"trip_name"`
	Balances      []BalanceEntry `json:"balances"`
	TotalExpenses float64        `json:"total_expenses"`
}

// FriendBalance represents the overall balance with a single friend
type FriendBalance struct {
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Amount    float64   `json:"amount"` // positive = they owe you, negative = you owe them
}

// OverallBalanceSummary is returned for GET /api/balances
type OverallBalanceSummary struct {
	TotalOwed  float64         `json:"total_owed"`  // total others owe you
	TotalOwing float64         `json:"total_owing"` // total you owe others
	Friends    []FriendBalance `json:"friends"`
}
