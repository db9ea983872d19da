package split

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SumTolerance is the accepted deviation of selected percentages from 100.
const SumTolerance = 0.01

var hundred = decimal.NewFromInt(100)

// Share is one selected participant's computed obligation.
type Share struct {
	MemberID     uuid.UUID // uuid.Nil for externals
	ExternalName string
	Percentage   float64
	Amount       float64
}

// Validate checks a participant list for final submission: at least one
// participant selected, and the selected percentages summing to 100 within
// tolerance.
func Validate(list []Participant) error {
	var sum float64
	var selected int
	for _, p := range list {
		if !p.Selected {
			continue
		}
		selected++
		sum += p.Percentage
	}
	if selected == 0 {
		return ErrEmptySelection
	}
	if math.Abs(sum-100) > SumTolerance {
		return fmt.Errorf("%w: got %.2f", ErrSplitSum, sum)
	}
	return nil
}

// Amounts validates the list and computes each selected participant's owed
// amount as total*percentage/100 rounded half-up to cents. The rounded
// amounts may undershoot or overshoot the total by up to a cent per extra
// participant; that slack is accepted rather than reallocated.
func Amounts(total float64, list []Participant) ([]Share, error) {
	if err := Validate(list); err != nil {
		return nil, err
	}

	totalDec := decimal.NewFromFloat(total)
	shares := make([]Share, 0, SelectedCount(list))
	for _, p := range list {
		if !p.Selected {
			continue
		}
		owed, _ := totalDec.
			Mul(decimal.NewFromFloat(p.Percentage)).
			Div(hundred).
			Round(2).
			Float64()
		shares = append(shares, Share{
			MemberID:     p.MemberID,
			ExternalName: p.ExternalName,
			Percentage:   p.Percentage,
			Amount:       owed,
		})
	}
	return shares, nil
}

// Round2 rounds a money amount half-up to two decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// ValidateRef checks that a participant reference carries exactly one of a
// member ID and an external name. A violation is a caller bug, not a user
// validation failure.
func ValidateRef(memberID uuid.UUID, externalName string) error {
	hasMember := memberID != uuid.Nil
	hasExternal := strings.TrimSpace(externalName) != ""
	if hasMember == hasExternal {
		return ErrInvalidParticipantRef
	}
	return nil
}

// ValidateShape checks that an expense is in exactly one split mode:
// participant-split (participants only) or itemized (line items only).
func ValidateShape(participantCount, lineItemCount int) error {
	if (participantCount > 0) == (lineItemCount > 0) {
		return ErrAmbiguousSplitMode
	}
	return nil
}
