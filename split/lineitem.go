package split

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckItemTotal verifies that the line item amounts sum to the expense
// total within a cent. Enforced as a create/update precondition.
func CheckItemTotal(expenseAmount float64, itemAmounts []float64) error {
	sum := decimal.Zero
	for _, a := range itemAmounts {
		sum = sum.Add(decimal.NewFromFloat(a))
	}
	diff := sum.Sub(decimal.NewFromFloat(expenseAmount)).Abs()
	if diff.GreaterThan(decimal.NewFromFloat(SumTolerance)) {
		sumF, _ := sum.Float64()
		return fmt.Errorf("%w: items total %.2f, expense is %.2f", ErrLineItemSumMismatch, sumF, expenseAmount)
	}
	return nil
}

// AggregateItems collapses the per-line-item shares of an itemized expense
// into one effective share per distinct participant, summing their owed
// amounts across all items they appear in. The result feeds balance sheet
// computation only; it is never written back as the expense's own
// participant list. Output order follows first appearance.
func AggregateItems(items [][]Share) []Share {
	type key struct {
		member uuid.UUID
		name   string
	}

	totals := make(map[key]decimal.Decimal)
	var order []key
	refs := make(map[key]Share)

	for _, shares := range items {
		for _, s := range shares {
			k := key{member: s.MemberID, name: s.ExternalName}
			if _, seen := totals[k]; !seen {
				order = append(order, k)
				refs[k] = s
			}
			totals[k] = totals[k].Add(decimal.NewFromFloat(s.Amount))
		}
	}

	out := make([]Share, 0, len(order))
	for _, k := range order {
		amount, _ := totals[k].Round(2).Float64()
		out = append(out, Share{
			MemberID:     refs[k].MemberID,
			ExternalName: refs[k].ExternalName,
			Amount:       amount,
		})
	}
	return out
}
