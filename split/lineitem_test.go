package split

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestCheckItemTotal(t *testing.T) {
	tests := []struct {
		name          string
		expenseAmount float64
		itemAmounts   []float64
		wantErr       bool
	}{
		{"exact match", 50, []float64{25, 25}, false},
		{"within tolerance", 50, []float64{25, 25.005}, false},
		{"items short", 50, []float64{25, 20}, true},
		{"items over", 50, []float64{30, 25}, true},
		{"single item", 19.99, []float64{19.99}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckItemTotal(tt.expenseAmount, tt.itemAmounts)
			if tt.wantErr && !errors.Is(err, ErrLineItemSumMismatch) {
				t.Errorf("CheckItemTotal() error = %v, want ErrLineItemSumMismatch", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("CheckItemTotal() error = %v, want nil", err)
			}
		})
	}
}

func TestAggregateItems(t *testing.T) {
	x := uuid.New()
	y := uuid.New()

	t.Run("disjoint items stay independent", func(t *testing.T) {
		// Two $25 items, X covers the first at 100%, Y the second.
		items := [][]Share{
			{{MemberID: x, Percentage: 100, Amount: 25}},
			{{MemberID: y, Percentage: 100, Amount: 25}},
		}

		got := AggregateItems(items)
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		if got[0].MemberID != x || got[0].Amount != 25 {
			t.Errorf("first share = %+v, want X owing 25", got[0])
		}
		if got[1].MemberID != y || got[1].Amount != 25 {
			t.Errorf("second share = %+v, want Y owing 25", got[1])
		}
	})

	t.Run("repeat participants are summed", func(t *testing.T) {
		items := [][]Share{
			{{MemberID: x, Amount: 12.5}, {MemberID: y, Amount: 12.5}},
			{{MemberID: x, Amount: 30}},
			{{MemberID: x, Amount: 0.05}, {ExternalName: "Sam", Amount: 9.95}},
		}

		got := AggregateItems(items)
		if len(got) != 3 {
			t.Fatalf("len = %d, want 3", len(got))
		}
		if got[0].MemberID != x || got[0].Amount != 42.55 {
			t.Errorf("X share = %+v, want 42.55", got[0])
		}
		if got[1].MemberID != y || got[1].Amount != 12.5 {
			t.Errorf("Y share = %+v, want 12.5", got[1])
		}
		if got[2].ExternalName != "Sam" || got[2].Amount != 9.95 {
			t.Errorf("external share = %+v, want Sam owing 9.95", got[2])
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if got := AggregateItems(nil); len(got) != 0 {
			t.Errorf("len = %d, want 0", len(got))
		}
	})
}
