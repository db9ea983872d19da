package split

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
)

func selectedSum(list []Participant) float64 {
	var sum float64
	for _, p := range list {
		if p.Selected {
			sum += p.Percentage
		}
	}
	return sum
}

func candidates(n int) []Participant {
	list := make([]Participant, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, Member(uuid.New(), string(rune('A'+i))))
	}
	redistributeEven(list)
	return list
}

func TestEvenSplit(t *testing.T) {
	tests := []struct {
		name          string
		selectedCount int
		want          float64
	}{
		{"zero selected", 0, 0},
		{"one selected", 1, 100},
		{"two selected", 2, 50},
		{"four selected", 4, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvenSplit(tt.selectedCount); got != tt.want {
				t.Errorf("EvenSplit(%d) = %v, want %v", tt.selectedCount, got, tt.want)
			}
		})
	}
}

func TestToggleRecomputesEvenSplit(t *testing.T) {
	list := candidates(3)

	// Deselect one; the remaining two should hold 50 each.
	out, err := Toggle(list, 1)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if out[1].Selected {
		t.Error("participant 1 should be deselected")
	}
	if out[1].Percentage != 0 {
		t.Errorf("deselected percentage = %v, want 0", out[1].Percentage)
	}
	if out[0].Percentage != 50 || out[2].Percentage != 50 {
		t.Errorf("selected percentages = %v, %v, want 50, 50", out[0].Percentage, out[2].Percentage)
	}

	// Toggling always resets manual percentages, even after a custom edit.
	custom, err := SetPercentage(out, 0, 80)
	if err != nil {
		t.Fatalf("SetPercentage() error = %v", err)
	}
	reset, err := Toggle(custom, 1)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	for i, p := range reset {
		if want := 100.0 / 3; math.Abs(p.Percentage-want) > 1e-9 {
			t.Errorf("participant %d percentage = %v, want %v", i, p.Percentage, want)
		}
	}

	// Input list must not be mutated.
	if !list[1].Selected {
		t.Error("Toggle mutated its input")
	}
}

func TestToggleSumInvariant(t *testing.T) {
	list := candidates(5)

	// Walk through a series of toggles; whenever anything is selected the
	// selected percentages must sum to exactly 100.
	for _, index := range []int{0, 3, 0, 4, 2, 1} {
		var err error
		list, err = Toggle(list, index)
		if err != nil {
			t.Fatalf("Toggle(%d) error = %v", index, err)
		}
		if SelectedCount(list) == 0 {
			continue
		}
		if sum := selectedSum(list); math.Abs(sum-100) > 1e-9 {
			t.Errorf("after Toggle(%d): selected sum = %v, want 100", index, sum)
		}
	}
}

func TestToggleDownToZeroSelection(t *testing.T) {
	list := candidates(2)

	list, _ = Toggle(list, 0)
	list, _ = Toggle(list, 1)

	for i, p := range list {
		if p.Selected {
			t.Errorf("participant %d still selected", i)
		}
		if p.Percentage != 0 {
			t.Errorf("participant %d percentage = %v, want 0", i, p.Percentage)
		}
	}

	if err := Validate(list); !errors.Is(err, ErrEmptySelection) {
		t.Errorf("Validate() error = %v, want ErrEmptySelection", err)
	}
}

func TestToggleIndexOutOfRange(t *testing.T) {
	if _, err := Toggle(candidates(2), 5); err == nil {
		t.Error("Toggle() with bad index should error")
	}
}

func TestSetPercentageRedistributes(t *testing.T) {
	tests := []struct {
		name       string
		size       int
		index      int
		raw        float64
		wantTarget float64
		wantOthers float64
	}{
		{"seventy across three", 3, 0, 70, 70, 15},
		{"clamped above hundred", 3, 1, 150, 100, 0},
		{"clamped below zero", 3, 2, -20, 0, 50},
		{"half across two", 2, 0, 50, 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := SetPercentage(candidates(tt.size), tt.index, tt.raw)
			if err != nil {
				t.Fatalf("SetPercentage() error = %v", err)
			}
			if got := out[tt.index].Percentage; got != tt.wantTarget {
				t.Errorf("target percentage = %v, want %v", got, tt.wantTarget)
			}
			for i, p := range out {
				if i == tt.index {
					continue
				}
				if p.Percentage != tt.wantOthers {
					t.Errorf("participant %d percentage = %v, want %v", i, p.Percentage, tt.wantOthers)
				}
			}
			if sum := selectedSum(out); math.Abs(sum-100) > 1e-9 {
				t.Errorf("selected sum = %v, want 100", sum)
			}
		})
	}
}

func TestSetPercentageSoleSelectedForcedToHundred(t *testing.T) {
	list := candidates(3)
	list, _ = Toggle(list, 1)
	list, _ = Toggle(list, 2)

	out, err := SetPercentage(list, 0, 40)
	if err != nil {
		t.Fatalf("SetPercentage() error = %v", err)
	}
	if out[0].Percentage != 100 {
		t.Errorf("sole selected percentage = %v, want 100", out[0].Percentage)
	}
}

func TestSetPercentageUnselectedTarget(t *testing.T) {
	list := candidates(2)
	list, _ = Toggle(list, 0)

	if _, err := SetPercentage(list, 0, 30); err == nil {
		t.Error("SetPercentage() on an unselected participant should error")
	}
}

func TestAddExternal(t *testing.T) {
	list := candidates(2)

	out, err := AddExternal(list, "  Grandma  ")
	if err != nil {
		t.Fatalf("AddExternal() error = %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}

	added := out[2]
	if added.ExternalName != "Grandma" {
		t.Errorf("external name = %q, want %q (trimmed)", added.ExternalName, "Grandma")
	}
	if !added.IsExternal() {
		t.Error("added participant should be external")
	}
	if !added.Selected {
		t.Error("added participant should be selected by default")
	}

	// Newcomer must not be left at 0%: everyone holds an even share again.
	for i, p := range out {
		if want := 100.0 / 3; math.Abs(p.Percentage-want) > 1e-9 {
			t.Errorf("participant %d percentage = %v, want %v", i, p.Percentage, want)
		}
	}
}

func TestAddExternalRejectsEmptyAndDuplicate(t *testing.T) {
	list := candidates(1)
	list, err := AddExternal(list, "Sam")
	if err != nil {
		t.Fatalf("AddExternal() error = %v", err)
	}

	if _, err := AddExternal(list, "   "); !errors.Is(err, ErrEmptyName) {
		t.Errorf("blank name error = %v, want ErrEmptyName", err)
	}
	if _, err := AddExternal(list, "Sam"); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate name error = %v, want ErrDuplicateName", err)
	}
	// Case-sensitive exact match: a different casing is a different person.
	if _, err := AddExternal(list, "sam"); err != nil {
		t.Errorf("different casing error = %v, want nil", err)
	}
}

func TestRemove(t *testing.T) {
	list := candidates(2)
	list, _ = AddExternal(list, "Sam")

	t.Run("member cannot be removed", func(t *testing.T) {
		if _, err := Remove(list, 0, ModeEven); err == nil {
			t.Error("removing a registered member should error")
		}
	})

	t.Run("even mode redistributes", func(t *testing.T) {
		out, err := Remove(list, 2, ModeEven)
		if err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
		if len(out) != 2 {
			t.Fatalf("len = %d, want 2", len(out))
		}
		for i, p := range out {
			if p.Percentage != 50 {
				t.Errorf("participant %d percentage = %v, want 50", i, p.Percentage)
			}
		}
	})

	t.Run("custom mode keeps percentages", func(t *testing.T) {
		custom, err := SetPercentage(list, 0, 50)
		if err != nil {
			t.Fatalf("SetPercentage() error = %v", err)
		}
		// 50 / 25 / 25; dropping the external leaves 50 + 25 = 75.
		out, err := Remove(custom, 2, ModeCustom)
		if err != nil {
			t.Fatalf("Remove() error = %v", err)
		}
		if out[0].Percentage != 50 || out[1].Percentage != 25 {
			t.Errorf("percentages = %v, %v, want 50, 25", out[0].Percentage, out[1].Percentage)
		}
		if err := Validate(out); !errors.Is(err, ErrSplitSum) {
			t.Errorf("Validate() error = %v, want ErrSplitSum", err)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		percentages []float64
		wantErr     error
	}{
		{"even thirds", []float64{100.0 / 3, 100.0 / 3, 100.0 / 3}, nil},
		{"within tolerance", []float64{33.33, 33.33, 33.34}, nil},
		{"undershoot", []float64{33.33, 33.33, 33.33}, nil}, // 99.99, within 0.01
		{"sum too low", []float64{40, 40}, ErrSplitSum},
		{"sum too high", []float64{60, 60}, ErrSplitSum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := candidates(len(tt.percentages))
			for i := range list {
				list[i].Percentage = tt.percentages[i]
			}
			err := Validate(list)
			if tt.wantErr == nil && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAmounts(t *testing.T) {
	t.Run("hundred split three ways", func(t *testing.T) {
		shares, err := Amounts(100, candidates(3))
		if err != nil {
			t.Fatalf("Amounts() error = %v", err)
		}

		var sum float64
		for _, s := range shares {
			if s.Amount < 0 {
				t.Errorf("amount %v is negative", s.Amount)
			}
			exact := 100 * s.Percentage / 100
			if math.Abs(s.Amount-exact) > 0.01 {
				t.Errorf("amount %v deviates from exact share %v by more than a cent", s.Amount, exact)
			}
			sum += s.Amount
		}
		// Accepted rounding slack: up to a cent per extra participant.
		if math.Abs(sum-100) > 0.02 {
			t.Errorf("amounts sum = %v, want 100 ± 0.02", sum)
		}
	})

	t.Run("fifty with seventy percent target", func(t *testing.T) {
		list, err := SetPercentage(candidates(3), 0, 70)
		if err != nil {
			t.Fatalf("SetPercentage() error = %v", err)
		}
		shares, err := Amounts(50, list)
		if err != nil {
			t.Fatalf("Amounts() error = %v", err)
		}
		want := []float64{35, 7.5, 7.5}
		for i, s := range shares {
			if s.Amount != want[i] {
				t.Errorf("share %d amount = %v, want %v", i, s.Amount, want[i])
			}
		}
	})

	t.Run("empty selection rejected before computing", func(t *testing.T) {
		list := candidates(2)
		list, _ = Toggle(list, 0)
		list, _ = Toggle(list, 1)
		if _, err := Amounts(100, list); !errors.Is(err, ErrEmptySelection) {
			t.Errorf("Amounts() error = %v, want ErrEmptySelection", err)
		}
	})
}

func TestValidateRef(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name         string
		memberID     uuid.UUID
		externalName string
		wantErr      bool
	}{
		{"member only", id, "", false},
		{"external only", uuid.Nil, "Sam", false},
		{"both populated", id, "Sam", true},
		{"neither populated", uuid.Nil, "", true},
		{"whitespace external", uuid.Nil, "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRef(tt.memberID, tt.externalName)
			if tt.wantErr && !errors.Is(err, ErrInvalidParticipantRef) {
				t.Errorf("ValidateRef() error = %v, want ErrInvalidParticipantRef", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateRef() error = %v, want nil", err)
			}
		})
	}
}

func TestValidateShape(t *testing.T) {
	tests := []struct {
		name         string
		participants int
		lineItems    int
		wantErr      bool
	}{
		{"participant mode", 3, 0, false},
		{"itemized mode", 0, 2, false},
		{"both populated", 3, 2, true},
		{"neither populated", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateShape(tt.participants, tt.lineItems)
			if tt.wantErr && !errors.Is(err, ErrAmbiguousSplitMode) {
				t.Errorf("ValidateShape() error = %v, want ErrAmbiguousSplitMode", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateShape() error = %v, want nil", err)
			}
		})
	}
}
