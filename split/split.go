// Package split implements the expense splitting engine: percentage
// assignment over a candidate participant list, submit validation, line-item
// aggregation and balance sheet netting. Every operation is a pure
// value-in/value-out transformation; the HTTP layer re-renders from the
// returned list and decides how to surface errors.
package split

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Mode is the active percentage assignment strategy.
type Mode int

const (
	// ModeEven recomputes equal shares on every selection change.
	ModeEven Mode = iota
	// ModeCustom keeps manually entered percentages where possible.
	ModeCustom
)

// Participant is one candidate in an expense split. Exactly one of MemberID
// and ExternalName identifies it: registered members carry a non-nil
// MemberID, externals carry a name and a nil MemberID.
type Participant struct {
	MemberID     uuid.UUID
	ExternalName string
	DisplayName  string
	Selected     bool
	Percentage   float64
}

// IsExternal reports whether the participant is not a registered member.
func (p Participant) IsExternal() bool {
	return p.MemberID == uuid.Nil
}

// Member builds a selected candidate for a registered member.
func Member(id uuid.UUID, name string) Participant {
	return Participant{MemberID: id, DisplayName: name, Selected: true}
}

// External builds a selected candidate for a freeform name.
func External(name string) Participant {
	return Participant{ExternalName: name, DisplayName: name, Selected: true}
}

// EvenSplit returns the percentage each of selectedCount participants gets
// under an even split. Zero selected yields 0 for everyone; that is a valid
// transient state which Validate rejects at submit time.
func EvenSplit(selectedCount int) float64 {
	if selectedCount <= 0 {
		return 0
	}
	return 100 / float64(selectedCount)
}

// Toggle flips the selection flag at index and recomputes every selected
// participant's percentage to the even split of the new selected count.
// The recomputation is unconditional: manually entered percentages are reset
// whenever the selection changes, in either mode.
func Toggle(list []Participant, index int) ([]Participant, error) {
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("participant index %d out of range", index)
	}

	out := clone(list)
	out[index].Selected = !out[index].Selected
	redistributeEven(out)
	return out, nil
}

// SetPercentage sets the target's percentage to rawValue clamped to [0, 100]
// and distributes the remainder evenly across the other selected
// participants, so the selected total is exactly 100 after every edit. If the
// target is the sole selected participant it is forced to 100 regardless of
// input.
func SetPercentage(list []Participant, index int, rawValue float64) ([]Participant, error) {
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("participant index %d out of range", index)
	}
	if !list[index].Selected {
		return nil, fmt.Errorf("participant %q is not selected", list[index].DisplayName)
	}

	clamped := rawValue
	if clamped < 0 {
		clamped = 0
	}
	if clamped > 100 {
		clamped = 100
	}

	out := clone(list)

	var others int
	for i, p := range out {
		if p.Selected && i != index {
			others++
		}
	}

	if others == 0 {
		out[index].Percentage = 100
		return out, nil
	}

	out[index].Percentage = clamped
	share := (100 - clamped) / float64(others)
	for i := range out {
		if out[i].Selected && i != index {
			out[i].Percentage = share
		}
	}
	return out, nil
}

// AddExternal appends a new external participant, selected by default, and
// re-runs the even redistribution so the newcomer is not silently given 0%.
// Names are trimmed; duplicates match case-sensitively against the current
// external candidates.
func AddExternal(list []Participant, name string) ([]Participant, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, ErrEmptyName
	}
	for _, p := range list {
		if p.IsExternal() && p.ExternalName == trimmed {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, trimmed)
		}
	}

	out := clone(list)
	out = append(out, External(trimmed))
	redistributeEven(out)
	return out, nil
}

// Remove deletes the external participant at index. Registered members can
// only be deselected, never removed; passing a member index is a programming
// error. In even mode the remaining selected shares are redistributed; in
// custom mode they are left as-is and the total is surfaced for correction.
func Remove(list []Participant, index int, mode Mode) ([]Participant, error) {
	if index < 0 || index >= len(list) {
		return nil, fmt.Errorf("participant index %d out of range", index)
	}
	if !list[index].IsExternal() {
		return nil, fmt.Errorf("participant %q is a registered member and cannot be removed", list[index].DisplayName)
	}

	out := clone(list)
	out = append(out[:index], out[index+1:]...)
	if mode == ModeEven {
		redistributeEven(out)
	}
	return out, nil
}

// SelectedCount returns the number of currently selected participants.
func SelectedCount(list []Participant) int {
	var n int
	for _, p := range list {
		if p.Selected {
			n++
		}
	}
	return n
}

func redistributeEven(list []Participant) {
	pct := EvenSplit(SelectedCount(list))
	for i := range list {
		if list[i].Selected {
			list[i].Percentage = pct
		} else {
			list[i].Percentage = 0
		}
	}
}

func clone(list []Participant) []Participant {
	out := make([]Participant, len(list))
	copy(out, list)
	return out
}
