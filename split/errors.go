package split

import "errors"

// Validation failures. All are recoverable input errors surfaced to the
// caller before anything is persisted; none are transient or retried.
var (
	ErrEmptySelection        = errors.New("no participants selected")
	ErrSplitSum              = errors.New("split percentages must sum to 100")
	ErrLineItemSumMismatch   = errors.New("line item amounts do not sum to the expense total")
	ErrDuplicateName         = errors.New("external participant name already exists")
	ErrEmptyName             = errors.New("external participant name cannot be empty")
	ErrInvalidParticipantRef = errors.New("participant must reference exactly one of member or external name")
	ErrAmbiguousSplitMode    = errors.New("exactly one of participants or line items must be provided")
)
