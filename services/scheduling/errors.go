package scheduling

import "errors"

// Terminal outcomes of a scheduling attempt. Each maps to a solicitation
// failure reason and exactly one notification.
var (
	ErrSchedulingDisabled = errors.New("automatic scheduling is disabled")
	ErrNoProviders        = errors.New("no providers found matching criteria")
	ErrNoSlot             = errors.New("no available slot within the preferred window")
	ErrAwaitingManual     = errors.New("solicitation is awaiting manual response")
)

// Human-readable failure reasons stored on the solicitation and sent with
// the failure notification.
const (
	ReasonDisabled    = "automatic scheduling is disabled"
	ReasonNoProviders = "no providers found"
	ReasonNoSlot      = "no available slot"
)
