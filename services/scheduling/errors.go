package scheduling

import (
	"errors"
	"fmt"

	bookingTypes "theater-booking/types/booking"
)

var (
	// ErrInvalidInterval is returned before any store access when start >= end.
	ErrInvalidInterval = errors.New("invalid interval: start must be before end")

	// ErrNotEligibleForEscalation is returned when the escalation target is
	// missing, not in an active status, or already overridden by a live
	// emergency booking.
	ErrNotEligibleForEscalation = errors.New("booking is not eligible for escalation")

	// ErrEmergencyNotFound is returned when a reversal target is missing or is
	// not an emergency booking.
	ErrEmergencyNotFound = errors.New("emergency booking not found")

	// ErrPlacementExhausted is returned when the first-fit search for a
	// displaced booking finds no free slot within the configured probe cap.
	// The enclosing escalation rolls back entirely.
	ErrPlacementExhausted = errors.New("no free slot found for displaced booking")

	// ErrRestoredSlotOccupied is returned by reversal when the preempted
	// booking's slot has been taken while the emergency was active.
	ErrRestoredSlotOccupied = errors.New("original slot is no longer free")
)

// ConflictError reports every active booking that overlaps a candidate
// interval so the caller can offer the user an alternative slot.
type ConflictError struct {
	TheaterID uint
	Conflicts []bookingTypes.ConflictSummary
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("theater %d has %d conflicting booking(s)", e.TheaterID, len(e.Conflicts))
}

// IsConflict reports whether err is a ConflictError and returns it.
func IsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
