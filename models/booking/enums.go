package booking

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusScheduled BookingStatus = "scheduled"
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCanceled  BookingStatus = "canceled"
	// BookingStatusPreempted marks a booking whose slot was appropriated by an
	// emergency. Preempted bookings are excluded from conflict checks but are
	// retained for audit and reversal.
	BookingStatusPreempted BookingStatus = "preempted"
)

// Helper methods for BookingStatus
func (bs BookingStatus) String() string {
	return string(bs)
}

func (bs BookingStatus) IsValid() bool {
	switch bs {
	case BookingStatusScheduled, BookingStatusPending, BookingStatusCompleted, BookingStatusCanceled, BookingStatusPreempted:
		return true
	default:
		return false
	}
}

// IsActive returns true if the booking occupies its theater for conflict
// purposes. Only scheduled and pending bookings count.
func (bs BookingStatus) IsActive() bool {
	return bs == BookingStatusScheduled || bs == BookingStatusPending
}

// IsTerminal returns true if the booking has reached a final state
func (bs BookingStatus) IsTerminal() bool {
	return bs == BookingStatusCompleted || bs == BookingStatusCanceled
}

// CanBeUpdated returns true if the booking's interval or details may still change
func (bs BookingStatus) CanBeUpdated() bool {
	return bs == BookingStatusScheduled || bs == BookingStatusPending
}

// ActiveStatuses returns the statuses that participate in conflict detection
func ActiveStatuses() []BookingStatus {
	return []BookingStatus{BookingStatusScheduled, BookingStatusPending}
}

// GetAllBookingStatuses returns all valid booking statuses
func GetAllBookingStatuses() []BookingStatus {
	return []BookingStatus{
		BookingStatusScheduled,
		BookingStatusPending,
		BookingStatusCompleted,
		BookingStatusCanceled,
		BookingStatusPreempted,
	}
}
