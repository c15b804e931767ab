package scheduling

import (
	"time"

	bookingModel "theater-booking/models/booking"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FindConflicts returns every active booking in the theater whose interval
// overlaps [start, end), ordered ascending by start time. Two half-open
// intervals [s1,e1) and [s2,e2) conflict iff s1 < e2 AND s2 < e1, so touching
// endpoints never conflict. Preempted, canceled and completed bookings never
// participate. excludeID, when non-nil, drops the named booking from the
// result (used when checking a booking against others during its own update).
//
// The query has no side effects and is safe to repeat within a transaction.
func FindConflicts(tx *gorm.DB, theaterID uint, start, end time.Time, excludeID *uint) ([]bookingModel.Booking, error) {
	var exclude []uint
	if excludeID != nil {
		exclude = append(exclude, *excludeID)
	}
	return findConflictsExcluding(tx, theaterID, start, end, exclude)
}

// findConflictsExcluding is the multi-exclusion variant the escalation engine
// uses while relocating a displaced set: bookings that are about to be moved
// must not block each other's placement.
func findConflictsExcluding(tx *gorm.DB, theaterID uint, start, end time.Time, excludeIDs []uint) ([]bookingModel.Booking, error) {
	if !start.Before(end) {
		return nil, ErrInvalidInterval
	}

	query := tx.
		Where("theater_id = ?", theaterID).
		Where("status IN ?", activeStatusNames()).
		Where("deleted_at IS NULL").
		Where("start_time < ? AND ? < end_time", end, start).
		Order("start_time ASC")

	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}

	var conflicts []bookingModel.Booking
	if err := query.Find(&conflicts).Error; err != nil {
		return nil, err
	}
	return conflicts, nil
}

func activeStatusNames() []string {
	statuses := bookingModel.ActiveStatuses()
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = s.String()
	}
	return names
}

// lockForUpdate adds a FOR UPDATE clause on dialects that support row locks.
// The sqlite-backed tests run the same code path; sqlite serializes writers
// on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	return tx
}
