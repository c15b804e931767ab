package booking_event

import (
	bookingModel "theater-booking/models/booking"

	"gorm.io/gorm"
)

// RecordStatusChange appends a status transition row for a booking. It runs
// on the caller's transaction so the event commits or rolls back together
// with the transition itself.
func RecordStatusChange(tx *gorm.DB, bookingID uint, from, to bookingModel.BookingStatus, reason *string, actor string) error {
	event := bookingModel.BookingStatusEvent{
		BookingID:  bookingID,
		FromStatus: from,
		ToStatus:   to,
		Reason:     reason,
		CreatedBy:  actor,
	}
	return tx.Create(&event).Error
}

// RecordEscalation appends an escalation audit row.
func RecordEscalation(tx *gorm.DB, event bookingModel.EscalationEvent) error {
	return tx.Create(&event).Error
}

// StatusHistory returns a booking's transition trail, oldest first.
func StatusHistory(db *gorm.DB, bookingID uint) ([]bookingModel.BookingStatusEvent, error) {
	var events []bookingModel.BookingStatusEvent
	err := db.Where("booking_id = ?", bookingID).
		Order("created_at ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// EscalationHistory returns the escalation audit trail for a theater, newest
// first.
func EscalationHistory(db *gorm.DB, theaterID uint, limit int) ([]bookingModel.EscalationEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var events []bookingModel.EscalationEvent
	err := db.Where("theater_id = ?", theaterID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
