// models/booking/escalation_event.go
package booking

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// EscalationEventType distinguishes the audit rows written by the escalation engine.
type EscalationEventType string

const (
	EscalationEventPerformed EscalationEventType = "performed"
	EscalationEventCancelled EscalationEventType = "cancelled"
)

// ShiftedBooking records one displaced booking's relocation inside an escalation.
type ShiftedBooking struct {
	BookingID uint      `json:"booking_id"`
	OldStart  time.Time `json:"old_start"`
	OldEnd    time.Time `json:"old_end"`
	NewStart  time.Time `json:"new_start"`
	NewEnd    time.Time `json:"new_end"`
}

// ShiftedBookingList is stored as a JSON column in PostgreSQL.
type ShiftedBookingList []ShiftedBooking

// Scan implements the Scanner interface for database deserialization
func (sl *ShiftedBookingList) Scan(value interface{}) error {
	if value == nil {
		*sl = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return errors.New("type assertion to []byte failed")
		}
	}

	return json.Unmarshal(bytes, sl)
}

// Value implements the driver Valuer interface for database serialization
func (sl ShiftedBookingList) Value() (driver.Value, error) {
	if sl == nil {
		return nil, nil
	}
	return json.Marshal(sl)
}

// EscalationEvent is a full audit snapshot of a performed or cancelled
// escalation. Events are many per booking; reversal reads nothing from here,
// the rows exist purely for the audit trail.
type EscalationEvent struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	EventType EscalationEventType `gorm:"type:varchar(20);not null;index" json:"event_type"`

	EmergencyBookingID  uint  `gorm:"not null;index" json:"emergency_booking_id"`
	OverriddenBookingID *uint `gorm:"index" json:"overridden_booking_id,omitempty"`

	TheaterID       uint               `gorm:"not null;index" json:"theater_id"`
	EmergencyStart  time.Time          `gorm:"not null" json:"emergency_start"`
	EmergencyEnd    time.Time          `gorm:"not null" json:"emergency_end"`
	EmergencyReason string             `gorm:"type:text;not null" json:"emergency_reason"`
	ShiftedBookings ShiftedBookingList `gorm:"type:json" json:"shifted_bookings"`

	CreatedBy string    `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the EscalationEvent model
func (EscalationEvent) TableName() string {
	return "escalation_events"
}
