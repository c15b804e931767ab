package booking

import (
	"theater-booking/models/theater"
	"theater-booking/models/user"
	"time"
)

// Booking represents a scheduled operation in a theater. The interval is
// half-open [StartTime, EndTime): a booking ending at 11:00 does not collide
// with one starting at 11:00.
type Booking struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Uuid string `gorm:"type:varchar(36);not null;unique" json:"uuid"`

	// Foreign key for theaters relationship
	TheaterID uint            `gorm:"not null;index" json:"theater_id"`
	Theater   theater.Theater `gorm:"foreignKey:TheaterID" json:"theater"`

	// Patient/clinical payload. The scheduling engine carries these through
	// unchanged; only theater, interval and status matter to it.
	PatientName         string     `gorm:"type:varchar(255);not null" json:"patient_name"`
	PatientMRN          string     `gorm:"type:varchar(64);not null;index" json:"patient_mrn"`
	PatientDOB          *time.Time `json:"patient_dob,omitempty"`
	PatientNIDEncrypted *string    `gorm:"type:text" json:"-"`
	ProcedureName       string     `gorm:"type:varchar(255);not null" json:"procedure_name"`
	SurgeonName         string     `gorm:"type:varchar(255);not null" json:"surgeon_name"`
	Notes               *string    `gorm:"type:text" json:"notes,omitempty"`

	StartTime time.Time `gorm:"not null;index" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`

	Status BookingStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	// Emergency linkage. OverriddenBookingID points from an emergency booking
	// back to the regular booking it preempted; at most one live emergency may
	// reference a given booking at a time.
	IsEmergency         bool     `gorm:"not null;default:false" json:"is_emergency"`
	OverriddenBookingID *uint    `gorm:"index" json:"overridden_booking_id,omitempty"`
	OverriddenBooking   *Booking `gorm:"foreignKey:OverriddenBookingID" json:"overridden_booking,omitempty"`
	EmergencyReason     *string  `gorm:"type:text" json:"emergency_reason,omitempty"`

	CreatedByID *uint      `gorm:"index" json:"created_by_id,omitempty"`
	CreatedBy   *user.User `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedBy string     `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"` // Soft delete field
}

// Duration returns the booked interval length.
func (b *Booking) Duration() time.Duration {
	return b.EndTime.Sub(b.StartTime)
}

// Overlaps reports whether the booking's interval overlaps [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && start.Before(b.EndTime)
}
