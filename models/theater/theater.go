package theater

import (
	"time"
)

// Theater represents a physical operating theater. Bookings in different
// theaters never conflict with each other.
type Theater struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code      string    `gorm:"type:varchar(50);not null;unique" json:"code"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Location  *string   `gorm:"type:varchar(255)" json:"location,omitempty"`
	Specialty *string   `gorm:"type:varchar(255)" json:"specialty,omitempty"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
