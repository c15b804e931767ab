package scheduling

import (
	"fmt"
	"testing"
	"time"

	bookingModel "theater-booking/models/booking"
	theaterModel "theater-booking/models/theater"
	userModel "theater-booking/models/user"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&userModel.User{},
		&theaterModel.Theater{},
		&bookingModel.Booking{},
		&bookingModel.BookingStatusEvent{},
		&bookingModel.EscalationEvent{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func createTestTheater(t *testing.T, db *gorm.DB, code string) *theaterModel.Theater {
	t.Helper()

	theater := &theaterModel.Theater{
		Code:   code,
		Name:   "Theater " + code,
		Active: true,
	}
	if err := db.Create(theater).Error; err != nil {
		t.Fatalf("failed to create test theater: %v", err)
	}
	return theater
}

var bookingSeq int

func createTestBooking(t *testing.T, db *gorm.DB, theaterID uint, start, end time.Time, status bookingModel.BookingStatus) *bookingModel.Booking {
	t.Helper()

	bookingSeq++
	booking := &bookingModel.Booking{
		Uuid:          uuid.NewString(),
		TheaterID:     theaterID,
		PatientName:   fmt.Sprintf("Patient %d", bookingSeq),
		PatientMRN:    fmt.Sprintf("MRN%04d", bookingSeq),
		ProcedureName: "Appendectomy",
		SurgeonName:   "Dr. Rahman",
		StartTime:     start,
		EndTime:       end,
		Status:        status,
		UpdatedBy:     "test",
	}
	if err := db.Create(booking).Error; err != nil {
		t.Fatalf("failed to create test booking: %v", err)
	}
	return booking
}

// newTestService returns an escalation service with a fixed clock and small
// deterministic search parameters.
func newTestService(db *gorm.DB, now time.Time) *Service {
	svc := NewService(db, Config{
		EmergencyWindow: time.Hour,
		ProbeStep:       30 * time.Minute,
		MaxProbes:       48,
	})
	svc.Now = func() time.Time { return now }
	return svc
}

func mustFindBooking(t *testing.T, db *gorm.DB, id uint) *bookingModel.Booking {
	t.Helper()

	var booking bookingModel.Booking
	if err := db.First(&booking, id).Error; err != nil {
		t.Fatalf("failed to load booking %d: %v", id, err)
	}
	return &booking
}

// at builds a timestamp on a fixed reference day.
func at(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
