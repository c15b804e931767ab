package scheduling

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"theater-booking/logger"
	bookingModel "theater-booking/models/booking"
	bookingEvent "theater-booking/services/booking_event"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Config holds the tunables of the escalation engine.
type Config struct {
	// EmergencyWindow is the fixed duration of an emergency booking.
	EmergencyWindow time.Duration
	// ProbeStep is how far the first-fit search advances after each collision.
	ProbeStep time.Duration
	// MaxProbes bounds the first-fit search per displaced booking. When the
	// cap is hit the whole escalation fails with ErrPlacementExhausted and
	// rolls back.
	MaxProbes int
}

// DefaultConfig returns the production defaults: a one hour emergency window,
// 30 minute probe steps and a 24 hour search horizon.
func DefaultConfig() Config {
	return Config{
		EmergencyWindow: time.Hour,
		ProbeStep:       30 * time.Minute,
		MaxProbes:       48,
	}
}

// ConfigFromEnv reads overrides from EMERGENCY_WINDOW_MINUTES,
// RESCHEDULE_PROBE_MINUTES and RESCHEDULE_MAX_PROBES.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v, err := strconv.Atoi(os.Getenv("EMERGENCY_WINDOW_MINUTES")); err == nil && v > 0 {
		cfg.EmergencyWindow = time.Duration(v) * time.Minute
	}
	if v, err := strconv.Atoi(os.Getenv("RESCHEDULE_PROBE_MINUTES")); err == nil && v > 0 {
		cfg.ProbeStep = time.Duration(v) * time.Minute
	}
	if v, err := strconv.Atoi(os.Getenv("RESCHEDULE_MAX_PROBES")); err == nil && v > 0 {
		cfg.MaxProbes = v
	}
	return cfg
}

// Service is the escalation engine. All mutating operations run inside a
// single transaction and either commit completely or leave the store
// untouched.
type Service struct {
	DB     *gorm.DB
	Config Config

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

// NewService creates a new escalation service
func NewService(db *gorm.DB, cfg Config) *Service {
	return &Service{
		DB:     db,
		Config: cfg,
		Now:    time.Now,
	}
}

// EscalationResult reports what an escalation did.
type EscalationResult struct {
	EmergencyBookingID  uint
	OverriddenBookingID uint
	ShiftedBookingIDs   []uint
	ShiftedBookings     []bookingModel.ShiftedBooking
	EmergencyStart      time.Time
	EmergencyEnd        time.Time
}

// ReversalResult reports what cancelling an escalation did.
type ReversalResult struct {
	RestoredBookingID uint
	TheaterID         uint
}

// Escalate seizes the target booking's theater for an emergency window
// starting now. The target is preempted, every other active booking that
// overlaps the window is pushed forward to its next free slot in the same
// theater, and a new emergency booking linked back to the target is inserted.
// Displaced bookings are processed earliest-first and each relocation is
// persisted before the next is computed, so the outcome is a deterministic
// function of the initial schedule.
func (s *Service) Escalate(bookingID uint, reason, actor string) (*EscalationResult, error) {
	if reason == "" {
		return nil, fmt.Errorf("escalation reason is required")
	}

	var result EscalationResult

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var target bookingModel.Booking
		if err := lockForUpdate(tx).First(&target, bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotEligibleForEscalation
			}
			return err
		}

		if target.DeletedAt != nil || !target.Status.IsActive() {
			return ErrNotEligibleForEscalation
		}

		// Reject double escalation: at most one live emergency may reference
		// a given booking.
		var existing int64
		if err := tx.Model(&bookingModel.Booking{}).
			Where("overridden_booking_id = ? AND is_emergency = ? AND deleted_at IS NULL", target.ID, true).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrNotEligibleForEscalation
		}

		now := s.Now()
		emergencyStart := now
		emergencyEnd := now.Add(s.Config.EmergencyWindow)

		// Lock the theater's active bookings for the duration of the
		// transaction so two concurrent escalations cannot both see the same
		// slot as free.
		var active []bookingModel.Booking
		if err := lockForUpdate(tx).
			Where("theater_id = ? AND status IN ? AND deleted_at IS NULL", target.TheaterID, activeStatusNames()).
			Find(&active).Error; err != nil {
			return err
		}

		// Preempt the target; it stops counting as active from here on.
		if err := s.transition(tx, &target, bookingModel.BookingStatusPreempted, &reason, actor); err != nil {
			return err
		}

		displaced, err := FindConflicts(tx, target.TheaterID, emergencyStart, emergencyEnd, nil)
		if err != nil {
			return err
		}

		// Bookings still awaiting relocation must not block earlier ones:
		// every member of the displaced set is leaving its current slot.
		pending := make([]uint, 0, len(displaced))
		for _, d := range displaced {
			pending = append(pending, d.ID)
		}

		shifted := make(bookingModel.ShiftedBookingList, 0, len(displaced))
		shiftedIDs := make([]uint, 0, len(displaced))

		for i := range displaced {
			d := &displaced[i]

			newStart, err := s.firstFit(tx, d, emergencyEnd, pending)
			if err != nil {
				return err
			}

			oldStart, oldEnd := d.StartTime, d.EndTime
			newEnd := newStart.Add(d.Duration())

			// Persist immediately so later displaced bookings see this one
			// at its new time.
			if err := tx.Model(d).Updates(map[string]interface{}{
				"start_time": newStart,
				"end_time":   newEnd,
				"updated_by": actor,
			}).Error; err != nil {
				return err
			}
			d.StartTime, d.EndTime = newStart, newEnd

			// Relocated: it now blocks with its persisted interval.
			pending = pending[1:]

			shifted = append(shifted, bookingModel.ShiftedBooking{
				BookingID: d.ID,
				OldStart:  oldStart,
				OldEnd:    oldEnd,
				NewStart:  newStart,
				NewEnd:    newEnd,
			})
			shiftedIDs = append(shiftedIDs, d.ID)
		}

		emergency := bookingModel.Booking{
			Uuid:                uuid.NewString(),
			TheaterID:           target.TheaterID,
			PatientName:         target.PatientName,
			PatientMRN:          target.PatientMRN,
			PatientDOB:          target.PatientDOB,
			PatientNIDEncrypted: target.PatientNIDEncrypted,
			ProcedureName:       target.ProcedureName,
			SurgeonName:         target.SurgeonName,
			Notes:               target.Notes,
			StartTime:           emergencyStart,
			EndTime:             emergencyEnd,
			Status:              bookingModel.BookingStatusScheduled,
			IsEmergency:         true,
			OverriddenBookingID: &target.ID,
			EmergencyReason:     &reason,
			CreatedByID:         target.CreatedByID,
			UpdatedBy:           actor,
		}
		if err := tx.Create(&emergency).Error; err != nil {
			return err
		}

		if err := bookingEvent.RecordEscalation(tx, bookingModel.EscalationEvent{
			EventType:           bookingModel.EscalationEventPerformed,
			EmergencyBookingID:  emergency.ID,
			OverriddenBookingID: &target.ID,
			TheaterID:           target.TheaterID,
			EmergencyStart:      emergencyStart,
			EmergencyEnd:        emergencyEnd,
			EmergencyReason:     reason,
			ShiftedBookings:     shifted,
			CreatedBy:           actor,
		}); err != nil {
			return err
		}

		result = EscalationResult{
			EmergencyBookingID:  emergency.ID,
			OverriddenBookingID: target.ID,
			ShiftedBookingIDs:   shiftedIDs,
			ShiftedBookings:     shifted,
			EmergencyStart:      emergencyStart,
			EmergencyEnd:        emergencyEnd,
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	logger.Success(fmt.Sprintf("Escalated booking %d: emergency %d, %d booking(s) shifted",
		result.OverriddenBookingID, result.EmergencyBookingID, len(result.ShiftedBookingIDs)))
	return &result, nil
}

// firstFit finds the earliest conflict-free start for b at or after from,
// advancing by the configured probe step. Exactly MaxProbes candidate starts
// are tried, from itself included. Bookings listed in pendingIDs (displaced,
// not yet relocated) do not block.
func (s *Service) firstFit(tx *gorm.DB, b *bookingModel.Booking, from time.Time, pendingIDs []uint) (time.Time, error) {
	duration := b.Duration()
	candidate := from

	for probe := 0; probe < s.Config.MaxProbes; probe++ {
		conflicts, err := findConflictsExcluding(tx, b.TheaterID, candidate, candidate.Add(duration), pendingIDs)
		if err != nil {
			return time.Time{}, err
		}
		if len(conflicts) == 0 {
			return candidate, nil
		}
		candidate = candidate.Add(s.Config.ProbeStep)
	}

	return time.Time{}, fmt.Errorf("%w: booking %d exceeded %d probes",
		ErrPlacementExhausted, b.ID, s.Config.MaxProbes)
}

// CancelEscalation undoes an escalation: the emergency booking row is deleted
// and the preempted booking, if any, is restored to scheduled. Bookings
// shifted by the escalation keep their new, already conflict-free times;
// shifting them back could reintroduce conflicts. Before restoring, the
// original slot is re-checked and the reversal fails with
// ErrRestoredSlotOccupied when another booking has taken it in the interim.
func (s *Service) CancelEscalation(emergencyBookingID uint, actor string) (*ReversalResult, error) {
	var result ReversalResult

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var emergency bookingModel.Booking
		if err := lockForUpdate(tx).First(&emergency, emergencyBookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEmergencyNotFound
			}
			return err
		}
		if !emergency.IsEmergency || emergency.DeletedAt != nil {
			return ErrEmergencyNotFound
		}
		result.TheaterID = emergency.TheaterID

		if emergency.OverriddenBookingID != nil {
			var original bookingModel.Booking
			if err := lockForUpdate(tx).First(&original, *emergency.OverriddenBookingID).Error; err != nil {
				return err
			}

			// The emergency row is about to be deleted, so it must not count
			// as a blocker for the restored slot.
			conflicts, err := FindConflicts(tx, original.TheaterID, original.StartTime, original.EndTime, &emergency.ID)
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return fmt.Errorf("%w: booking %d", ErrRestoredSlotOccupied, original.ID)
			}

			if err := s.transition(tx, &original, bookingModel.BookingStatusScheduled, nil, actor); err != nil {
				return err
			}
			result.RestoredBookingID = original.ID
		}

		if err := tx.Delete(&bookingModel.Booking{}, emergency.ID).Error; err != nil {
			return err
		}

		return bookingEvent.RecordEscalation(tx, bookingModel.EscalationEvent{
			EventType:           bookingModel.EscalationEventCancelled,
			EmergencyBookingID:  emergency.ID,
			OverriddenBookingID: emergency.OverriddenBookingID,
			TheaterID:           emergency.TheaterID,
			EmergencyStart:      emergency.StartTime,
			EmergencyEnd:        emergency.EndTime,
			EmergencyReason:     derefOrEmpty(emergency.EmergencyReason),
			CreatedBy:           actor,
		})
	})

	if err != nil {
		return nil, err
	}

	logger.Success(fmt.Sprintf("Cancelled escalation %d, restored booking %d", emergencyBookingID, result.RestoredBookingID))
	return &result, nil
}

// transition updates a booking's status and writes the audit event in one go.
func (s *Service) transition(tx *gorm.DB, b *bookingModel.Booking, to bookingModel.BookingStatus, reason *string, actor string) error {
	from := b.Status
	if err := tx.Model(b).Updates(map[string]interface{}{
		"status":     to,
		"updated_by": actor,
	}).Error; err != nil {
		return err
	}
	b.Status = to
	return bookingEvent.RecordStatusChange(tx, b.ID, from, to, reason, actor)
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
