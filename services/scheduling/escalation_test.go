package scheduling

import (
	"errors"
	"testing"
	"time"

	bookingModel "theater-booking/models/booking"

	"gorm.io/gorm"
)

func TestEscalate_PreemptsTargetAndInsertsEmergency(t *testing.T) {
	db := newTestDB(t)
	theater := createTestTheater(t, db, "OT-1")

	target := createTestBooking(t, db, theater.ID, at(10, 0), at(11, 0), bookingModel.BookingStatusScheduled)

	svc := newTestService(db, at(10, 0))
	result, err := svc.Escalate(target.ID, "ruptured aortic aneurysm", "dr.khan")
	if err != nil {
		t.Fatalf("Escalate failed: %v", err)
	}

	preempted := mustFindBooking(t, db, target.ID)
	if preempted.Status != bookingModel.BookingStatusPreempted {
		t.Errorf("Expected target to be preempted, got %s", preempted.Status)
	}
	// The preempted booking keeps its original interval for later restore.
	if !preempted.StartTime.Equal(at(10, 0)) || !preempted.EndTime.Equal(at(11, 0)) {
		t.Errorf("Preempted booking's interval changed: %s-%s", preempted.StartTime, preempted.EndTime)
	}

	emergency := mustFindBooking(t, db, result.EmergencyBookingID)
	if !emergency.IsEmergency {
		t.Error("Emergency booking is not flagged is_emergency")
	}
	if emergency.Status != bookingModel.BookingStatusScheduled {
		t.Errorf("Expected emergency booking scheduled, got %s", emergency.Status)
	}
	if emergency.OverriddenBookingID == nil || *emergency.OverriddenBookingID != target.ID {
		t.Error("Emergency booking is not linked to the preempted booking")
	}
	if !emergency.StartTime.Equal(at(10, 0)) || !emergency.EndTime.Equal(at(11, 0)) {
		t.Errorf("Expected emergency window 10:00-11:00, got %s-%s", emergency.StartTime, emergency.EndTime)
	}
	if emergency.EmergencyReason == nil || *emergency.EmergencyReason != "ruptured aortic aneurysm" {
		t.Error("Emergency reason not recorded")
	}

	if result.OverriddenBookingID != target.ID {
		t.Errorf("Expected overridden booking %d in result, got %d", target.ID, result.OverriddenBookingID)
	}
	if len(result.ShiftedBookingIDs) != 0 {
		t.Errorf("Expected no shifted bookings, got %v", result.ShiftedBookingIDs)
	}
}

func TestEscalate_CascadeRelocatesDisplacedInStartOrder(t *testing.T) {
	db := newTestDB(t)
	theater := createTestTheater(t, db, "OT-1")

	// Emergency window will be 10:00-11:00. Both P and Q overlap it and must
	// move; P is earlier so it is placed first.
	target := createTestBooking(t, db, theater.ID, at(10, 0), at(11, 0), bookingModel.BookingStatusScheduled)
	p := createTestBooking(t, db, theater.ID, at(10, 0), at(11, 0), bookingModel.BookingStatusPending)
	q := createTestBooking(t, db, theater.ID, at(10, 30), at(11, 30), bookingModel.BookingStatusScheduled)

	svc := newTestService(db, at(10, 0))
	result, err := svc.Escalate(target.ID, "polytrauma", "dr.khan")
	if err != nil {
		t.Fatalf("Escalate failed: %v", err)
	}

	if len(result.ShiftedBookingIDs) != 2 {
		t.Fatalf("Expected 2 shifted bookings, got %d", len(result.ShiftedBookingIDs))
	}
	if result.ShiftedBookingIDs[0] != p.ID || result.ShiftedBookingIDs[1] != q.ID {
		t.Errorf("Expected shift order [%d %d], got %v", p.ID, q.ID, result.ShiftedBookingIDs)
	}

	// P lands directly after the emergency window; Q's original slot is
	// vacated so it must not have blocked P.
	movedP := mustFindBooking(t, db, p.ID)
	if !movedP.StartTime.Equal(at(11, 0)) || !movedP.EndTime.Equal(at(12, 0)) {
		t.Errorf("Expected P at 11:00-12:00, got %s-%s", movedP.StartTime, movedP.EndTime)
	}

	// Q probes 11:00 and 11:30; both collide with relocated P, which holds
	// 11:00-12:00 by the time Q is placed. The no-overlap rule wins over a
	// tighter packing, so Q lands at 12:00.
	movedQ := mustFindBooking(t, db, q.ID)
	if !movedQ.StartTime.Equal(at(12, 0)) || !movedQ.EndTime.Equal(at(13, 0)) {
		t.Errorf("Expected Q at 12:00-13:00, got %s-%s", movedQ.StartTime, movedQ.EndTime)
	}

	// Statuses survive relocation.
	if movedP.Status != bookingModel.BookingStatusPending {
		t.Errorf("Expected P to stay pending, got %s", movedP.Status)
	}
	if movedQ.Status != bookingModel.BookingStatusScheduled {
		t.Errorf("Expected Q to stay scheduled, got %s", movedQ.Status)
	}

	// The result carries the old and new intervals for downstream notices.
	if len(result.ShiftedBookings) != 2 {
		t.Fatalf("Expected 2 shifted booking records, got %d", len(result.ShiftedBookings))
	}
	if !result.ShiftedBookings[0].OldStart.Equal(at(10, 0)) || !result.ShiftedBookings[0].NewStart.Equal(at(11, 0)) {
		t.Errorf("Shifted record for P wrong: %+v", result.ShiftedBookings[0])
	}
	if !result.ShiftedBookings[1].OldStart.Equal(at(10, 30)) || !result.ShiftedBookings[1].NewStart.Equal(at(12, 0)) {
		t.Errorf("Shifted record for Q wrong: %+v", result.ShiftedBookings[1])
	}

	assertNoOverlaps(t, db, theater.ID)
}

func TestEscalate_PreservesDurations(t *testing.T) {
	db := newTestDB(t)
	theater := createTestTheater(t, db, "OT-1")

	target := createTestBooking(t, db, theater.ID, at(10, 0), at(10, 30), bookingModel.BookingStatusScheduled)
	short := createTestBooking(t, db, theater.ID, at(10, 30), at(10, 45), bookingModel.BookingStatusScheduled)
	long := createTestBooking(t, db, theater.ID, at(10, 45), at(13, 0), bookingModel.BookingStatusScheduled)

	svc := newTestService(db, at(10, 0))
	if _, err := svc.Escalate(target.ID, "cardiac tamponade", "dr.khan"); err != nil {
		t.Fatalf("Escalate failed: %v", err)
	}

	movedShort := mustFindBooking(t, db, short.ID)
	if movedShort.Duration() != 15*time.Minute {
		t.Errorf("Short booking's duration changed: %s", movedShort.Duration())
	}
	movedLong := mustFindBooking(t, db, long.ID)
	if movedLong.Duration() != 135*time.Minute {
		t.Errorf("Long booking's duration changed: %s", movedLong.Duration())
	}
}

func TestEscalate_SkipsBoundaryAndInactiveBookings(t *testing.T) {
	db := newTestDB(t)
	theater := createTestTheater(t, db, "OT-1")

	target := createTestBooking(t, db, theater.ID, at(10, 0), at(11, 0), bookingModel.BookingStatusScheduled)
	// Starts exactly at window end: half-open, not displaced.
	boundary := createTestBooking(t, db, theater.ID, at(11, 0), at(12, 0), bookingModel.BookingStatusScheduled)
	// Overlaps the window but canceled: not displaced.
	canceled := createTestBooking(t, db, theater.ID, at(10, 15), at(10, 45), bookingModel.BookingStatusCanceled)

	svc := newTestService(db, at(10, 0))
	result, err := svc.Escalate(target.ID, "uncontrolled hemorrhage", "dr.khan")
	if err != nil {
		t.Fatalf("Escalate failed: %v", err)
	}

	if len(result.ShiftedBookingIDs) != 0 {
		t.Errorf("Expected no shifted bookings, got %v", result.ShiftedBookingIDs)
	}

	unchanged := mustFindBooking(t, db, boundary.ID)
	if !unchanged.StartTime.Equal(at(11, 0)) {
		t.Errorf("Boundary booking moved to %s", unchanged.StartTime)
	}
	stillCanceled := mustFindBooking(t, db, canceled.ID)
	if !stillCanceled.StartTime.Equal(at(10, 15)) {
		t.Errorf("Canceled booking moved to %s", stillCanceled.StartTime)
	}
}

func TestEscalate_IsDeterministic(t *testing.T) {
	// Same initial schedule in two separate stores must produce identical
	// final schedules.
	type placement struct {
		start, end time.Time
	}

	run := func() map[string]placement {
		db := newTestDB(t)
		theater := createTestTheater(t, db, "OT-1")

		target := createTestBooking(t, db, theater.ID, at(10, 0), at(11, 0), bookingModel.BookingStatusScheduled)
		a := createTestBooking(t, db, theater.ID, at(10, 0), at(10, 45), bookingModel.BookingStatusScheduled)
		b := createTestBooking(t, db, theater.ID, at(10, 30), at(11, 30), bookingModel.BookingStatusPending)
		c := createTestBooking(t, db, theater.ID, at(10, 45), at(12, 0), bookingModel.BookingStatusScheduled)

		svc := newTestService(db, at(10, 0))
		if _, err := svc.Escalate(target.ID, "septic shock", "dr.khan"); err != nil {
			t.Fatalf("Escalate failed: %v", err)
		}

		out := make(map[string]placement)
		for name, id := range map[string]uint{"a": a.ID, "b": b.ID, "c": c.ID} {
			moved := mustFindBooking(t, db, id)
			out[name] = placement{moved.StartTime, moved.EndTime}
		}
		return out
	}

	first := run()
	second := run()

	for name, got := range second {
		want := first[name]
		if !got.start.Equal(want.start) || !got.end.Equal(want.end) {
			t.Errorf("Booking %s placed differently across runs: %v vs %v", name, want, got)
		}
	}
}

func TestEscalate_RejectsIneligibleTargets(t *testing.T) {
	db := newTestDB(t)
	theater := createTestTheater(t, db, "OT-1")

	svc := newTestService(db, at(10, 0))

	// Missing booking.
	if _, err := svc.Escalate(9999, "reason", "dr.khan"); !errors.Is(err, ErrNotEligibleForEscalation) {
		t.Errorf("Expected ErrNotEligibleForEscalation for missing booking, got %v", err)
	}

	// Completed booking.
	done := createTestBooking(t, db, theater.ID, at(8, 0), at(9, 0), bookingModel.BookingStatusCompleted)
	if _, err := svc.Escalate(done.ID, "reason", "dr.khan"); !errors.Is(err, ErrNotEligibleForEscalation) {
		t.Errorf("Expected ErrNotEligibleForEscalation for completed booking, got %v", err)
	}

	// Empty reason.
	ok := createTestBooking(t, db, theater.ID, at(10, 0), at(11, 0), bookingModel.BookingStatusScheduled)
	if _, err := svc.Escalate(ok.ID, "", "dr.khan"); err == nil {
		t.Error("Expected an error for empty reason, got nil")
	}
}

func TestEscalate_RejectsDoubleEscalation(t *testing.T) {
	db := newTestDB(t)
	theater := createTestTheater(t, db, "OT-1")

	target := createTestBooking(t, db, theater.ID, at(10, 0), at(11, 0), bookingModel.BookingStatusScheduled)

	svc := newTestService(db, at(10, 0))
	if _, err := svc.Escalate(target.ID, "first emergency", "dr.khan"); err != nil {
		t.Fatalf("First escalation failed: %v", err)
	}

	// The target is now preempted; escalating it again must fail.
	if _, err := svc.Escalate(target.ID, "second emergency", "dr.khan"); !errors.Is(err, ErrNotEligibleForEscalation) {
		t.Errorf("Expected ErrNotEligibleForEscalation on double escalation, got %v", err)
	}
}

func TestEscalate_PlacementExhaustedRollsBack(t *testing.T) {
	db := newTestDB(t)
	theater := createTestTheater(t, db, "OT-1")

	target := createTestBooking(t, db, theater.ID, at(10, 0), at(11, 0), bookingModel.BookingStatusScheduled)
	displaced := createTestBooking(t, db, theater.ID, at(10, 30), at(11, 30), bookingModel.BookingStatusScheduled)
	// Wall of bookings after the window leaves no room within the tiny
	// probe budget.
	createTestBooking(t, db, theater.ID, at(11, 0), at(13, 0), bookingModel.BookingStatusScheduled)

	svc := NewService(db, Config{
		EmergencyWindow: time.Hour,
		ProbeStep:       30 * time.Minute,
		MaxProbes:       2,
	})
	svc.Now = func() time.Time { return at(10, 0) }

	_, err := svc.Escalate(target.ID, "mass casualty", "dr.khan")
	if !errors.Is(err, ErrPlacementExhausted) {
		t.Fatalf("Expected ErrPlacementExhausted, got %v", err)
	}

	// The whole escalation rolled back: target still scheduled, displaced
	// booking untouched, no emergency row.
	unchanged := mustFindBooking(t, db, target.ID)
	if unchanged.Status != bookingModel.BookingStatusScheduled {
		t.Errorf("Expected target still scheduled after rollback, got %s", unchanged.Status)
	}
	still := mustFindBooking(t, db, displaced.ID)
	if !still.StartTime.Equal(at(10, 30)) {
		t.Errorf("Displaced booking moved despite rollback: %s", still.StartTime)
	}

	var emergencies int64
	db.Model(&bookingModel.Booking{}).Where("is_emergency = ?", true).Count(&emergencies)
	if emergencies != 0 {
		t.Errorf("Expected no emergency bookings after rollback, got %d", emergencies)
	}
}

func TestEscalate_TriesExactlyMaxProbesCandidates(t *testing.T) {
	// The displaced booking is 30 minutes; a wall right after the window
	// blocks the first candidate slot and the second is free. A budget of
	// two probes reaches it, a budget of one does not.
	run := func(maxProbes int) error {
		db := newTestDB(t)
		theater := createTestTheater(t, db, "OT-1")

		target := createTestBooking(t, db, theater.ID, at(10, 0), at(11, 0), bookingModel.BookingStatusScheduled)
		createTestBooking(t, db, theater.ID, at(10, 30), at(11, 0), bookingModel.BookingStatusScheduled)
		createTestBooking(t, db, theater.ID, at(11, 0), at(11, 30), bookingModel.BookingStatusScheduled)

		svc := NewService(db, Config{
			EmergencyWindow: time.Hour,
			ProbeStep:       30 * time.Minute,
			MaxProbes:       maxProbes,
		})
		svc.Now = func() time.Time { return at(10, 0) }

		_, err := svc.Escalate(target.ID, "probe budget", "dr.khan")
		return err
	}

	if err := run(2); err != nil {
		t.Errorf("Expected placement to succeed within two probes, got %v", err)
	}
	if err := run(1); !errors.Is(err, ErrPlacementExhausted) {
		t.Errorf("Expected ErrPlacementExhausted with a single probe, got %v", err)
	}
}

func TestEscalate_WritesAuditTrail(t *testing.T) {
	db := newTestDB(t)
	theater := createTestTheater(t, db, "OT-1")

	target := createTestBooking(t, db, theater.ID, at(10, 0), at(11, 0), bookingModel.BookingStatusScheduled)
	shifted := createTestBooking(t, db, theater.ID, at(10, 30), at(11, 30), bookingModel.BookingStatusScheduled)

	svc := newTestService(db, at(10, 0))
	result, err := svc.Escalate(target.ID, "acute limb ischemia", "dr.khan")
	if err != nil {
		t.Fatalf("Escalate failed: %v", err)
	}

	var event bookingModel.EscalationEvent
	if err := db.Where("event_type = ?", bookingModel.EscalationEventPerformed).First(&event).Error; err != nil {
		t.Fatalf("Expected an escalation audit event: %v", err)
	}
	if event.EmergencyBookingID != result.EmergencyBookingID {
		t.Errorf("Audit event references emergency %d, want %d", event.EmergencyBookingID, result.EmergencyBookingID)
	}
	if event.OverriddenBookingID == nil || *event.OverriddenBookingID != target.ID {
		t.Error("Audit event is missing the overridden booking")
	}
	if len(event.ShiftedBookings) != 1 || event.ShiftedBookings[0].BookingID != shifted.ID {
		t.Errorf("Audit event's shifted list incorrect: %+v", event.ShiftedBookings)
	}
	if !event.ShiftedBookings[0].OldStart.Equal(at(10, 30)) {
		t.Errorf("Audit event recorded wrong old start: %s", event.ShiftedBookings[0].OldStart)
	}

	var statusEvents int64
	db.Model(&bookingModel.BookingStatusEvent{}).Where("booking_id = ?", target.ID).Count(&statusEvents)
	if statusEvents == 0 {
		t.Error("Expected a status transition event for the preempted booking")
	}
}

func TestCancelEscalation_RestoresPreemptedBooking(t *testing.T) {
	db := newTestDB(t)
	theater := createTestTheater(t, db, "OT-1")

	target := createTestBooking(t, db, theater.ID, at(10, 0), at(11, 0), bookingModel.BookingStatusScheduled)
	shifted := createTestBooking(t, db, theater.ID, at(10, 30), at(11, 30), bookingModel.BookingStatusScheduled)

	svc := newTestService(db, at(10, 0))
	result, err := svc.Escalate(target.ID, "false alarm", "dr.khan")
	if err != nil {
		t.Fatalf("Escalate failed: %v", err)
	}

	reversal, err := svc.CancelEscalation(result.EmergencyBookingID, "dr.khan")
	if err != nil {
		t.Fatalf("CancelEscalation failed: %v", err)
	}
	if reversal.RestoredBookingID != target.ID {
		t.Errorf("Expected restored booking %d, got %d", target.ID, reversal.RestoredBookingID)
	}
	if reversal.TheaterID != theater.ID {
		t.Errorf("Expected reversal in theater %d, got %d", theater.ID, reversal.TheaterID)
	}

	restored := mustFindBooking(t, db, target.ID)
	if restored.Status != bookingModel.BookingStatusScheduled {
		t.Errorf("Expected restored booking scheduled, got %s", restored.Status)
	}
	if !restored.StartTime.Equal(at(10, 0)) || !restored.EndTime.Equal(at(11, 0)) {
		t.Errorf("Restored booking's interval wrong: %s-%s", restored.StartTime, restored.EndTime)
	}

	// The emergency row is gone for good.
	var emergencies int64
	db.Unscoped().Model(&bookingModel.Booking{}).Where("id = ?", result.EmergencyBookingID).Count(&emergencies)
	if emergencies != 0 {
		t.Errorf("Expected emergency row deleted, found %d", emergencies)
	}

	// Shifted bookings stay where the escalation put them.
	moved := mustFindBooking(t, db, shifted.ID)
	if !moved.StartTime.Equal(at(11, 0)) {
		t.Errorf("Shifted booking should keep its new slot, got %s", moved.StartTime)
	}

	var event bookingModel.EscalationEvent
	if err := db.Where("event_type = ?", bookingModel.EscalationEventCancelled).First(&event).Error; err != nil {
		t.Fatalf("Expected a cancellation audit event: %v", err)
	}
}

func TestCancelEscalation_FailsWhenRestoredSlotOccupied(t *testing.T) {
	db := newTestDB(t)
	theater := createTestTheater(t, db, "OT-1")

	target := createTestBooking(t, db, theater.ID, at(10, 0), at(11, 0), bookingModel.BookingStatusScheduled)

	svc := newTestService(db, at(10, 0))
	result, err := svc.Escalate(target.ID, "emergency", "dr.khan")
	if err != nil {
		t.Fatalf("Escalate failed: %v", err)
	}

	// Cancel the emergency booking's own claim on the slot first, then book
	// something new into the target's original window.
	if err := db.Model(&bookingModel.Booking{}).Where("id = ?", result.EmergencyBookingID).
		Update("end_time", at(10, 15)).Error; err != nil {
		t.Fatalf("failed to shrink emergency window: %v", err)
	}
	createTestBooking(t, db, theater.ID, at(10, 15), at(10, 45), bookingModel.BookingStatusScheduled)

	_, err = svc.CancelEscalation(result.EmergencyBookingID, "dr.khan")
	if !errors.Is(err, ErrRestoredSlotOccupied) {
		t.Fatalf("Expected ErrRestoredSlotOccupied, got %v", err)
	}

	// Nothing changed: target still preempted, emergency row still present.
	stillPreempted := mustFindBooking(t, db, target.ID)
	if stillPreempted.Status != bookingModel.BookingStatusPreempted {
		t.Errorf("Expected target still preempted, got %s", stillPreempted.Status)
	}

	var remaining int64
	db.Model(&bookingModel.Booking{}).Where("id = ?", result.EmergencyBookingID).Count(&remaining)
	if remaining != 1 {
		t.Errorf("Emergency row should survive a failed reversal, found %d", remaining)
	}
}

func TestCancelEscalation_RejectsNonEmergency(t *testing.T) {
	db := newTestDB(t)
	theater := createTestTheater(t, db, "OT-1")

	regular := createTestBooking(t, db, theater.ID, at(10, 0), at(11, 0), bookingModel.BookingStatusScheduled)

	svc := newTestService(db, at(10, 0))
	if _, err := svc.CancelEscalation(regular.ID, "dr.khan"); !errors.Is(err, ErrEmergencyNotFound) {
		t.Errorf("Expected ErrEmergencyNotFound for a regular booking, got %v", err)
	}
}

func TestEscalationRoundTrip_LeavesScheduleConflictFree(t *testing.T) {
	db := newTestDB(t)
	theater := createTestTheater(t, db, "OT-1")

	target := createTestBooking(t, db, theater.ID, at(10, 0), at(11, 0), bookingModel.BookingStatusScheduled)
	createTestBooking(t, db, theater.ID, at(10, 30), at(11, 30), bookingModel.BookingStatusScheduled)
	createTestBooking(t, db, theater.ID, at(11, 30), at(12, 30), bookingModel.BookingStatusScheduled)

	svc := newTestService(db, at(10, 0))
	result, err := svc.Escalate(target.ID, "emergency craniotomy", "dr.khan")
	if err != nil {
		t.Fatalf("Escalate failed: %v", err)
	}
	if _, err := svc.CancelEscalation(result.EmergencyBookingID, "dr.khan"); err != nil {
		t.Fatalf("CancelEscalation failed: %v", err)
	}

	assertNoOverlaps(t, db, theater.ID)
}

// assertNoOverlaps verifies the no-overlap invariant over all active
// bookings of a theater.
func assertNoOverlaps(t *testing.T, db *gorm.DB, theaterID uint) {
	t.Helper()

	var active []bookingModel.Booking
	err := db.Where("theater_id = ? AND status IN ? AND deleted_at IS NULL", theaterID, activeStatusNames()).
		Order("start_time ASC").
		Find(&active).Error
	if err != nil {
		t.Fatalf("failed to load active bookings: %v", err)
	}

	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			if active[i].Overlaps(active[j].StartTime, active[j].EndTime) {
				t.Errorf("Bookings %d (%s-%s) and %d (%s-%s) overlap",
					active[i].ID, active[i].StartTime, active[i].EndTime,
					active[j].ID, active[j].StartTime, active[j].EndTime)
			}
		}
	}
}
