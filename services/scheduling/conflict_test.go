package scheduling

import (
	"errors"
	"testing"

	bookingModel "theater-booking/models/booking"
)

func TestFindConflicts_DetectsOverlap(t *testing.T) {
	db := newTestDB(t)
	theater := createTestTheater(t, db, "OT-1")

	existing := createTestBooking(t, db, theater.ID, at(9, 0), at(10, 0), bookingModel.BookingStatusScheduled)

	conflicts, err := FindConflicts(db, theater.ID, at(9, 30), at(10, 30), nil)
	if err != nil {
		t.Fatalf("FindConflicts failed: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("Expected 1 conflict, got %d", len(conflicts))
	}
	if conflicts[0].ID != existing.ID {
		t.Errorf("Expected conflict with booking %d, got %d", existing.ID, conflicts[0].ID)
	}
}

func TestFindConflicts_HalfOpenBoundary(t *testing.T) {
	db := newTestDB(t)
	theater := createTestTheater(t, db, "OT-1")

	// Existing booking 09:00-10:00. A slot starting exactly at 10:00 must
	// not conflict, nor one ending exactly at 09:00.
	createTestBooking(t, db, theater.ID, at(9, 0), at(10, 0), bookingModel.BookingStatusScheduled)

	cases := []struct {
		name       string
		start, end int // minutes from 08:00
		want       int
	}{
		{"back_to_back_after", 120, 180, 0}, // 10:00-11:00
		{"back_to_back_before", 0, 60, 0},   // 08:00-09:00
		{"one_minute_overlap_end", 119, 180, 1},
		{"one_minute_overlap_start", 0, 61, 1},
		{"fully_contained", 75, 105, 1},
		{"fully_containing", 30, 150, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start := at(8, 0).Add(minutes(tc.start))
			end := at(8, 0).Add(minutes(tc.end))

			conflicts, err := FindConflicts(db, theater.ID, start, end, nil)
			if err != nil {
				t.Fatalf("FindConflicts failed: %v", err)
			}
			if len(conflicts) != tc.want {
				t.Errorf("Expected %d conflicts for %s-%s, got %d", tc.want, start, end, len(conflicts))
			}
		})
	}
}

func TestFindConflicts_OnlyActiveStatuses(t *testing.T) {
	db := newTestDB(t)
	theater := createTestTheater(t, db, "OT-1")

	createTestBooking(t, db, theater.ID, at(9, 0), at(10, 0), bookingModel.BookingStatusCompleted)
	createTestBooking(t, db, theater.ID, at(9, 0), at(10, 0), bookingModel.BookingStatusCanceled)
	createTestBooking(t, db, theater.ID, at(9, 0), at(10, 0), bookingModel.BookingStatusPreempted)

	conflicts, err := FindConflicts(db, theater.ID, at(9, 0), at(10, 0), nil)
	if err != nil {
		t.Fatalf("FindConflicts failed: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("Expected no conflicts from inactive bookings, got %d", len(conflicts))
	}

	pending := createTestBooking(t, db, theater.ID, at(9, 0), at(10, 0), bookingModel.BookingStatusPending)

	conflicts, err = FindConflicts(db, theater.ID, at(9, 0), at(10, 0), nil)
	if err != nil {
		t.Fatalf("FindConflicts failed: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].ID != pending.ID {
		t.Errorf("Expected the pending booking to conflict, got %v", conflicts)
	}
}

func TestFindConflicts_IgnoresOtherTheaters(t *testing.T) {
	db := newTestDB(t)
	theaterA := createTestTheater(t, db, "OT-1")
	theaterB := createTestTheater(t, db, "OT-2")

	createTestBooking(t, db, theaterB.ID, at(9, 0), at(10, 0), bookingModel.BookingStatusScheduled)

	conflicts, err := FindConflicts(db, theaterA.ID, at(9, 0), at(10, 0), nil)
	if err != nil {
		t.Fatalf("FindConflicts failed: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("Bookings in another theater must not conflict, got %d", len(conflicts))
	}
}

func TestFindConflicts_OrderedByStartTime(t *testing.T) {
	db := newTestDB(t)
	theater := createTestTheater(t, db, "OT-1")

	// Insert out of chronological order.
	late := createTestBooking(t, db, theater.ID, at(11, 0), at(12, 0), bookingModel.BookingStatusScheduled)
	early := createTestBooking(t, db, theater.ID, at(9, 0), at(10, 0), bookingModel.BookingStatusScheduled)
	mid := createTestBooking(t, db, theater.ID, at(10, 0), at(11, 0), bookingModel.BookingStatusScheduled)

	conflicts, err := FindConflicts(db, theater.ID, at(8, 0), at(13, 0), nil)
	if err != nil {
		t.Fatalf("FindConflicts failed: %v", err)
	}
	if len(conflicts) != 3 {
		t.Fatalf("Expected 3 conflicts, got %d", len(conflicts))
	}

	wantOrder := []uint{early.ID, mid.ID, late.ID}
	for i, want := range wantOrder {
		if conflicts[i].ID != want {
			t.Errorf("Position %d: expected booking %d, got %d", i, want, conflicts[i].ID)
		}
	}
}

func TestFindConflicts_ExcludesGivenBooking(t *testing.T) {
	db := newTestDB(t)
	theater := createTestTheater(t, db, "OT-1")

	booking := createTestBooking(t, db, theater.ID, at(9, 0), at(10, 0), bookingModel.BookingStatusScheduled)

	// A booking never conflicts with itself when rescheduling.
	conflicts, err := FindConflicts(db, theater.ID, at(9, 30), at(10, 30), &booking.ID)
	if err != nil {
		t.Fatalf("FindConflicts failed: %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("Expected booking to be excluded from its own conflict check, got %d conflicts", len(conflicts))
	}
}

func TestFindConflicts_InvalidInterval(t *testing.T) {
	db := newTestDB(t)
	theater := createTestTheater(t, db, "OT-1")

	_, err := FindConflicts(db, theater.ID, at(10, 0), at(9, 0), nil)
	if !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("Expected ErrInvalidInterval for reversed interval, got %v", err)
	}

	// Zero-length intervals are rejected too.
	_, err = FindConflicts(db, theater.ID, at(10, 0), at(10, 0), nil)
	if !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("Expected ErrInvalidInterval for zero-length interval, got %v", err)
	}
}

func TestCheckAvailability_ReportsAllOverlaps(t *testing.T) {
	db := newTestDB(t)
	theater := createTestTheater(t, db, "OT-1")

	first := createTestBooking(t, db, theater.ID, at(9, 0), at(10, 0), bookingModel.BookingStatusScheduled)
	second := createTestBooking(t, db, theater.ID, at(10, 0), at(11, 0), bookingModel.BookingStatusPending)

	err := CheckAvailability(db, theater.ID, at(9, 30), at(10, 30), nil)
	if err == nil {
		t.Fatal("Expected a conflict error, got nil")
	}

	conflictErr, ok := IsConflict(err)
	if !ok {
		t.Fatalf("Expected ConflictError, got %T: %v", err, err)
	}
	if conflictErr.TheaterID != theater.ID {
		t.Errorf("Expected theater %d in report, got %d", theater.ID, conflictErr.TheaterID)
	}
	if len(conflictErr.Conflicts) != 2 {
		t.Fatalf("Expected 2 conflicts in report, got %d", len(conflictErr.Conflicts))
	}

	// Report carries enough detail to identify each blocking booking.
	if conflictErr.Conflicts[0].BookingID != first.ID {
		t.Errorf("Expected first conflict to be booking %d, got %d", first.ID, conflictErr.Conflicts[0].BookingID)
	}
	if conflictErr.Conflicts[1].BookingID != second.ID {
		t.Errorf("Expected second conflict to be booking %d, got %d", second.ID, conflictErr.Conflicts[1].BookingID)
	}
	if conflictErr.Conflicts[0].PatientName == "" || conflictErr.Conflicts[0].SurgeonName == "" {
		t.Error("Conflict summary is missing patient or surgeon details")
	}
}

func TestCheckAvailability_FreeSlot(t *testing.T) {
	db := newTestDB(t)
	theater := createTestTheater(t, db, "OT-1")

	createTestBooking(t, db, theater.ID, at(9, 0), at(10, 0), bookingModel.BookingStatusScheduled)

	if err := CheckAvailability(db, theater.ID, at(10, 0), at(11, 0), nil); err != nil {
		t.Fatalf("Expected free slot, got %v", err)
	}
}
