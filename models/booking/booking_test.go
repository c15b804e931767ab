package booking

import (
	"encoding/json"
	"testing"
	"time"
)

func TestBookingStatus_IsActive(t *testing.T) {
	cases := []struct {
		status BookingStatus
		want   bool
	}{
		{BookingStatusScheduled, true},
		{BookingStatusPending, true},
		{BookingStatusCompleted, false},
		{BookingStatusCanceled, false},
		{BookingStatusPreempted, false},
	}

	for _, tc := range cases {
		if got := tc.status.IsActive(); got != tc.want {
			t.Errorf("%s.IsActive() = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestBookingStatus_IsValid(t *testing.T) {
	for _, status := range GetAllBookingStatuses() {
		if !status.IsValid() {
			t.Errorf("%s should be valid", status)
		}
	}
	if BookingStatus("postponed").IsValid() {
		t.Error("unknown status should not be valid")
	}
}

func TestBooking_Overlaps(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	hhmm := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	b := Booking{StartTime: hhmm(9, 0), EndTime: hhmm(10, 0)}

	cases := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"identical", hhmm(9, 0), hhmm(10, 0), true},
		{"touching_after", hhmm(10, 0), hhmm(11, 0), false},
		{"touching_before", hhmm(8, 0), hhmm(9, 0), false},
		{"partial_overlap", hhmm(9, 30), hhmm(10, 30), true},
		{"contained", hhmm(9, 15), hhmm(9, 45), true},
		{"containing", hhmm(8, 0), hhmm(12, 0), true},
		{"disjoint", hhmm(12, 0), hhmm(13, 0), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := b.Overlaps(tc.start, tc.end); got != tc.want {
				t.Errorf("Overlaps(%s, %s) = %v, want %v", tc.start, tc.end, got, tc.want)
			}
		})
	}
}

func TestBooking_Duration(t *testing.T) {
	b := Booking{
		StartTime: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 10, 11, 15, 0, 0, time.UTC),
	}
	if b.Duration() != 2*time.Hour+15*time.Minute {
		t.Errorf("Duration() = %s, want 2h15m", b.Duration())
	}
}

func TestShiftedBookingList_ScanValue(t *testing.T) {
	list := ShiftedBookingList{
		{
			BookingID: 7,
			OldStart:  time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC),
			OldEnd:    time.Date(2026, 3, 10, 11, 30, 0, 0, time.UTC),
			NewStart:  time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC),
			NewEnd:    time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		},
	}

	value, err := list.Value()
	if err != nil {
		t.Fatalf("Value() failed: %v", err)
	}

	var restored ShiftedBookingList
	if err := restored.Scan(value); err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}

	if len(restored) != 1 || restored[0].BookingID != 7 {
		t.Fatalf("round trip lost data: %+v", restored)
	}
	if !restored[0].NewStart.Equal(list[0].NewStart) {
		t.Errorf("NewStart changed: %s vs %s", restored[0].NewStart, list[0].NewStart)
	}

	// Drivers hand back strings as well as byte slices.
	raw, _ := json.Marshal(list)
	var fromString ShiftedBookingList
	if err := fromString.Scan(string(raw)); err != nil {
		t.Fatalf("Scan(string) failed: %v", err)
	}
	if len(fromString) != 1 {
		t.Fatalf("Scan(string) lost data: %+v", fromString)
	}
}

func TestShiftedBookingList_ScanNil(t *testing.T) {
	var list ShiftedBookingList
	if err := list.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if list != nil {
		t.Errorf("expected nil list, got %+v", list)
	}
}
