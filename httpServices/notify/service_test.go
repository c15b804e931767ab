package httpServices

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSendScheduleChange_PostsNotice(t *testing.T) {
	var gotPath string
	var gotNotice ScheduleChangeNotice

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotNotice); err != nil {
			t.Errorf("Failed to decode notice body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	oldStart := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)
	newStart := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)
	err := client.SendScheduleChange(ScheduleChangeNotice{
		BookingID:   42,
		TheaterID:   7,
		PatientName: "A. Rahman",
		SurgeonName: "Dr. Khan",
		OldStart:    oldStart,
		NewStart:    newStart,
		NewEnd:      newStart.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("SendScheduleChange failed: %v", err)
	}

	if gotPath != "/notify/schedule-change/" {
		t.Errorf("Expected notice at /notify/schedule-change/, got %s", gotPath)
	}
	if gotNotice.BookingID != 42 || gotNotice.TheaterID != 7 {
		t.Errorf("Notice ids wrong: %+v", gotNotice)
	}
	if !gotNotice.OldStart.Equal(oldStart) || !gotNotice.NewStart.Equal(newStart) {
		t.Errorf("Notice intervals wrong: %+v", gotNotice)
	}
}

func TestSendEscalationNotice_RejectedByGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": "unknown theater"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.SendEscalationNotice(EscalationNotice{EmergencyBookingID: 1, TheaterID: 99})
	if err == nil {
		t.Error("Expected an error for a rejected notice, got nil")
	}
}

func TestSend_FailsWithoutBaseURL(t *testing.T) {
	client := NewClient("")
	if err := client.SendScheduleChange(ScheduleChangeNotice{BookingID: 1}); err == nil {
		t.Error("Expected an error when the gateway URL is not configured")
	}
}
