package httpServices

import "time"

type EscalationNotice struct {
	TheaterID          uint      `json:"theater_id"`
	EmergencyBookingID uint      `json:"emergency_booking_id"`
	PreemptedBookingID uint      `json:"preempted_booking_id"`
	ShiftedBookingIDs  []uint    `json:"shifted_booking_ids"`
	Reason             string    `json:"reason"`
	WindowStart        time.Time `json:"window_start"`
	WindowEnd          time.Time `json:"window_end"`
}

type ScheduleChangeNotice struct {
	BookingID   uint      `json:"booking_id"`
	TheaterID   uint      `json:"theater_id"`
	PatientName string    `json:"patient_name"`
	SurgeonName string    `json:"surgeon_name"`
	OldStart    time.Time `json:"old_start"`
	NewStart    time.Time `json:"new_start"`
	NewEnd      time.Time `json:"new_end"`
}

type noticeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
