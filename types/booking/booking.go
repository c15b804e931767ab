package booking

import (
	"fmt"
	"time"
)

type BookingCreateRequest struct {
	TheaterID     uint      `json:"theater_id" validate:"required"`
	PatientName   string    `json:"patient_name" validate:"required,min=1,max=255"`
	PatientMRN    string    `json:"patient_mrn" validate:"required,min=1,max=64"`
	PatientDOB    string    `json:"patient_dob" validate:"omitempty,datetime=2006-01-02"`
	PatientNID    string    `json:"patient_nid" validate:"omitempty,max=64"`
	ProcedureName string    `json:"procedure_name" validate:"required,min=1,max=255"`
	SurgeonName   string    `json:"surgeon_name" validate:"required,min=1,max=255"`
	StartTime     time.Time `json:"start_time" validate:"required"`
	EndTime       time.Time `json:"end_time" validate:"required"`
	Notes         string    `json:"notes" validate:"omitempty"`
}

// use create validation
func (b BookingCreateRequest) Validate() error {
	if b.TheaterID == 0 {
		return fmt.Errorf("theaterID is required")
	}
	if b.PatientName == "" {
		return fmt.Errorf("patientName is required")
	}
	if b.PatientMRN == "" {
		return fmt.Errorf("patientMRN is required")
	}
	if b.ProcedureName == "" {
		return fmt.Errorf("procedureName is required")
	}
	if b.SurgeonName == "" {
		return fmt.Errorf("surgeonName is required")
	}
	if b.StartTime.IsZero() || b.EndTime.IsZero() {
		return fmt.Errorf("startTime and endTime are required")
	}
	if !b.StartTime.Before(b.EndTime) {
		return fmt.Errorf("startTime must be before endTime")
	}
	return nil
}

// BookingUpdateRequest represents the request payload for rescheduling or
// amending a booking. Zero-value fields are left unchanged.
type BookingUpdateRequest struct {
	PatientName   string     `json:"patient_name" validate:"omitempty,max=255"`
	ProcedureName string     `json:"procedure_name" validate:"omitempty,max=255"`
	SurgeonName   string     `json:"surgeon_name" validate:"omitempty,max=255"`
	StartTime     *time.Time `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	Notes         *string    `json:"notes"`
}

func (b BookingUpdateRequest) Validate() error {
	if (b.StartTime == nil) != (b.EndTime == nil) {
		return fmt.Errorf("startTime and endTime must be provided together")
	}
	if b.StartTime != nil && !b.StartTime.Before(*b.EndTime) {
		return fmt.Errorf("startTime must be before endTime")
	}
	return nil
}

// ConflictCheckRequest represents the payload for a standalone conflict check
type ConflictCheckRequest struct {
	TheaterID uint      `json:"theater_id" validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
	ExcludeID *uint     `json:"exclude_id,omitempty"`
}

func (r ConflictCheckRequest) Validate() error {
	if r.TheaterID == 0 {
		return fmt.Errorf("theaterID is required")
	}
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return fmt.Errorf("startTime and endTime are required")
	}
	return nil
}

// EscalateRequest represents the payload for escalating a booking's slot to an emergency
type EscalateRequest struct {
	Reason string `json:"reason" validate:"required,min=1"`
}

func (r EscalateRequest) Validate() error {
	if r.Reason == "" {
		return fmt.Errorf("reason is required")
	}
	return nil
}

// ConflictSummary names one overlapping booking in a conflict report
type ConflictSummary struct {
	BookingID     uint      `json:"booking_id"`
	Uuid          string    `json:"uuid"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	PatientName   string    `json:"patient_name"`
	ProcedureName string    `json:"procedure_name"`
	SurgeonName   string    `json:"surgeon_name"`
}

// EscalationResponse is returned by the escalate endpoint
type EscalationResponse struct {
	EmergencyBookingID  uint   `json:"emergency_booking_id"`
	OverriddenBookingID uint   `json:"overridden_booking_id"`
	ShiftedBookingIDs   []uint `json:"shifted_booking_ids"`
}

// CancelEscalationResponse is returned by the cancel-escalation endpoint
type CancelEscalationResponse struct {
	RestoredBookingID uint `json:"restored_booking_id"`
}
