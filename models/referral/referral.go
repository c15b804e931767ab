package referral

import (
	"time"

	"gorm.io/gorm"
)

// ReferralParseRequest represents a surgical referral document parsing request
type ReferralParseRequest struct {
	ID               uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	RequestID        string `json:"request_id" gorm:"type:varchar(24);uniqueIndex;not null"` // 24 character unique ID
	OriginalFileName string `json:"original_file_name" gorm:"type:varchar(255);not null"`
	SavedFileName    string `json:"saved_file_name" gorm:"type:varchar(255);not null"`
	FileHash         string `json:"file_hash" gorm:"type:varchar(128);index"` // SHA256 hash
	FilePath         string `json:"file_path" gorm:"type:varchar(500);not null"`
	FileSize         int64  `json:"file_size" gorm:"not null"`
	MimeType         string `json:"mime_type" gorm:"type:varchar(100);not null"`
	Status           string `json:"status" gorm:"type:varchar(50);not null;default:'processing';index"` // processing, success, failed
	ProcessingTimeMs int64  `json:"processing_time_ms" gorm:"default:0"`

	// Parsed data fields
	PatientName   string `json:"patient_name" gorm:"type:varchar(255);default:''"`
	PatientMRN    string `json:"patient_mrn" gorm:"type:varchar(64);index;default:''"`
	PatientDOB    string `json:"patient_dob" gorm:"type:varchar(20);default:''"`
	ProcedureName string `json:"procedure_name" gorm:"type:varchar(255);default:''"`
	SurgeonName   string `json:"surgeon_name" gorm:"type:varchar(255);default:''"`
	Urgency       string `json:"urgency" gorm:"type:varchar(50);default:''"`
	ReferralNotes string `json:"referral_notes" gorm:"type:text;default:''"`

	// Error information
	ErrorMessage string `json:"error_message" gorm:"type:text;default:''"`

	// Metadata
	IPAddress string  `json:"ip_address" gorm:"type:varchar(45);index;default:''"` // Support IPv6
	UserAgent *string `json:"user_agent" gorm:"type:text"`

	// Timestamps
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// TableName returns the table name for ReferralParseRequest
func (ReferralParseRequest) TableName() string {
	return "referral_parse_requests"
}

// BeforeCreate hook to set default values
func (rpr *ReferralParseRequest) BeforeCreate(tx *gorm.DB) error {
	if rpr.Status == "" {
		rpr.Status = "processing"
	}
	return nil
}

// IsProcessing checks if the request is still processing
func (rpr *ReferralParseRequest) IsProcessing() bool {
	return rpr.Status == "processing"
}

// IsSuccess checks if the request was successful
func (rpr *ReferralParseRequest) IsSuccess() bool {
	return rpr.Status == "success"
}

// IsFailed checks if the request failed
func (rpr *ReferralParseRequest) IsFailed() bool {
	return rpr.Status == "failed"
}

// MarkAsSuccess marks the request as successful and saves parsed data
func (rpr *ReferralParseRequest) MarkAsSuccess(db *gorm.DB, parsedData *ReferralParseResponse) error {
	rpr.Status = "success"
	rpr.PatientName = parsedData.PatientName
	rpr.PatientMRN = parsedData.PatientMRN
	rpr.PatientDOB = parsedData.PatientDOB
	rpr.ProcedureName = parsedData.ProcedureName
	rpr.SurgeonName = parsedData.SurgeonName
	rpr.Urgency = parsedData.Urgency
	rpr.ReferralNotes = parsedData.ReferralNotes
	rpr.ProcessingTimeMs = parsedData.ProcessingTimeMs
	return db.Save(rpr).Error
}

// MarkAsFailed marks the request as failed with an error message
func (rpr *ReferralParseRequest) MarkAsFailed(db *gorm.DB, errorMsg string, processingTime int64) error {
	rpr.Status = "failed"
	rpr.ErrorMessage = errorMsg
	rpr.ProcessingTimeMs = processingTime
	return db.Save(rpr).Error
}

// ReferralParseResponse is the structured result extracted from a referral document
type ReferralParseResponse struct {
	RequestID        string `json:"request_id"`
	PatientName      string `json:"patient_name"`
	PatientMRN       string `json:"patient_mrn"`
	PatientDOB       string `json:"patient_dob"`
	ProcedureName    string `json:"procedure_name"`
	SurgeonName      string `json:"surgeon_name"`
	Urgency          string `json:"urgency"`
	ReferralNotes    string `json:"referral_notes"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}
