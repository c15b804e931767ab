package referral

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"theater-booking/logger"
	referralModel "theater-booking/models/referral"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ReferralService persists referral document parse requests and their files
type ReferralService struct {
	DB        *gorm.DB
	UploadDir string
}

// NewReferralService creates a new referral service
func NewReferralService(db *gorm.DB) *ReferralService {
	return &ReferralService{
		DB:        db,
		UploadDir: "uploaded_referrals",
	}
}

// GenerateRequestID generates a 24 character unique request ID
func (s *ReferralService) GenerateRequestID() string {
	bytes := make([]byte, 12)
	rand.Read(bytes)

	requestID := hex.EncodeToString(bytes)
	timestamp := time.Now().Unix()

	// Last 6 characters of timestamp + 18 characters of random hex
	return fmt.Sprintf("%06x%s", timestamp&0xffffff, requestID[:18])
}

// CreateInitialRequest creates an initial request record in the database
func (s *ReferralService) CreateInitialRequest(c *fiber.Ctx, requestID, originalFileName string, fileSize int64, mimeType string) (*referralModel.ReferralParseRequest, error) {
	ipAddress := c.IP()
	if ipAddress == "" {
		ipAddress = "unknown"
	}

	userAgent := c.Get("User-Agent")

	request := &referralModel.ReferralParseRequest{
		RequestID:        requestID,
		OriginalFileName: originalFileName,
		FileSize:         fileSize,
		MimeType:         mimeType,
		Status:           "processing",
		IPAddress:        ipAddress,
		UserAgent:        &userAgent,
	}

	if err := s.DB.Create(request).Error; err != nil {
		return nil, fmt.Errorf("failed to create initial request: %w", err)
	}

	return request, nil
}

// SaveFileAsync saves the uploaded document asynchronously
func (s *ReferralService) SaveFileAsync(requestID string, fileBytes []byte, originalFileName, mimeType string) {
	go func() {
		if err := s.saveFile(requestID, fileBytes, originalFileName); err != nil {
			logger.Error(fmt.Sprintf("Failed to save file for request %s", requestID), err)
			s.updateRequestWithFileError(requestID, err.Error())
		}
	}()
}

func (s *ReferralService) saveFile(requestID string, fileBytes []byte, originalFileName string) error {
	if err := s.ensureUploadDir(); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	hash := sha256.Sum256(fileBytes)
	fileHash := hex.EncodeToString(hash[:])

	ext := filepath.Ext(originalFileName)
	savedFileName := fmt.Sprintf("%s_%d%s", requestID, time.Now().Unix(), ext)
	filePath := filepath.Join(s.UploadDir, savedFileName)

	if err := os.WriteFile(filePath, fileBytes, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	updates := map[string]interface{}{
		"saved_file_name": savedFileName,
		"file_hash":       fileHash,
		"file_path":       filePath,
	}

	if err := s.DB.Model(&referralModel.ReferralParseRequest{}).Where("request_id = ?", requestID).Updates(updates).Error; err != nil {
		os.Remove(filePath)
		return fmt.Errorf("failed to update request with file info: %w", err)
	}

	logger.Success(fmt.Sprintf("File saved successfully for request %s: %s", requestID, savedFileName))
	return nil
}

// SaveSuccessResultAsync saves the parsing result asynchronously
func (s *ReferralService) SaveSuccessResultAsync(requestID string, result *referralModel.ReferralParseResponse) {
	go func() {
		var request referralModel.ReferralParseRequest
		if err := s.DB.Where("request_id = ?", requestID).First(&request).Error; err != nil {
			logger.Error(fmt.Sprintf("Failed to find request %s", requestID), err)
			return
		}
		if err := request.MarkAsSuccess(s.DB, result); err != nil {
			logger.Error(fmt.Sprintf("Failed to save success result for request %s", requestID), err)
		}
	}()
}

// SaveFailureResultAsync saves the failure result asynchronously
func (s *ReferralService) SaveFailureResultAsync(requestID string, errorMsg string, processingTime int64) {
	go func() {
		var request referralModel.ReferralParseRequest
		if err := s.DB.Where("request_id = ?", requestID).First(&request).Error; err != nil {
			logger.Error(fmt.Sprintf("Failed to find request %s", requestID), err)
			return
		}
		if err := request.MarkAsFailed(s.DB, errorMsg, processingTime); err != nil {
			logger.Error(fmt.Sprintf("Failed to save failure result for request %s", requestID), err)
		}
	}()
}

func (s *ReferralService) updateRequestWithFileError(requestID string, errorMsg string) {
	updates := map[string]interface{}{
		"status":        "failed",
		"error_message": fmt.Sprintf("File saving error: %s", errorMsg),
	}

	if err := s.DB.Model(&referralModel.ReferralParseRequest{}).Where("request_id = ?", requestID).Updates(updates).Error; err != nil {
		logger.Error(fmt.Sprintf("Failed to update request %s with file error", requestID), err)
	}
}

func (s *ReferralService) ensureUploadDir() error {
	if _, err := os.Stat(s.UploadDir); os.IsNotExist(err) {
		if err := os.MkdirAll(s.UploadDir, 0755); err != nil {
			return err
		}
		logger.Info(fmt.Sprintf("Created upload directory: %s", s.UploadDir))
	}
	return nil
}

// GetRequestByID retrieves a parse request by its request id
func (s *ReferralService) GetRequestByID(requestID string) (*referralModel.ReferralParseRequest, error) {
	var request referralModel.ReferralParseRequest
	if err := s.DB.Where("request_id = ?", requestID).First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}
