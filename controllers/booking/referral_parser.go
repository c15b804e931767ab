package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"theater-booking/logger"
	referralModel "theater-booking/models/referral"
	referralService "theater-booking/services/referral"
	"theater-booking/types"

	"github.com/gofiber/fiber/v2"
	"google.golang.org/genai"
)

// ParseReferral accepts a scanned surgical referral document and extracts
// the booking form fields with the Gemini Vision API. The parsed fields
// pre-fill a booking create request; nothing is booked here.
func (bc *BookingController) ParseReferral(c *fiber.Ctx) error {
	startTime := time.Now()

	service := referralService.NewReferralService(bc.DB)
	requestID := service.GenerateRequestID()

	file, err := c.FormFile("document")
	if err != nil {
		logger.Error(fmt.Sprintf("No document provided for request %s", requestID), err)

		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "No document file provided",
			Status:  fiber.StatusBadRequest,
			Data:    map[string]interface{}{"request_id": requestID},
		})
	}

	mimeType := file.Header.Get("Content-Type")
	if !isValidDocumentType(mimeType) {
		logger.Error(fmt.Sprintf("Invalid file type %s for request %s", mimeType, requestID),
			fmt.Errorf("invalid mime type: %s", mimeType))

		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid file type. Only JPEG, JPG, PNG, WebP and PDF files are allowed",
			Status:  fiber.StatusBadRequest,
			Data:    map[string]interface{}{"request_id": requestID},
		})
	}

	maxSize := int64(10 * 1024 * 1024) // 10MB
	if file.Size > maxSize {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "File size too large. Maximum size is 10MB",
			Status:  fiber.StatusBadRequest,
			Data:    map[string]interface{}{"request_id": requestID},
		})
	}

	if _, err = service.CreateInitialRequest(c, requestID, file.Filename, file.Size, mimeType); err != nil {
		logger.Error(fmt.Sprintf("Failed to create initial request %s", requestID), err)

		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to initialize request",
			Status:  fiber.StatusInternalServerError,
			Data:    map[string]interface{}{"request_id": requestID},
		})
	}

	src, err := file.Open()
	if err != nil {
		processingTime := time.Since(startTime).Milliseconds()
		service.SaveFailureResultAsync(requestID, "Failed to open uploaded file", processingTime)

		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to process uploaded file",
			Status:  fiber.StatusInternalServerError,
			Data:    map[string]interface{}{"request_id": requestID},
		})
	}
	defer src.Close()

	fileBytes, err := io.ReadAll(src)
	if err != nil {
		processingTime := time.Since(startTime).Milliseconds()
		service.SaveFailureResultAsync(requestID, "Failed to read file content", processingTime)

		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to read file content",
			Status:  fiber.StatusInternalServerError,
			Data:    map[string]interface{}{"request_id": requestID},
		})
	}

	service.SaveFileAsync(requestID, fileBytes, file.Filename, mimeType)

	result, err := bc.parseReferralWithGemini(fileBytes, mimeType)
	if err != nil {
		processingTime := time.Since(startTime).Milliseconds()
		service.SaveFailureResultAsync(requestID, fmt.Sprintf("Gemini parsing failed: %s", err.Error()), processingTime)

		logger.Error(fmt.Sprintf("Failed to parse referral document for request %s", requestID), err)

		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to parse referral document",
			Status:  fiber.StatusInternalServerError,
			Data: map[string]interface{}{
				"error":      err.Error(),
				"request_id": requestID,
			},
		})
	}

	processingTime := time.Since(startTime).Milliseconds()
	result.ProcessingTimeMs = processingTime
	result.RequestID = requestID

	service.SaveSuccessResultAsync(requestID, result)

	bc.logAPIRequest(c)

	logger.Success(fmt.Sprintf("Referral document parsed successfully in %dms for MRN %s, Request ID: %s",
		processingTime, result.PatientMRN, requestID))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Referral document parsed successfully",
		Data:    result,
	})
}

// parseReferralWithGemini extracts structured booking fields from a scanned
// referral using the Gemini Vision API.
func (bc *BookingController) parseReferralWithGemini(documentBytes []byte, mimeType string) (*referralModel.ReferralParseResponse, error) {
	ctx := context.Background()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not found in environment variables")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	prompt := `Analyze this surgical referral document image and extract the following information. Return ONLY valid JSON.

			Extract these fields from the document. If a field is missing or unclear, use an empty string.

			Required JSON format:
			{
			"patient_name": string,     // Full patient name
			"patient_mrn": string,      // Medical record number / hospital number
			"patient_dob": string,      // Date of birth in YYYY-MM-DD format
			"procedure_name": string,   // Requested procedure or operation
			"surgeon_name": string,     // Referring or named surgeon
			"urgency": string,          // One of: routine, urgent, emergency (if stated)
			"referral_notes": string    // Clinical notes / indication, combined into one string
			}`

	content := &genai.Content{
		Parts: []*genai.Part{
			&genai.Part{Text: prompt},
			&genai.Part{InlineData: &genai.Blob{
				MIMEType: mimeType,
				Data:     documentBytes,
			}},
		},
	}

	result, err := client.Models.GenerateContent(
		ctx,
		"gemini-2.5-flash-lite",
		[]*genai.Content{content},
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(0.1)),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with OCR: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no content generated by OCR")
	}

	responseText := result.Candidates[0].Content.Parts[0].Text
	if responseText == "" {
		return nil, fmt.Errorf("empty response from OCR")
	}

	jsonText := extractJSONFromMarkdown(responseText)

	var parsedData referralModel.ReferralParseResponse
	if err := json.Unmarshal([]byte(jsonText), &parsedData); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w, response: %s", err, jsonText)
	}

	return &parsedData, nil
}

// extractJSONFromMarkdown extracts JSON content from markdown code blocks
func extractJSONFromMarkdown(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") && strings.HasSuffix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
		return strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "```") && strings.HasSuffix(text, "```") {
		lines := strings.Split(text, "\n")
		if len(lines) > 1 {
			jsonLines := lines[1 : len(lines)-1]
			return strings.Join(jsonLines, "\n")
		}
	}

	return text
}

// isValidDocumentType checks if the provided content type can be parsed
func isValidDocumentType(contentType string) bool {
	validTypes := map[string]bool{
		"image/jpeg":      true,
		"image/jpg":       true,
		"image/png":       true,
		"image/webp":      true,
		"application/pdf": true,
	}
	return validTypes[contentType]
}
