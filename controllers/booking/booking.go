package booking

import (
	"errors"
	"fmt"
	"strconv"
	"theater-booking/logger"
	bookingModel "theater-booking/models/booking"
	userModel "theater-booking/models/user"
	"theater-booking/services/booking_event"
	"theater-booking/services/scheduling"
	"theater-booking/types"
	bookingTypes "theater-booking/types/booking"
	"theater-booking/utils"
	"theater-booking/ws"
	"time"

	notifyServices "theater-booking/httpServices/notify"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingController handles booking-related HTTP requests
type BookingController struct {
	DB        *gorm.DB
	Logger    *logger.AsyncLogger
	Scheduler *scheduling.Service
	Hub       *ws.Hub
	Notify    *notifyServices.NotifyClient
}

// NewBookingController creates a new booking controller
func NewBookingController(db *gorm.DB, asyncLogger *logger.AsyncLogger, scheduler *scheduling.Service, hub *ws.Hub, notify *notifyServices.NotifyClient) *BookingController {
	return &BookingController{
		DB:        db,
		Logger:    asyncLogger,
		Scheduler: scheduler,
		Hub:       hub,
		Notify:    notify,
	}
}

func (bc *BookingController) logAPIRequest(c *fiber.Ctx) {
	logEntry := utils.CreateSanitizedLogEntry(c)
	bc.Logger.Log(logEntry)
}

// currentUser resolves the authenticated staff user from the request token.
func (bc *BookingController) currentUser(c *fiber.Ctx) (*userModel.User, error) {
	claims, ok := c.Locals("user").(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid user claims")
	}

	userUUID, ok := claims["Uid"].(string)
	if !ok || userUUID == "" {
		return nil, errors.New("user UUID not found in token")
	}

	return utils.GetUserByUUID(bc.DB, userUUID)
}

// Store creates a new booking, rejecting any that would overlap an active
// booking in the same theater.
func (bc *BookingController) Store(c *fiber.Ctx) error {
	var req bookingTypes.BookingCreateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	userInfo, err := bc.currentUser(c)
	if err != nil {
		logger.Error("Error resolving user from token", err)
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
			Data:    nil,
		})
	}

	var booking bookingModel.Booking

	err = bc.DB.Transaction(func(tx *gorm.DB) error {
		// Conflict gate: check and insert under the same transaction so a
		// concurrent request cannot slip into the same slot.
		if err := scheduling.CheckAvailability(tx, req.TheaterID, req.StartTime, req.EndTime, nil); err != nil {
			return err
		}

		booking = bookingModel.Booking{
			Uuid:          uuid.NewString(),
			TheaterID:     req.TheaterID,
			PatientName:   req.PatientName,
			PatientMRN:    req.PatientMRN,
			ProcedureName: req.ProcedureName,
			SurgeonName:   req.SurgeonName,
			StartTime:     req.StartTime,
			EndTime:       req.EndTime,
			Status:        bookingModel.BookingStatusScheduled,
			CreatedByID:   &userInfo.ID,
			UpdatedBy:     userInfo.Username,
		}

		if req.Notes != "" {
			booking.Notes = &req.Notes
		}
		if req.PatientDOB != "" {
			dob, err := time.Parse("2006-01-02", req.PatientDOB)
			if err != nil {
				return fmt.Errorf("invalid patient_dob, expected YYYY-MM-DD")
			}
			booking.PatientDOB = &dob
		}
		if req.PatientNID != "" {
			encrypted, err := utils.EncryptNID(req.PatientNID)
			if err != nil {
				logger.Error("Failed to encrypt patient NID", err)
				return err
			}
			booking.PatientNIDEncrypted = &encrypted
		}

		if err := tx.Create(&booking).Error; err != nil {
			logger.Error("Failed to create booking", err)
			return err
		}

		return booking_event.RecordStatusChange(tx, booking.ID, "", bookingModel.BookingStatusScheduled, nil, userInfo.Username)
	})

	if err != nil {
		if conflictErr, ok := scheduling.IsConflict(err); ok {
			return bc.conflictResponse(c, conflictErr)
		}
		if errors.Is(err, scheduling.ErrInvalidInterval) {
			return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
				Status:  fiber.StatusBadRequest,
				Message: "Start time must be before end time",
				Data:    nil,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to save booking",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Booking created successfully with ID: %d", booking.ID))
	bc.logAPIRequest(c)

	bc.Hub.Broadcast(ws.Event{
		Type:      ws.EventBookingCreated,
		TheaterID: booking.TheaterID,
		Data:      booking,
	})

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Booking created successfully",
		Data:    booking,
	})
}

// conflictResponse renders a 409 with the full overlap report.
func (bc *BookingController) conflictResponse(c *fiber.Ctx, conflictErr *scheduling.ConflictError) error {
	return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
		Status:  fiber.StatusConflict,
		Message: "Requested slot overlaps existing bookings",
		Data: map[string]interface{}{
			"theater_id": conflictErr.TheaterID,
			"conflicts":  conflictErr.Conflicts,
		},
	})
}

// Index returns bookings, filterable by theater, status and day.
func (bc *BookingController) Index(c *fiber.Ctx) error {
	query := bc.DB.Preload("Theater").Where("deleted_at IS NULL")

	if theaterIDStr := c.Query("theater_id"); theaterIDStr != "" {
		theaterID, err := strconv.ParseUint(theaterIDStr, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
				Status:  fiber.StatusBadRequest,
				Message: "Invalid theater_id",
				Data:    nil,
			})
		}
		query = query.Where("theater_id = ?", theaterID)
	}

	if status := c.Query("status"); status != "" {
		if !bookingModel.BookingStatus(status).IsValid() {
			return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
				Status:  fiber.StatusBadRequest,
				Message: "Invalid status filter",
				Data:    nil,
			})
		}
		query = query.Where("status = ?", status)
	}

	if dateStr := c.Query("date"); dateStr != "" {
		day, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
				Status:  fiber.StatusBadRequest,
				Message: "Invalid date, expected YYYY-MM-DD",
				Data:    nil,
			})
		}
		dayStart, dayEnd := utils.DayBounds(day)
		query = query.Where("start_time < ? AND ? < end_time", dayEnd, dayStart)
	}

	var bookings []bookingModel.Booking
	if err := query.Order("start_time ASC").Find(&bookings).Error; err != nil {
		logger.Error("Failed to retrieve bookings", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to retrieve bookings",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Bookings retrieved successfully",
		Data:    bookings,
	})
}

// Show returns a single booking by its uuid, including its status history.
func (bc *BookingController) Show(c *fiber.Ctx) error {
	bookingUUID := c.Params("uuid")
	if bookingUUID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Booking UUID is required",
			Data:    nil,
		})
	}

	var booking bookingModel.Booking
	err := bc.DB.Preload("Theater").Preload("OverriddenBooking").
		Where("uuid = ? AND deleted_at IS NULL", bookingUUID).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Booking not found",
				Data:    nil,
			})
		}
		logger.Error("Database error while fetching booking", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	history, err := booking_event.StatusHistory(bc.DB, booking.ID)
	if err != nil {
		logger.Error("Failed to load status history", err)
		history = nil
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Booking retrieved successfully",
		Data: map[string]interface{}{
			"booking":        booking,
			"status_history": history,
		},
	})
}

// Update amends a booking. Rescheduling re-runs the conflict gate with the
// booking itself excluded from the overlap check.
func (bc *BookingController) Update(c *fiber.Ctx) error {
	bookingUUID := c.Params("uuid")

	var req bookingTypes.BookingUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	userInfo, err := bc.currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
			Data:    nil,
		})
	}

	var booking bookingModel.Booking

	err = bc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("uuid = ? AND deleted_at IS NULL", bookingUUID).First(&booking).Error; err != nil {
			return err
		}

		if !booking.Status.CanBeUpdated() {
			return fmt.Errorf("booking in status %s cannot be updated", booking.Status)
		}

		updates := map[string]interface{}{
			"updated_by": userInfo.Username,
		}
		if req.PatientName != "" {
			updates["patient_name"] = req.PatientName
		}
		if req.ProcedureName != "" {
			updates["procedure_name"] = req.ProcedureName
		}
		if req.SurgeonName != "" {
			updates["surgeon_name"] = req.SurgeonName
		}
		if req.Notes != nil {
			updates["notes"] = *req.Notes
		}

		if req.StartTime != nil {
			if err := scheduling.CheckAvailability(tx, booking.TheaterID, *req.StartTime, *req.EndTime, &booking.ID); err != nil {
				return err
			}
			updates["start_time"] = *req.StartTime
			updates["end_time"] = *req.EndTime
		}

		return tx.Model(&booking).Updates(updates).Error
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Booking not found",
				Data:    nil,
			})
		}
		if conflictErr, ok := scheduling.IsConflict(err); ok {
			return bc.conflictResponse(c, conflictErr)
		}
		if errors.Is(err, scheduling.ErrInvalidInterval) {
			return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
				Status:  fiber.StatusBadRequest,
				Message: "Start time must be before end time",
				Data:    nil,
			})
		}
		logger.Error("Failed to update booking", err)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(types.ApiResponse{
			Status:  fiber.StatusUnprocessableEntity,
			Message: err.Error(),
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Booking %d updated successfully", booking.ID))
	bc.logAPIRequest(c)

	bc.Hub.Broadcast(ws.Event{
		Type:      ws.EventBookingUpdated,
		TheaterID: booking.TheaterID,
		Data:      booking,
	})

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Booking updated successfully",
		Data:    booking,
	})
}

// Cancel marks a booking canceled. Canceled bookings stop blocking the slot.
func (bc *BookingController) Cancel(c *fiber.Ctx) error {
	return bc.changeStatus(c, bookingModel.BookingStatusCanceled, ws.EventBookingCanceled, "Booking canceled successfully")
}

// Complete marks a booking completed after surgery.
func (bc *BookingController) Complete(c *fiber.Ctx) error {
	return bc.changeStatus(c, bookingModel.BookingStatusCompleted, ws.EventBookingUpdated, "Booking completed successfully")
}

func (bc *BookingController) changeStatus(c *fiber.Ctx, to bookingModel.BookingStatus, event, successMsg string) error {
	bookingUUID := c.Params("uuid")

	userInfo, err := bc.currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: "User not found",
			Data:    nil,
		})
	}

	var booking bookingModel.Booking

	err = bc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("uuid = ? AND deleted_at IS NULL", bookingUUID).First(&booking).Error; err != nil {
			return err
		}

		if booking.Status.IsTerminal() {
			return fmt.Errorf("booking is already %s", booking.Status)
		}

		from := booking.Status
		if err := tx.Model(&booking).Updates(map[string]interface{}{
			"status":     to,
			"updated_by": userInfo.Username,
		}).Error; err != nil {
			return err
		}
		booking.Status = to

		return booking_event.RecordStatusChange(tx, booking.ID, from, to, nil, userInfo.Username)
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Booking not found",
				Data:    nil,
			})
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(types.ApiResponse{
			Status:  fiber.StatusUnprocessableEntity,
			Message: err.Error(),
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Booking %d is now %s", booking.ID, to))
	bc.logAPIRequest(c)

	bc.Hub.Broadcast(ws.Event{
		Type:      event,
		TheaterID: booking.TheaterID,
		Data:      booking,
	})

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: successMsg,
		Data:    booking,
	})
}

// CheckConflict reports the active bookings overlapping a proposed slot
// without creating anything.
func (bc *BookingController) CheckConflict(c *fiber.Ctx) error {
	var req bookingTypes.ConflictCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	err := scheduling.CheckAvailability(bc.DB, req.TheaterID, req.StartTime, req.EndTime, req.ExcludeID)
	if err != nil {
		if conflictErr, ok := scheduling.IsConflict(err); ok {
			return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
				Status:  fiber.StatusOK,
				Message: "Slot has conflicts",
				Data: map[string]interface{}{
					"available":  false,
					"theater_id": conflictErr.TheaterID,
					"conflicts":  conflictErr.Conflicts,
				},
			})
		}
		if errors.Is(err, scheduling.ErrInvalidInterval) {
			return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
				Status:  fiber.StatusBadRequest,
				Message: "Start time must be before end time",
				Data:    nil,
			})
		}
		logger.Error("Conflict check failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Conflict check failed",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Slot is available",
		Data: map[string]interface{}{
			"available": true,
			"conflicts": []bookingTypes.ConflictSummary{},
		},
	})
}
