package booking

import (
	"errors"
	"fmt"
	"strconv"
	"theater-booking/logger"
	bookingModel "theater-booking/models/booking"
	"theater-booking/services/scheduling"
	"theater-booking/types"
	bookingTypes "theater-booking/types/booking"
	"theater-booking/ws"

	notifyServices "theater-booking/httpServices/notify"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Escalate converts a booking's slot into an emergency window. The target is
// preempted and every displaced booking in the theater is pushed to its next
// free slot, all in one transaction.
func (bc *BookingController) Escalate(c *fiber.Ctx) error {
	bookingID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid booking ID",
			Data:    nil,
		})
	}

	var req bookingTypes.EscalateRequest
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

	result, err := bc.Scheduler.Escalate(uint(bookingID), req.Reason, userInfo.Username)
	if err != nil {
		switch {
		case errors.Is(err, scheduling.ErrNotEligibleForEscalation):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(types.ApiResponse{
				Status:  fiber.StatusUnprocessableEntity,
				Message: "Booking is not eligible for escalation",
				Data:    nil,
			})
		case errors.Is(err, scheduling.ErrPlacementExhausted):
			return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
				Status:  fiber.StatusConflict,
				Message: "Could not relocate displaced bookings within the search horizon",
				Data:    nil,
			})
		}
		logger.Error("Escalation failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Escalation failed",
			Data:    nil,
		})
	}

	bc.logAPIRequest(c)

	// Look up the theater for the broadcast; the result only carries ids.
	var emergency bookingModel.Booking
	if err := bc.DB.First(&emergency, result.EmergencyBookingID).Error; err == nil {
		bc.Hub.Broadcast(ws.Event{
			Type:      ws.EventEscalationPerformed,
			TheaterID: emergency.TheaterID,
			Data: map[string]interface{}{
				"emergency_booking":     emergency,
				"overridden_booking_id": result.OverriddenBookingID,
				"shifted_booking_ids":   result.ShiftedBookingIDs,
			},
		})

		bc.Notify.SendEscalationNoticeAsync(notifyServices.EscalationNotice{
			TheaterID:          emergency.TheaterID,
			EmergencyBookingID: result.EmergencyBookingID,
			PreemptedBookingID: result.OverriddenBookingID,
			ShiftedBookingIDs:  result.ShiftedBookingIDs,
			Reason:             req.Reason,
			WindowStart:        result.EmergencyStart,
			WindowEnd:          result.EmergencyEnd,
		})

		bc.notifyShiftedTeams(emergency.TheaterID, result.ShiftedBookings)
	}

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Escalation performed successfully",
		Data: bookingTypes.EscalationResponse{
			EmergencyBookingID:  result.EmergencyBookingID,
			OverriddenBookingID: result.OverriddenBookingID,
			ShiftedBookingIDs:   result.ShiftedBookingIDs,
		},
	})
}

// notifyShiftedTeams pages the surgical team of every booking the escalation
// moved. Lookups and delivery happen after the commit; a paging failure never
// affects the escalation itself.
func (bc *BookingController) notifyShiftedTeams(theaterID uint, shifted []bookingModel.ShiftedBooking) {
	if len(shifted) == 0 {
		return
	}

	ids := make([]uint, 0, len(shifted))
	for _, s := range shifted {
		ids = append(ids, s.BookingID)
	}

	var moved []bookingModel.Booking
	if err := bc.DB.Where("id IN ?", ids).Find(&moved).Error; err != nil {
		logger.Error("Failed to load shifted bookings for notices", err)
		return
	}
	byID := make(map[uint]bookingModel.Booking, len(moved))
	for _, m := range moved {
		byID[m.ID] = m
	}

	for _, s := range shifted {
		b := byID[s.BookingID]
		bc.Notify.SendScheduleChangeAsync(notifyServices.ScheduleChangeNotice{
			BookingID:   s.BookingID,
			TheaterID:   theaterID,
			PatientName: b.PatientName,
			SurgeonName: b.SurgeonName,
			OldStart:    s.OldStart,
			NewStart:    s.NewStart,
			NewEnd:      s.NewEnd,
		})
	}
}

// CancelEscalation reverses an escalation: the emergency booking is removed
// and the preempted booking restored. Bookings shifted by the escalation
// keep their new times.
func (bc *BookingController) CancelEscalation(c *fiber.Ctx) error {
	emergencyID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid booking ID",
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

	reversal, err := bc.Scheduler.CancelEscalation(uint(emergencyID), userInfo.Username)
	if err != nil {
		switch {
		case errors.Is(err, scheduling.ErrEmergencyNotFound):
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Emergency booking not found",
				Data:    nil,
			})
		case errors.Is(err, scheduling.ErrRestoredSlotOccupied):
			return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
				Status:  fiber.StatusConflict,
				Message: "The preempted booking's slot is no longer free",
				Data:    nil,
			})
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Emergency booking not found",
				Data:    nil,
			})
		}
		logger.Error("Failed to cancel escalation", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to cancel escalation",
			Data:    nil,
		})
	}

	bc.logAPIRequest(c)

	bc.Hub.Broadcast(ws.Event{
		Type:      ws.EventEscalationCancelled,
		TheaterID: reversal.TheaterID,
		Data: map[string]interface{}{
			"emergency_booking_id": emergencyID,
			"restored_booking_id":  reversal.RestoredBookingID,
		},
	})

	logger.Success(fmt.Sprintf("Escalation %d cancelled, booking %d restored", emergencyID, reversal.RestoredBookingID))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Escalation cancelled successfully",
		Data: bookingTypes.CancelEscalationResponse{
			RestoredBookingID: reversal.RestoredBookingID,
		},
	})
}
