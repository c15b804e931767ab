package theater

import (
	"strconv"
	"strings"
	"theater-booking/logger"
	bookingModel "theater-booking/models/booking"
	theaterModel "theater-booking/models/theater"
	"theater-booking/types"
	theaterTypes "theater-booking/types/theater"
	"theater-booking/utils"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// TheaterController handles operating theater HTTP requests
type TheaterController struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
}

// NewTheaterController creates a new theater controller
func NewTheaterController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *TheaterController {
	return &TheaterController{
		DB:     db,
		Logger: asyncLogger,
	}
}

func (tc *TheaterController) logAPIRequest(c *fiber.Ctx) {
	logEntry := utils.CreateSanitizedLogEntry(c)
	tc.Logger.Log(logEntry)
}

func (tc *TheaterController) sendResponseWithLog(c *fiber.Ctx, status int, response types.ApiResponse) error {
	result := c.Status(status).JSON(response)
	tc.logAPIRequest(c)
	return result
}

// Store registers a new operating theater
func (tc *TheaterController) Store(c *fiber.Ctx) error {
	var request theaterTypes.TheaterCreateRequest

	if err := c.BodyParser(&request); err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := request.Validate(); err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	theater := theaterModel.Theater{
		Code:   request.Code,
		Name:   request.Name,
		Active: true,
	}
	if request.Location != "" {
		theater.Location = &request.Location
	}
	if request.Specialty != "" {
		theater.Specialty = &request.Specialty
	}

	result := tc.DB.Create(&theater)
	if result.Error != nil {
		if strings.Contains(result.Error.Error(), "Duplicate entry") || strings.Contains(result.Error.Error(), "UNIQUE constraint failed") || strings.Contains(result.Error.Error(), "duplicate key") {
			return tc.sendResponseWithLog(c, fiber.StatusConflict, types.ApiResponse{
				Status:  fiber.StatusConflict,
				Message: "A theater with this code already exists.",
				Data:    nil,
			})
		}
		return tc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to create theater",
			Data:    nil,
		})
	}

	return tc.sendResponseWithLog(c, fiber.StatusCreated, types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Theater created successfully",
		Data:    theater,
	})
}

// Index returns all theaters; pass ?active=true to filter
func (tc *TheaterController) Index(c *fiber.Ctx) error {
	var theaters []theaterModel.Theater

	query := tc.DB.Order("code ASC")
	if c.Query("active") == "true" {
		query = query.Where("active = ?", true)
	}

	if err := query.Find(&theaters).Error; err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to retrieve theaters",
			Data:    nil,
		})
	}

	return tc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Theaters retrieved successfully",
		Data:    theaters,
	})
}

// Show returns a single theater by id
func (tc *TheaterController) Show(c *fiber.Ctx) error {
	theaterID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid theater ID",
			Data:    nil,
		})
	}

	var theater theaterModel.Theater
	if err := tc.DB.First(&theater, theaterID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return tc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Theater not found",
				Data:    nil,
			})
		}
		return tc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	return tc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Theater retrieved successfully",
		Data:    theater,
	})
}

// Update modifies a theater's details or active flag
func (tc *TheaterController) Update(c *fiber.Ctx) error {
	theaterID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid theater ID",
			Data:    nil,
		})
	}

	var request theaterTypes.TheaterUpdateRequest
	if err := c.BodyParser(&request); err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	var theater theaterModel.Theater
	if err := tc.DB.First(&theater, theaterID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return tc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Theater not found",
				Data:    nil,
			})
		}
		return tc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	updates := map[string]interface{}{}
	if request.Name != "" {
		updates["name"] = request.Name
	}
	if request.Location != "" {
		updates["location"] = request.Location
	}
	if request.Specialty != "" {
		updates["specialty"] = request.Specialty
	}
	if request.Active != nil {
		updates["active"] = *request.Active
	}

	if len(updates) == 0 {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Nothing to update",
			Data:    nil,
		})
	}

	if err := tc.DB.Model(&theater).Updates(updates).Error; err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to update theater",
			Data:    nil,
		})
	}

	return tc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Theater updated successfully",
		Data:    theater,
	})
}

// DaySchedule returns a theater's bookings for one calendar day, ordered by
// start time. The day defaults to today and can be set with ?date=2006-01-02.
func (tc *TheaterController) DaySchedule(c *fiber.Ctx) error {
	theaterID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid theater ID",
			Data:    nil,
		})
	}

	day := time.Now()
	if dateStr := c.Query("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
				Status:  fiber.StatusBadRequest,
				Message: "Invalid date, expected YYYY-MM-DD",
				Data:    nil,
			})
		}
		day = parsed
	}

	dayStart, dayEnd := utils.DayBounds(day)

	var bookings []bookingModel.Booking
	err = tc.DB.
		Where("theater_id = ? AND deleted_at IS NULL", theaterID).
		Where("start_time < ? AND ? < end_time", dayEnd, dayStart).
		Order("start_time ASC").
		Find(&bookings).Error
	if err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to retrieve schedule",
			Data:    nil,
		})
	}

	return tc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Schedule retrieved successfully",
		Data:    bookings,
	})
}
