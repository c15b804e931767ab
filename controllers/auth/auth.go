package auth

import (
	"fmt"
	"os"
	"strings"
	"theater-booking/logger"
	"theater-booking/middleware"
	userModel "theater-booking/models/user"
	"theater-booking/types"
	"theater-booking/utils"
	"time"

	"theater-booking/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthController struct {
	db             *gorm.DB
	loggerInstance *logger.AsyncLogger
}

func NewAuthController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *AuthController {
	return &AuthController{db: db, loggerInstance: asyncLogger}
}

// Helper function to set secure cookies based on environment
func (h *AuthController) setSecureCookie(c *fiber.Ctx, name, value string, maxAge int) {
	isProduction := os.Getenv("APP_ENV") == "production"

	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		HTTPOnly: true,
		Secure:   isProduction,
		SameSite: "Strict",
		MaxAge:   maxAge,
		Path:     "/",
	})
}

func defaultPermissionsForRole(role string) userModel.StringSlice {
	switch role {
	case "admin":
		return userModel.StringSlice{constants.PermSuperAdminFull}
	case "scheduler":
		return userModel.StringSlice{constants.PermSchedulerFull}
	case "surgeon":
		return userModel.StringSlice{constants.PermSurgeonFull}
	default:
		return userModel.StringSlice{constants.PermViewerRead}
	}
}

// Register creates a staff account. Only admins may call it.
func (h *AuthController) Register(c *fiber.Ctx) error {
	var req types.RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Error parsing request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: fmt.Sprintf("Error parsing request body: %v", err),
			Status:  fiber.StatusBadRequest,
		})
	}

	if err := req.Validate(); err != nil {
		logger.Error(err.Error(), nil)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: err.Error(),
			Status:  fiber.StatusBadRequest,
		})
	}

	if !middleware.CheckPermissionInController(c, constants.PermSuperAdminFull) {
		return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
			Message: "Only administrators may register staff accounts",
			Status:  fiber.StatusForbidden,
		})
	}

	var existing userModel.User
	err := h.db.Where("username = ? OR phone = ?", req.Username, req.Phone).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
			Message: "A user with this username or phone already exists",
			Status:  fiber.StatusConflict,
		})
	} else if err != gorm.ErrRecordNotFound {
		logger.Error("Database error while checking existing user", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Database error",
			Status:  fiber.StatusInternalServerError,
		})
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to create user",
			Status:  fiber.StatusInternalServerError,
		})
	}

	permissions := defaultPermissionsForRole(req.Role)
	if len(req.Permissions) > 0 {
		permissions = userModel.StringSlice(req.Permissions)
	}

	newUser := userModel.User{
		Uuid:         uuid.NewString(),
		Username:     req.Username,
		LegalName:    req.LegalName,
		Phone:        req.Phone,
		PasswordHash: passwordHash,
		Role:         req.Role,
		Permissions:  permissions,
	}
	if req.Email != "" {
		newUser.Email = &req.Email
	}
	if req.Department != "" {
		newUser.Department = &req.Department
	}

	if creatorUUID, err := utils.ExtractUUIDFromToken(c); err == nil {
		if creator, err := utils.GetUserByUUID(h.db, creatorUUID); err == nil {
			newUser.CreatedByID = &creator.ID
		}
	}

	if err := h.db.Create(&newUser).Error; err != nil {
		logger.Error("Failed to create user", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to create user",
			Status:  fiber.StatusInternalServerError,
		})
	}

	logEntry := utils.CreateSanitizedLogEntry(c)
	h.loggerInstance.Log(logEntry)

	logger.Success("User registered successfully. UUID: " + newUser.Uuid)
	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Message: "User registered successfully",
		Status:  fiber.StatusCreated,
		Data:    newUser,
	})
}

func (h *AuthController) Login(c *fiber.Ctx) error {
	var req types.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Error parsing request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: fmt.Sprintf("Error parsing request body: %v", err),
			Status:  fiber.StatusBadRequest,
		})
	}

	if err := req.Validate(); err != nil {
		logger.Error(err.Error(), nil)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: err.Error(),
			Status:  fiber.StatusBadRequest,
		})
	}

	var u userModel.User
	if err := h.db.Where("username = ? AND deleted_at IS NULL", req.Username).First(&u).Error; err != nil {
		logger.Error("Login failed for username "+req.Username, err)
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Message: "Invalid username or password",
			Status:  fiber.StatusUnauthorized,
		})
	}

	if !utils.CheckPassword(u.PasswordHash, req.Password) {
		logger.Warning("Wrong password for username " + req.Username)
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Message: "Invalid username or password",
			Status:  fiber.StatusUnauthorized,
		})
	}

	token, err := utils.IssueToken(&u)
	if err != nil {
		logger.Error("Failed to issue token", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to issue token",
			Status:  fiber.StatusInternalServerError,
		})
	}

	h.setSecureCookie(c, "access_token", token, 12*60*60)

	currentTime := time.Now().Format("2006-01-02 03:04:05 PM")

	logEntry := utils.CreateSanitizedLogEntry(c)
	h.loggerInstance.Log(logEntry)

	logger.Success("User logged in successfully. uuid: " + u.Uuid + " at " + currentTime)
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Login successful",
		Status:  fiber.StatusOK,
		Token:   token,
		Data:    u,
	})
}

// Profile returns the authenticated user's own record.
func (h *AuthController) Profile(c *fiber.Ctx) error {
	userUUID, err := utils.ExtractUUIDFromToken(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Message: "Session expired. Login again.",
			Status:  fiber.StatusUnauthorized,
		})
	}

	u, err := utils.GetUserByUUID(h.db, userUUID)
	if err != nil {
		status := fiber.StatusInternalServerError
		msg := "Database error"
		if err.Error() == "user not found" {
			status = fiber.StatusUnauthorized
			msg = "User not found"
		}
		return c.Status(status).JSON(types.ApiResponse{
			Message: msg,
			Status:  status,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Profile fetched successfully",
		Status:  fiber.StatusOK,
		Data:    u,
	})
}

func (h *AuthController) LogOut(c *fiber.Ctx) error {
	tokenStr := c.Get("Authorization")
	tokenStr = strings.TrimPrefix(tokenStr, "Bearer ")

	h.setSecureCookie(c, "access_token", "", -1)

	logger.Success("Logout successful")
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "Logout successful",
		Status:  fiber.StatusOK,
	})
}
