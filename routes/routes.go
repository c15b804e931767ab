package routes

import (
	"os"
	"theater-booking/constants"
	"theater-booking/controllers/auth"
	"theater-booking/controllers/booking"
	"theater-booking/controllers/theater"
	"theater-booking/logger"
	"theater-booking/middleware"
	"theater-booking/services/scheduling"
	"theater-booking/ws"

	notifyServices "theater-booking/httpServices/notify"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	notifyClient := notifyServices.NewClient(os.Getenv("NOTIFY_BASE_URL"))
	asyncLogger := logger.NewAsyncLogger(db)
	hub := ws.NewHub()
	scheduler := scheduling.NewService(db, scheduling.ConfigFromEnv())

	authController := auth.NewAuthController(db, asyncLogger)
	theaterController := theater.NewTheaterController(db, asyncLogger)
	bookingController := booking.NewBookingController(db, asyncLogger, scheduler, hub, notifyClient)

	// Start the async logger processing goroutine
	go asyncLogger.ProcessLog()

	// Index route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "theater-booking",
			"status":  "ok",
		})
	})

	/*=============================================================================
	| Public Routes
	===============================================================================*/
	api := app.Group("/api")
	api.Post("/login", authController.Login)

	/*=============================================================================
	| Auth Routes
	===============================================================================*/
	authGroup := api.Group("/auth").Use(middleware.RequireAuthentication())
	authGroup.Post("/register", authController.Register)
	authGroup.Get("/profile", authController.Profile)
	authGroup.Post("/logout", authController.LogOut)

	/*=============================================================================
	| Theater Routes
	===============================================================================*/
	theaterGroup := api.Group("/theater")

	theaterGroup.Get("/", middleware.RequireAuthentication(), theaterController.Index)
	theaterGroup.Get("/:id", middleware.RequireAuthentication(), theaterController.Show)
	theaterGroup.Get("/:id/schedule", middleware.RequireAuthentication(), theaterController.DaySchedule)

	theaterGroup.Post("/create", middleware.RequirePermissions(
		constants.PermSuperAdminFull,
	), theaterController.Store)

	theaterGroup.Put("/:id", middleware.RequirePermissions(
		constants.PermSuperAdminFull,
	), theaterController.Update)

	/*=============================================================================
	| Booking Routes
	===============================================================================*/
	bookingGroup := api.Group("/booking")

	bookingGroup.Get("/", middleware.RequireAuthentication(), bookingController.Index)
	bookingGroup.Get("/:uuid", middleware.RequireAuthentication(), bookingController.Show)

	bookingGroup.Post("/create", middleware.RequirePermissions(
		constants.SchedulingWritePermissions...,
	), bookingController.Store)

	bookingGroup.Post("/check-conflict", middleware.RequireAuthentication(), bookingController.CheckConflict)

	bookingGroup.Put("/:uuid", middleware.RequirePermissions(
		constants.SchedulingWritePermissions...,
	), bookingController.Update)

	bookingGroup.Post("/:uuid/cancel", middleware.RequirePermissions(
		constants.SchedulingWritePermissions...,
	), bookingController.Cancel)

	bookingGroup.Post("/:uuid/complete", middleware.RequirePermissions(
		constants.SchedulingWritePermissions...,
	), bookingController.Complete)

	bookingGroup.Post("/parse-referral", middleware.RequirePermissions(
		constants.SchedulingWritePermissions...,
	), bookingController.ParseReferral)

	/*=============================================================================
	| Escalation Routes
	===============================================================================*/
	bookingGroup.Post("/:id/escalate", middleware.RequirePermissions(
		constants.EscalationPermissions...,
	), bookingController.Escalate)

	bookingGroup.Post("/:id/cancel-escalation", middleware.RequirePermissions(
		constants.EscalationPermissions...,
	), bookingController.CancelEscalation)

	/*=============================================================================
	| Live Schedule Socket
	===============================================================================*/
	app.Use("/ws/schedule", ws.UpgradeRequired)
	app.Get("/ws/schedule", ws.Handler(hub))
}
