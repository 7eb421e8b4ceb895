package bookings

import (
	"busline/internal/shared/config"
	"busline/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes configures all booking-related routes
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	bookings := rg.Group("/bookings")
	bookings.Use(middleware.SessionAuth(cfg))
	{
		bookings.POST("", controller.CreateBooking)            // POST /api/v1/bookings
		bookings.GET("", controller.GetSessionBookings)        // GET /api/v1/bookings
		bookings.GET("/:id", controller.GetBooking)            // GET /api/v1/bookings/:id
		bookings.GET("/ref/:ref", controller.GetBookingByRef)  // GET /api/v1/bookings/ref/:ref
		bookings.POST("/:id/cancel", controller.CancelBooking) // POST /api/v1/bookings/:id/cancel
	}
}
