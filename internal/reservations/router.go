package reservations

import (
	"busline/internal/shared/config"
	"busline/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupReservationRoutes configures hold and availability routes
func SetupReservationRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	holds := rg.Group("/holds")
	holds.Use(middleware.SessionAuth(cfg))
	{
		holds.POST("", controller.RequestHold)       // POST /api/v1/holds
		holds.DELETE("/:id", controller.ReleaseHold) // DELETE /api/v1/holds/:id
	}

	// Availability is public: browsing seats needs no session
	schedules := rg.Group("/schedules")
	{
		schedules.GET("/:id/seats", controller.GetSeats)           // GET /api/v1/schedules/:id/seats
		schedules.GET("/:id/seats/stream", controller.StreamSeats) // GET /api/v1/schedules/:id/seats/stream
	}
}
