package payments

import (
	"busline/internal/shared/config"
	"busline/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPaymentRoutes configures all payment-session routes
func SetupPaymentRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	sessions := rg.Group("/payment-sessions")
	sessions.Use(middleware.SessionAuth(cfg))
	{
		sessions.POST("", controller.CreateSession)             // POST /api/v1/payment-sessions
		sessions.GET("/:id", controller.GetSession)             // GET /api/v1/payment-sessions/:id
		sessions.POST("/:id/succeed", controller.MarkSucceeded) // POST /api/v1/payment-sessions/:id/succeed
		sessions.POST("/:id/fail", controller.MarkFailed)       // POST /api/v1/payment-sessions/:id/fail
		sessions.POST("/:id/cancel", controller.CancelSession)  // POST /api/v1/payment-sessions/:id/cancel
		sessions.POST("/:id/retry", controller.Retry)           // POST /api/v1/payment-sessions/:id/retry
	}
}
