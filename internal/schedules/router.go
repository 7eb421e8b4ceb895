package schedules

import (
	"github.com/gin-gonic/gin"
)

// SetupScheduleRoutes configures the public schedule directory routes
func SetupScheduleRoutes(rg *gin.RouterGroup, controller *Controller) {
	schedules := rg.Group("/schedules")
	{
		schedules.GET("", controller.ListSchedules)          // GET /api/v1/schedules
		schedules.GET("/search", controller.SearchSchedules) // GET /api/v1/schedules/search?from=X&to=Y
		schedules.GET("/:id", controller.GetSchedule)        // GET /api/v1/schedules/:id
	}

	locations := rg.Group("/locations")
	{
		locations.GET("", controller.ListLocations) // GET /api/v1/locations
	}
}
