package schedules

import (
	"net/http"
	"strconv"

	"busline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// ListSchedules handles GET /api/v1/schedules
func (c *Controller) ListSchedules(ctx *gin.Context) {
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if err != nil || limit < 0 {
		limit = 20
	}
	offset, err := strconv.Atoi(ctx.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	schedules, err := c.service.ListSchedules(ctx.Request.Context(), limit, offset)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list schedules", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Schedules retrieved successfully", gin.H{
		"schedules": schedules,
		"count":     len(schedules),
		"limit":     limit,
		"offset":    offset,
	}, nil)
}

// GetSchedule handles GET /api/v1/schedules/:id
func (c *Controller) GetSchedule(ctx *gin.Context) {
	id := ctx.Param("id")
	if id == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Schedule ID is required", nil, "missing schedule ID")
		return
	}

	schedule, err := c.service.GetScheduleByID(ctx.Request.Context(), id)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if err.Error() == "schedule not found" {
			statusCode = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to get schedule", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Schedule retrieved successfully", schedule, nil)
}

// SearchSchedules handles GET /api/v1/schedules/search?from=X&to=Y
// The from and to parameters are location names, resolved through the
// cached location directory.
func (c *Controller) SearchSchedules(ctx *gin.Context) {
	from := ctx.Query("from")
	to := ctx.Query("to")
	if from == "" || to == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Both from and to are required", nil, "missing route endpoints")
		return
	}

	fromID, err := c.service.LocationIDByName(ctx.Request.Context(), from)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Unknown departure location", nil, err.Error())
		return
	}

	toID, err := c.service.LocationIDByName(ctx.Request.Context(), to)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Unknown arrival location", nil, err.Error())
		return
	}

	schedules, err := c.service.SearchByRoute(ctx.Request.Context(), fromID.String(), toID.String())
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to search schedules", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Schedules retrieved successfully", gin.H{
		"schedules": schedules,
		"count":     len(schedules),
	}, nil)
}

// ListLocations handles GET /api/v1/locations
func (c *Controller) ListLocations(ctx *gin.Context) {
	locations, err := c.service.ListLocations(ctx.Request.Context())
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list locations", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Locations retrieved successfully", locations, nil)
}
