package reservations

import (
	"context"
	"errors"
	"io"
	"net/http"

	"busline/internal/schedules"
	"busline/internal/shared/middleware"
	"busline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service         Service
	notifier        *Notifier
	scheduleService schedules.Service
}

func NewController(service Service, notifier *Notifier, scheduleService schedules.Service) *Controller {
	return &Controller{
		service:         service,
		notifier:        notifier,
		scheduleService: scheduleService,
	}
}

// RequestHold handles POST /api/v1/holds
func (c *Controller) RequestHold(ctx *gin.Context) {
	sessionToken := middleware.SessionToken(ctx)
	if sessionToken == "" {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Session not authenticated", nil, "missing session token")
		return
	}

	var req HoldRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, response.BindingErrors(err))
		return
	}

	scheduleID, err := uuid.Parse(req.ScheduleID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid schedule ID", nil, err.Error())
		return
	}

	if err := c.ensureSchedule(ctx.Request.Context(), scheduleID); err != nil {
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Schedule not found", nil, err.Error())
		return
	}

	hold, err := c.service.RequestHold(ctx.Request.Context(), scheduleID, req.Seats, sessionToken)
	if err != nil {
		var conflict *SeatConflictError
		if errors.As(err, &conflict) {
			response.RespondJSON(ctx, "error", http.StatusConflict, "Some seats are no longer available", gin.H{
				"conflicting_seats": conflict.Seats,
			}, err.Error())
			return
		}
		if errors.Is(err, ErrInvalidSeatSet) {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid seat selection", nil, err.Error())
			return
		}
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to hold seats", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Seats held successfully", ToHoldResponse(hold), nil)
}

// ReleaseHold handles DELETE /api/v1/holds/:id. Releasing an unknown or
// already released hold succeeds, matching the service's idempotency.
func (c *Controller) ReleaseHold(ctx *gin.Context) {
	holdID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid hold ID", nil, err.Error())
		return
	}

	if hold, ok := c.service.GetHold(holdID); ok {
		if hold.SessionToken != middleware.SessionToken(ctx) {
			response.RespondJSON(ctx, "error", http.StatusForbidden, "Access denied", nil, "hold does not belong to this session")
			return
		}
	}

	c.service.ReleaseHold(ctx.Request.Context(), holdID)
	response.RespondJSON(ctx, "success", http.StatusOK, "Hold released", nil, nil)
}

// GetSeats handles GET /api/v1/schedules/:id/seats
func (c *Controller) GetSeats(ctx *gin.Context) {
	scheduleID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid schedule ID", nil, err.Error())
		return
	}

	if err := c.ensureSchedule(ctx.Request.Context(), scheduleID); err != nil {
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Schedule not found", nil, err.Error())
		return
	}

	snapshot, err := c.service.Snapshot(ctx.Request.Context(), scheduleID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get seat availability", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seat availability retrieved", ToSnapshotResponse(snapshot), nil)
}

// StreamSeats handles GET /api/v1/schedules/:id/seats/stream. It serves
// the availability feed as server-sent events; every event carries the
// full snapshot.
func (c *Controller) StreamSeats(ctx *gin.Context) {
	scheduleID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid schedule ID", nil, err.Error())
		return
	}

	if err := c.ensureSchedule(ctx.Request.Context(), scheduleID); err != nil {
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Schedule not found", nil, err.Error())
		return
	}

	// The subscription lives exactly as long as the client connection;
	// cancel on every exit path so no channel is left behind.
	streamCtx, cancel := context.WithCancel(ctx.Request.Context())
	defer cancel()

	snapshots, err := c.notifier.Subscribe(streamCtx, scheduleID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to subscribe to seat availability", nil, err.Error())
		return
	}

	ctx.Writer.Header().Set("Content-Type", "text/event-stream")
	ctx.Writer.Header().Set("Cache-Control", "no-cache")
	ctx.Writer.Header().Set("Connection", "keep-alive")
	ctx.Writer.Header().Set("X-Accel-Buffering", "no")

	ctx.Stream(func(w io.Writer) bool {
		snapshot, ok := <-snapshots
		if !ok {
			return false
		}
		ctx.SSEvent("seats", ToSnapshotResponse(snapshot))
		return true
	})
}

// ensureSchedule lazily registers the schedule's seat map from the
// schedule directory on first touch
func (c *Controller) ensureSchedule(ctx context.Context, scheduleID uuid.UUID) error {
	if _, err := c.service.Snapshot(ctx, scheduleID); !errors.Is(err, ErrUnknownSchedule) {
		return nil
	}

	schedule, err := c.scheduleService.GetScheduleByID(ctx, scheduleID.String())
	if err != nil {
		return err
	}

	c.service.RegisterSchedule(schedule.ID, schedule.TotalSeats)
	return nil
}
