package bookings

import (
	"errors"
	"net/http"
	"strconv"

	"busline/internal/shared/middleware"
	"busline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateBooking handles POST /api/v1/bookings
func (c *Controller) CreateBooking(ctx *gin.Context) {
	sessionToken := middleware.SessionToken(ctx)
	if sessionToken == "" {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Session not authenticated", nil, "missing session token")
		return
	}

	var req CreateBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, response.BindingErrors(err))
		return
	}

	booking, err := c.service.CreatePending(ctx.Request.Context(), sessionToken, req)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to create booking", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Booking created, awaiting payment", ToResponse(booking), nil)
}

// GetBooking handles GET /api/v1/bookings/:id
func (c *Controller) GetBooking(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	booking, err := c.service.GetBooking(ctx.Request.Context(), bookingID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Booking not found", nil, err.Error())
		return
	}

	// A session can only read its own bookings
	if booking.SessionToken != middleware.SessionToken(ctx) {
		response.RespondJSON(ctx, "error", http.StatusForbidden, "Access denied", nil, "booking does not belong to this session")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved successfully", ToResponse(booking), nil)
}

// GetBookingByRef handles GET /api/v1/bookings/ref/:ref, the lookup a
// ticket holder makes with the reference printed on the ticket
func (c *Controller) GetBookingByRef(ctx *gin.Context) {
	bookingRef := ctx.Param("ref")

	booking, err := c.service.GetBookingByRef(ctx.Request.Context(), bookingRef)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Booking not found", nil, err.Error())
		return
	}

	if booking.SessionToken != middleware.SessionToken(ctx) {
		response.RespondJSON(ctx, "error", http.StatusForbidden, "Access denied", nil, "booking does not belong to this session")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved successfully", ToResponse(booking), nil)
}

// GetSessionBookings handles GET /api/v1/bookings
func (c *Controller) GetSessionBookings(ctx *gin.Context) {
	sessionToken := middleware.SessionToken(ctx)
	if sessionToken == "" {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Session not authenticated", nil, "missing session token")
		return
	}

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	if err != nil || limit < 0 {
		limit = 10
	}
	offset, err := strconv.Atoi(ctx.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	bookings, err := c.service.GetSessionBookings(ctx.Request.Context(), sessionToken, limit, offset)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get bookings", nil, err.Error())
		return
	}

	items := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		items = append(items, ToResponse(&bookings[i]))
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Bookings retrieved successfully", gin.H{
		"bookings": items,
		"count":    len(items),
		"limit":    limit,
		"offset":   offset,
	}, nil)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (c *Controller) CancelBooking(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	booking, err := c.service.GetBooking(ctx.Request.Context(), bookingID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Booking not found", nil, err.Error())
		return
	}

	if booking.SessionToken != middleware.SessionToken(ctx) {
		response.RespondJSON(ctx, "error", http.StatusForbidden, "Access denied", nil, "booking does not belong to this session")
		return
	}

	cancelled, err := c.service.Cancel(ctx.Request.Context(), bookingID, "cancelled by user")
	if err != nil {
		statusCode := http.StatusBadRequest
		if errors.Is(err, ErrInvalidTransition) {
			statusCode = http.StatusConflict
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to cancel booking", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking cancelled successfully", ToResponse(cancelled), nil)
}
