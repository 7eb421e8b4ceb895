package payments

import (
	"errors"
	"net/http"

	"busline/internal/reservations"
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

// CreateSession handles POST /api/v1/payment-sessions
func (c *Controller) CreateSession(ctx *gin.Context) {
	sessionToken := middleware.SessionToken(ctx)
	if sessionToken == "" {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Session not authenticated", nil, "missing session token")
		return
	}

	var req CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, response.BindingErrors(err))
		return
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	session, err := c.service.CreateSession(ctx.Request.Context(), sessionToken, bookingID)
	if err != nil {
		statusCode := http.StatusBadRequest
		if errors.Is(err, ErrActiveSessionExists) {
			statusCode = http.StatusConflict
		}
		response.RespondJSON(ctx, "error", statusCode, "Failed to create payment session", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Payment session created", ToResponse(session), nil)
}

// GetSession handles GET /api/v1/payment-sessions/:id
func (c *Controller) GetSession(ctx *gin.Context) {
	session, ok := c.ownedSession(ctx)
	if !ok {
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payment session retrieved", ToResponse(session), nil)
}

// MarkSucceeded handles POST /api/v1/payment-sessions/:id/succeed
func (c *Controller) MarkSucceeded(ctx *gin.Context) {
	session, ok := c.ownedSession(ctx)
	if !ok {
		return
	}

	// The payer's payment reference is optional; callers without one
	// may post an empty body.
	var req SucceedSessionRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, response.BindingErrors(err))
			return
		}
	}

	updated, err := c.service.MarkSucceeded(ctx.Request.Context(), session.ID, req.ExternalRef)
	if err != nil {
		c.respondTransitionError(ctx, "Failed to complete payment", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payment completed, booking confirmed", ToResponse(updated), nil)
}

// MarkFailed handles POST /api/v1/payment-sessions/:id/fail
func (c *Controller) MarkFailed(ctx *gin.Context) {
	session, ok := c.ownedSession(ctx)
	if !ok {
		return
	}

	var req FailSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, response.BindingErrors(err))
		return
	}

	updated, err := c.service.MarkFailed(ctx.Request.Context(), session.ID, req.Reason)
	if err != nil {
		c.respondTransitionError(ctx, "Failed to mark payment as failed", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payment marked as failed", ToResponse(updated), nil)
}

// CancelSession handles POST /api/v1/payment-sessions/:id/cancel
func (c *Controller) CancelSession(ctx *gin.Context) {
	session, ok := c.ownedSession(ctx)
	if !ok {
		return
	}

	updated, err := c.service.CancelSession(ctx.Request.Context(), session.ID)
	if err != nil {
		c.respondTransitionError(ctx, "Failed to cancel payment session", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payment session cancelled", ToResponse(updated), nil)
}

// Retry handles POST /api/v1/payment-sessions/:id/retry
func (c *Controller) Retry(ctx *gin.Context) {
	session, ok := c.ownedSession(ctx)
	if !ok {
		return
	}

	replacement, err := c.service.Retry(ctx.Request.Context(), session.ID)
	if err != nil {
		if conflict, ok := reservations.IsSeatConflict(err); ok {
			response.RespondJSON(ctx, "error", http.StatusConflict, "Seats no longer available, please reselect", gin.H{
				"conflicting_seats": conflict.Seats,
			}, err.Error())
			return
		}
		c.respondTransitionError(ctx, "Failed to retry payment", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Replacement payment session created", ToResponse(replacement), nil)
}

// ownedSession loads the session from the path and enforces that it
// belongs to the caller. Writes the error response itself on failure.
func (c *Controller) ownedSession(ctx *gin.Context) (*PaymentSession, bool) {
	sessionID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid payment session ID", nil, err.Error())
		return nil, false
	}

	session, err := c.service.GetSession(ctx.Request.Context(), sessionID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Payment session not found", nil, err.Error())
		return nil, false
	}

	if session.SessionToken != middleware.SessionToken(ctx) {
		response.RespondJSON(ctx, "error", http.StatusForbidden, "Access denied", nil, "payment session does not belong to this session")
		return nil, false
	}

	return session, true
}

func (c *Controller) respondTransitionError(ctx *gin.Context, message string, err error) {
	statusCode := http.StatusBadRequest
	switch {
	case errors.Is(err, ErrInvalidTransition):
		statusCode = http.StatusConflict
	case errors.Is(err, ErrPaymentHonoredBookingLost):
		statusCode = http.StatusConflict
	case errors.Is(err, ErrSessionNotFound):
		statusCode = http.StatusNotFound
	}
	response.RespondJSON(ctx, "error", statusCode, message, nil, err.Error())
}
