package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"busline/internal/bookings"
	"busline/internal/notifications"
	"busline/internal/reservations"
	"busline/internal/shared/config"
	"busline/pkg/logger"

	"github.com/google/uuid"
)

// Service drives payment sessions for pending bookings. Sessions are
// held in memory: they are short-lived by construction and the booking
// row stays the durable record of the outcome.
type Service interface {
	CreateSession(ctx context.Context, sessionToken string, bookingID uuid.UUID) (*PaymentSession, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (*PaymentSession, error)

	// Terminal transitions, legal only while awaiting payment. The
	// deadline is checked before every one of them, so a late success
	// on an expired session fails instead of resurrecting it.
	// MarkSucceeded records the payer-supplied payment reference
	// alongside the gateway capture reference.
	MarkSucceeded(ctx context.Context, sessionID uuid.UUID, payerRef string) (*PaymentSession, error)
	MarkFailed(ctx context.Context, sessionID uuid.UUID, reason string) (*PaymentSession, error)
	CancelSession(ctx context.Context, sessionID uuid.UUID) (*PaymentSession, error)

	// Retry opens a replacement session for the same booking. The old
	// session stays terminal; the seats are re-held from scratch and a
	// SeatConflictError is returned if they were taken meanwhile.
	Retry(ctx context.Context, sessionID uuid.UUID) (*PaymentSession, error)

	// ExpireDue times out every session whose deadline has passed and
	// returns how many were expired
	ExpireDue(ctx context.Context) int

	// SetEventProducer injects the booking event publisher
	SetEventProducer(producer notifications.EventProducer)
}

// Locking: s.mu guards the maps only and is never held across gateway
// or repository calls. Operations serialize on a per-booking lock, so a
// slow gateway call for one booking never blocks sessions of another.
// Session fields are only touched while the owning booking lock is held.
type service struct {
	mu              sync.Mutex
	sessions        map[uuid.UUID]*PaymentSession
	activeByBooking map[uuid.UUID]uuid.UUID
	bookingLocks    map[uuid.UUID]*sync.Mutex

	reservationService reservations.Service
	bookingService     bookings.Service
	gateway            Gateway
	producer           notifications.EventProducer

	window   time.Duration
	currency string

	now func() time.Time
}

func NewService(cfg *config.Config, reservationService reservations.Service, bookingService bookings.Service, gateway Gateway) Service {
	return &service{
		sessions:           make(map[uuid.UUID]*PaymentSession),
		activeByBooking:    make(map[uuid.UUID]uuid.UUID),
		bookingLocks:       make(map[uuid.UUID]*sync.Mutex),
		reservationService: reservationService,
		bookingService:     bookingService,
		gateway:            gateway,
		window:             cfg.Payment.Window,
		currency:           cfg.Payment.Currency,
		now:                time.Now,
	}
}

func (s *service) SetEventProducer(producer notifications.EventProducer) {
	s.producer = producer
}

// bookingLock returns the operation lock for a booking, creating it on
// first use. Sessions are kept for audit, so the lock map growing with
// bookings does not change the memory profile.
func (s *service) bookingLock(bookingID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.bookingLocks[bookingID]
	if !ok {
		lock = &sync.Mutex{}
		s.bookingLocks[bookingID] = lock
	}
	return lock
}

// lockSession resolves a session id and takes its booking lock. The
// caller must unlock the returned lock.
func (s *service) lockSession(sessionID uuid.UUID) (*PaymentSession, *sync.Mutex, error) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, nil, ErrSessionNotFound
	}

	lock := s.bookingLock(session.BookingID)
	lock.Lock()
	return session, lock, nil
}

func (s *service) activeSession(bookingID uuid.UUID) *PaymentSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID, ok := s.activeByBooking[bookingID]
	if !ok {
		return nil
	}
	return s.sessions[sessionID]
}

// CreateSession opens a payment session for a pending booking
func (s *service) CreateSession(ctx context.Context, sessionToken string, bookingID uuid.UUID) (*PaymentSession, error) {
	lock := s.bookingLock(bookingID)
	lock.Lock()
	defer lock.Unlock()

	// Settle a stale active session before validating anything: timing
	// it out releases its hold and cancels the booking, so the booking
	// must be re-read afterwards, never before.
	if active := s.activeSession(bookingID); active != nil {
		s.expireIfDue(ctx, active)
		if !active.State.IsTerminal() {
			return nil, ErrActiveSessionExists
		}
	}

	booking, err := s.bookingService.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.SessionToken != sessionToken {
		return nil, fmt.Errorf("booking does not belong to this session")
	}

	if !booking.IsPendingPayment() {
		return nil, fmt.Errorf("booking %s is not awaiting payment, restart the reservation", booking.BookingRef)
	}

	hold, ok := s.reservationService.GetHold(booking.HoldID)
	if !ok || hold.Expired(s.now()) {
		return nil, fmt.Errorf("seat hold has expired, restart the reservation")
	}

	return s.openSession(ctx, booking, hold)
}

// openSession builds, authorizes and registers a session. Caller holds
// the booking lock.
func (s *service) openSession(ctx context.Context, booking *bookings.Booking, hold *reservations.Hold) (*PaymentSession, error) {
	now := s.now()
	session := &PaymentSession{
		ID:           uuid.New(),
		BookingID:    booking.ID,
		HoldID:       hold.ID,
		ScheduleID:   booking.ScheduleID,
		SessionToken: booking.SessionToken,
		Amount:       booking.TotalAmount,
		Currency:     s.currency,
		State:        StateCreated,
		PaymentRef:   s.generatePaymentRef(),
		CreatedAt:    now,
		Deadline:     now.Add(s.window),
		UpdatedAt:    now,
	}

	externalRef, paymentURI, err := s.gateway.Authorize(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("payment authorization failed: %w", err)
	}
	session.ExternalRef = externalRef
	session.PaymentURI = paymentURI

	s.transition(ctx, session, StateAwaitingPayment)

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.activeByBooking[booking.ID] = session.ID
	s.mu.Unlock()

	out := *session
	return &out, nil
}

// GetSession returns the session, timing it out first if its deadline
// has passed
func (s *service) GetSession(ctx context.Context, sessionID uuid.UUID) (*PaymentSession, error) {
	session, lock, err := s.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	s.expireIfDue(ctx, session)

	out := *session
	return &out, nil
}

// MarkSucceeded captures the payment and commits the hold into a
// confirmed booking. payerRef is the payment reference reported by the
// payer's app and is recorded next to the gateway capture reference.
func (s *service) MarkSucceeded(ctx context.Context, sessionID uuid.UUID, payerRef string) (*PaymentSession, error) {
	session, lock, err := s.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	s.expireIfDue(ctx, session)

	if session.State != StateAwaitingPayment {
		return nil, invalidTransition(session.State, StateSucceeded)
	}
	session.PayerRef = payerRef

	captureRef, err := s.gateway.Capture(ctx, session)
	if err != nil {
		s.closeSession(ctx, session, StateFailed, fmt.Sprintf("capture failed: %v", err))
		return nil, fmt.Errorf("payment capture failed: %w", err)
	}
	session.ExternalRef = captureRef

	// The hold can expire between the payer completing the payment and
	// this call. The money is already taken, so the payment is refunded
	// and the case escalated instead of silently double-booking seats.
	if err := s.reservationService.CommitHold(ctx, session.HoldID, session.BookingID); err != nil {
		if errors.Is(err, reservations.ErrHoldExpired) {
			return nil, s.reconcileLostBooking(ctx, session)
		}
		return nil, fmt.Errorf("failed to commit hold: %w", err)
	}

	s.transition(ctx, session, StateSucceeded)

	// The seats are booked and the money captured; a confirmation
	// failure leaves the booking row behind the session state and is
	// escalated like a lost-hold payment, not just logged.
	if _, err := s.bookingService.Confirm(ctx, session.BookingID); err != nil {
		logger.GetDefault().ErrorWithContext(ctx, "failed to confirm booking after payment", err, map[string]interface{}{
			"session_id": session.ID.String(),
			"booking_id": session.BookingID.String(),
		})
		s.escalateReconciliation(ctx, session, "booking confirmation failed after capture")
		return nil, err
	}

	out := *session
	return &out, nil
}

// MarkFailed closes the session as failed and gives the seats back
func (s *service) MarkFailed(ctx context.Context, sessionID uuid.UUID, reason string) (*PaymentSession, error) {
	return s.close(ctx, sessionID, StateFailed, reason)
}

// CancelSession closes the session as cancelled by the payer and gives
// the seats back
func (s *service) CancelSession(ctx context.Context, sessionID uuid.UUID) (*PaymentSession, error) {
	return s.close(ctx, sessionID, StateCancelled, "cancelled by payer")
}

func (s *service) close(ctx context.Context, sessionID uuid.UUID, target State, reason string) (*PaymentSession, error) {
	session, lock, err := s.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	s.expireIfDue(ctx, session)

	if session.State != StateAwaitingPayment {
		return nil, invalidTransition(session.State, target)
	}

	s.closeSession(ctx, session, target, reason)

	out := *session
	return &out, nil
}

// Retry opens a replacement session for a terminally failed one
func (s *service) Retry(ctx context.Context, sessionID uuid.UUID) (*PaymentSession, error) {
	session, lock, err := s.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	s.expireIfDue(ctx, session)

	if !session.State.CanRetry() {
		return nil, invalidTransition(session.State, StateCreated)
	}

	booking, err := s.bookingService.GetBooking(ctx, session.BookingID)
	if err != nil {
		return nil, err
	}

	// The old hold is gone. The seats are re-requested from scratch and
	// may have been taken by someone else meanwhile.
	hold, err := s.reservationService.RequestHold(ctx, booking.ScheduleID, booking.SeatNumbers(), booking.SessionToken)
	if err != nil {
		return nil, err
	}

	booking, err = s.bookingService.Reinstate(ctx, booking.ID, hold.ID)
	if err != nil {
		s.reservationService.ReleaseHold(ctx, hold.ID)
		return nil, err
	}

	return s.openSession(ctx, booking, hold)
}

// ExpireDue times out every session past its deadline
func (s *service) ExpireDue(ctx context.Context) int {
	s.mu.Lock()
	due := make([]*PaymentSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		due = append(due, session)
	}
	s.mu.Unlock()

	expired := 0
	for _, session := range due {
		lock := s.bookingLock(session.BookingID)
		// An in-flight operation runs its own deadline check, so a busy
		// booking can be skipped instead of waited for.
		if !lock.TryLock() {
			continue
		}
		if s.expireIfDue(ctx, session) {
			expired++
		}
		lock.Unlock()
	}
	return expired
}

// expireIfDue times the session out if its deadline has passed. Caller
// holds the booking lock.
func (s *service) expireIfDue(ctx context.Context, session *PaymentSession) bool {
	if session.State.IsTerminal() || !session.DeadlinePassed(s.now()) {
		return false
	}
	s.closeSession(ctx, session, StateTimedOut, "payment window expired")
	return true
}

// closeSession moves the session to a terminal state, releases the hold
// and cancels the booking. Caller holds the booking lock.
func (s *service) closeSession(ctx context.Context, session *PaymentSession, target State, reason string) {
	session.FailureReason = reason
	s.transition(ctx, session, target)

	s.reservationService.ReleaseHold(ctx, session.HoldID)
	if _, err := s.bookingService.Cancel(ctx, session.BookingID, reason); err != nil {
		logger.GetDefault().ErrorWithContext(ctx, "failed to cancel booking for closed payment session", err, map[string]interface{}{
			"session_id": session.ID.String(),
			"booking_id": session.BookingID.String(),
		})
	}
}

// reconcileLostBooking handles a captured payment whose hold expired
// before commit. Caller holds the booking lock.
func (s *service) reconcileLostBooking(ctx context.Context, session *PaymentSession) error {
	session.FailureReason = "hold expired before commit"
	s.transition(ctx, session, StateFailed)

	if err := s.gateway.Refund(ctx, session); err != nil {
		logger.GetDefault().ErrorWithContext(ctx, "refund failed for reconciled payment", err, map[string]interface{}{
			"session_id":  session.ID.String(),
			"payment_ref": session.PaymentRef,
		})
	}

	if _, err := s.bookingService.Cancel(ctx, session.BookingID, "payment honored but hold lost"); err != nil {
		logger.GetDefault().ErrorWithContext(ctx, "failed to cancel booking during reconciliation", err, map[string]interface{}{
			"booking_id": session.BookingID.String(),
		})
	}

	s.escalateReconciliation(ctx, session, session.FailureReason)

	return ErrPaymentHonoredBookingLost
}

// escalateReconciliation flags a captured payment whose booking state
// diverged, via the reconciliation log and the operator event stream
func (s *service) escalateReconciliation(ctx context.Context, session *PaymentSession, reason string) {
	logger.GetDefault().LogPaymentReconciliationRequired(ctx, session.ID.String(), session.BookingID.String(), session.ExternalRef, session.Amount)

	if s.producer == nil {
		return
	}
	event := notifications.NewBookingEvent(notifications.EventPaymentReconciliationRequired, session.BookingID, "", session.ScheduleID)
	event.Amount = session.Amount
	event.Reason = reason
	event.PaymentRef = session.PaymentRef
	if err := s.producer.PublishBookingEvent(ctx, event); err != nil {
		logger.GetDefault().Warn("failed to publish reconciliation event",
			"session_id", session.ID.String(),
			"error", err.Error(),
		)
	}
}

// transition applies a state change and logs it. Caller holds the
// booking lock and has already validated the move.
func (s *service) transition(ctx context.Context, session *PaymentSession, target State) {
	from := session.State
	session.State = target
	session.UpdatedAt = s.now()

	if target.IsTerminal() {
		s.mu.Lock()
		if activeID, ok := s.activeByBooking[session.BookingID]; ok && activeID == session.ID {
			delete(s.activeByBooking, session.BookingID)
		}
		s.mu.Unlock()
	}

	logger.GetDefault().LogPaymentSessionTransition(ctx, session.ID.String(), session.BookingID.String(), from.String(), target.String())
}

// generatePaymentRef generates a transaction reference for the attempt
func (s *service) generatePaymentRef() string {
	timestamp := s.now().Unix()
	shortUUID := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("TXN_%d_%s", timestamp, strings.ToUpper(shortUUID))
}
