package bookings

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"busline/internal/notifications"
	"busline/internal/reservations"
	"busline/internal/schedules"
	"busline/pkg/logger"

	"github.com/google/uuid"
)

// Service interface defines the contract for booking business logic
type Service interface {
	CreatePending(ctx context.Context, sessionToken string, req CreateBookingRequest) (*Booking, error)
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*Booking, error)
	GetBookingByRef(ctx context.Context, bookingRef string) (*Booking, error)
	GetSessionBookings(ctx context.Context, sessionToken string, limit, offset int) ([]Booking, error)

	// Status transitions driven by the payment session machine.
	// Confirm and Cancel are idempotent when the booking is already in
	// the target status.
	Confirm(ctx context.Context, bookingID uuid.UUID) (*Booking, error)
	Cancel(ctx context.Context, bookingID uuid.UUID, reason string) (*Booking, error)

	// Reinstate moves a cancelled booking back to pending payment under
	// a freshly granted hold. Used only by payment retries.
	Reinstate(ctx context.Context, bookingID uuid.UUID, newHoldID uuid.UUID) (*Booking, error)

	// SetEventProducer injects the booking event publisher
	SetEventProducer(producer notifications.EventProducer)
}

// service implements the Service interface
type service struct {
	repo               Repository
	reservationService reservations.Service
	scheduleService    schedules.Service
	producer           notifications.EventProducer
}

// NewService creates a new booking service instance
func NewService(repo Repository, reservationService reservations.Service, scheduleService schedules.Service) Service {
	return &service{
		repo:               repo,
		reservationService: reservationService,
		scheduleService:    scheduleService,
	}
}

func (s *service) SetEventProducer(producer notifications.EventProducer) {
	s.producer = producer
}

// CreatePending turns a live hold into a pending booking. The seats stay
// Held until the payment succeeds and the hold is committed.
func (s *service) CreatePending(ctx context.Context, sessionToken string, req CreateBookingRequest) (*Booking, error) {
	// Step 1: Resolve the hold
	holdID, err := uuid.Parse(req.HoldID)
	if err != nil {
		return nil, fmt.Errorf("invalid hold ID: %w", err)
	}

	hold, ok := s.reservationService.GetHold(holdID)
	if !ok {
		return nil, fmt.Errorf("hold not found or expired")
	}

	if hold.Expired(time.Now()) {
		return nil, fmt.Errorf("hold has expired")
	}

	// Step 2: Verify the hold belongs to the caller's session
	if hold.SessionToken != sessionToken {
		return nil, fmt.Errorf("hold does not belong to this session")
	}

	// Step 3: Validate one passenger per held seat
	passengers, err := buildPassengers(hold.Seats, req.Passengers)
	if err != nil {
		return nil, err
	}

	// Step 4: Price the booking from the schedule
	schedule, err := s.scheduleService.GetScheduleByID(ctx, hold.ScheduleID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	totalAmount := float64(len(hold.Seats)) * schedule.PricePerSeat

	// Step 5: Generate booking reference
	bookingRef, err := s.generateBookingReference()
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking reference: %w", err)
	}

	booking := &Booking{
		ScheduleID:   hold.ScheduleID,
		HoldID:       hold.ID,
		SessionToken: sessionToken,
		BookingRef:   bookingRef,
		TotalSeats:   len(hold.Seats),
		TotalAmount:  totalAmount,
		Status:       StatusPendingPayment.String(),
		Passengers:   passengers,
	}

	// Step 6: Persist booking and passengers in one transaction
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	logger.GetDefault().LogBookingCreated(ctx, booking.ID.String(), booking.ScheduleID.String(), booking.TotalAmount)
	return booking, nil
}

// GetBooking retrieves a booking by ID
func (s *service) GetBooking(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
	}
	return booking, nil
}

// GetBookingByRef retrieves a booking by its printed reference, the
// lookup a ticket holder uses
func (s *service) GetBookingByRef(ctx context.Context, bookingRef string) (*Booking, error) {
	booking, err := s.repo.GetBookingByRef(ctx, bookingRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, bookingRef)
	}
	return booking, nil
}

// GetSessionBookings retrieves bookings created by a session
func (s *service) GetSessionBookings(ctx context.Context, sessionToken string, limit, offset int) ([]Booking, error) {
	return s.repo.GetSessionBookings(ctx, sessionToken, limit, offset)
}

// Confirm marks a booking as confirmed after its payment succeeded
func (s *service) Confirm(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	booking, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// Repeated confirms of a confirmed booking are a no-op
	if booking.IsConfirmed() {
		return booking, nil
	}

	if !Status(booking.Status).CanTransitionTo(StatusConfirmed) {
		return nil, invalidTransition(Status(booking.Status), StatusConfirmed)
	}

	if err := s.repo.UpdateBookingStatus(ctx, bookingID, StatusConfirmed, nil); err != nil {
		return nil, fmt.Errorf("failed to confirm booking: %w", err)
	}
	booking.Status = StatusConfirmed.String()

	s.publish(ctx, notifications.EventBookingConfirmed, booking, "")
	return booking, nil
}

// Cancel marks a booking as cancelled and frees its seats. Pending
// bookings release their hold, confirmed bookings release their booked
// seats.
func (s *service) Cancel(ctx context.Context, bookingID uuid.UUID, reason string) (*Booking, error) {
	booking, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// Repeated cancels of a cancelled booking are a no-op
	if booking.IsCancelled() {
		return booking, nil
	}

	if !Status(booking.Status).CanTransitionTo(StatusCancelled) {
		return nil, invalidTransition(Status(booking.Status), StatusCancelled)
	}

	wasConfirmed := booking.IsConfirmed()

	now := time.Now()
	if err := s.repo.UpdateBookingStatus(ctx, bookingID, StatusCancelled, &now); err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}
	booking.Status = StatusCancelled.String()
	booking.CancelledAt = &now

	if wasConfirmed {
		s.reservationService.ReleaseBooking(ctx, booking.ScheduleID, booking.ID)
	} else {
		s.reservationService.ReleaseHold(ctx, booking.HoldID)
	}

	logger.GetDefault().LogBookingCancelled(ctx, booking.ID.String(), reason)
	s.publish(ctx, notifications.EventBookingCancelled, booking, reason)
	return booking, nil
}

// Reinstate moves a cancelled booking back to pending payment, rebinding
// it to a fresh hold over the same seats
func (s *service) Reinstate(ctx context.Context, bookingID uuid.UUID, newHoldID uuid.UUID) (*Booking, error) {
	booking, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.IsPendingPayment() {
		return booking, nil
	}

	if !Status(booking.Status).CanTransitionTo(StatusPendingPayment) {
		return nil, invalidTransition(Status(booking.Status), StatusPendingPayment)
	}

	if err := s.repo.UpdateBookingStatus(ctx, bookingID, StatusPendingPayment, nil); err != nil {
		return nil, fmt.Errorf("failed to reinstate booking: %w", err)
	}
	if err := s.repo.UpdateBookingHold(ctx, bookingID, newHoldID); err != nil {
		return nil, fmt.Errorf("failed to rebind booking hold: %w", err)
	}

	booking.Status = StatusPendingPayment.String()
	booking.CancelledAt = nil
	booking.HoldID = newHoldID
	return booking, nil
}

// publish sends a booking lifecycle event. Publish failures are logged
// and never fail the booking operation itself.
func (s *service) publish(ctx context.Context, eventType string, booking *Booking, reason string) {
	if s.producer == nil {
		return
	}

	event := notifications.NewBookingEvent(eventType, booking.ID, booking.BookingRef, booking.ScheduleID)
	event.Seats = booking.SeatNumbers()
	event.Amount = booking.TotalAmount
	event.Reason = reason

	if err := s.producer.PublishBookingEvent(ctx, event); err != nil {
		logger.GetDefault().Warn("failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID.String(),
			"error", err.Error(),
		)
	}
}

// buildPassengers validates that the passenger list covers exactly the
// held seats and returns the passenger rows to persist
func buildPassengers(heldSeats []int, inputs []PassengerInput) ([]Passenger, error) {
	if len(inputs) != len(heldSeats) {
		return nil, fmt.Errorf("expected %d passengers for %d held seats, got %d",
			len(heldSeats), len(heldSeats), len(inputs))
	}

	held := make(map[int]bool, len(heldSeats))
	for _, n := range heldSeats {
		held[n] = true
	}

	seen := make(map[int]bool, len(inputs))
	passengers := make([]Passenger, 0, len(inputs))
	for _, in := range inputs {
		if !held[in.SeatNumber] {
			return nil, fmt.Errorf("seat %d is not part of the hold", in.SeatNumber)
		}
		if seen[in.SeatNumber] {
			return nil, fmt.Errorf("duplicate passenger for seat %d", in.SeatNumber)
		}
		seen[in.SeatNumber] = true

		passengers = append(passengers, Passenger{
			SeatNumber: in.SeatNumber,
			Name:       in.Name,
			Age:        in.Age,
			Gender:     in.Gender,
		})
	}
	return passengers, nil
}

// generateBookingReference generates a unique booking reference
func (s *service) generateBookingReference() (string, error) {
	timestamp := time.Now().Format("20060102")

	// Generate 6 random uppercase letters
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	randomPart := make([]byte, 6)

	for i := range randomPart {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		randomPart[i] = letters[num.Int64()]
	}

	return fmt.Sprintf("BUS-%s-%s", timestamp, string(randomPart)), nil
}
