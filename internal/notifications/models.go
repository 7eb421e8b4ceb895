package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Booking event types published to the booking-events topic
const (
	EventBookingConfirmed              = "BOOKING_CONFIRMED"
	EventBookingCancelled              = "BOOKING_CANCELLED"
	EventPaymentReconciliationRequired = "PAYMENT_RECONCILIATION_REQUIRED"
)

// BookingEvent is the message published for every booking lifecycle
// change. Reconciliation events reuse the same envelope with the
// payment reference filled in.
type BookingEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	BookingID  uuid.UUID `json:"booking_id"`
	BookingRef string    `json:"booking_ref"`
	ScheduleID uuid.UUID `json:"schedule_id"`
	Seats      []int     `json:"seats,omitempty"`
	Amount     float64   `json:"amount"`
	Reason     string    `json:"reason,omitempty"`
	PaymentRef string    `json:"payment_ref,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewBookingEvent creates an event envelope with a fresh id and timestamp
func NewBookingEvent(eventType string, bookingID uuid.UUID, bookingRef string, scheduleID uuid.UUID) *BookingEvent {
	return &BookingEvent{
		ID:         uuid.New(),
		Type:       eventType,
		BookingID:  bookingID,
		BookingRef: bookingRef,
		ScheduleID: scheduleID,
		OccurredAt: time.Now(),
	}
}

// ToJSON serializes the event for the Kafka message value
func (e *BookingEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// GetPartitionKey routes all events of one booking to the same partition
// so consumers see them in order
func (e *BookingEvent) GetPartitionKey() string {
	return e.BookingID.String()
}
