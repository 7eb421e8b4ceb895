package payments

import (
	"time"

	"github.com/google/uuid"
)

// State is the payment session state machine position
type State string

const (
	StateCreated         State = "CREATED"
	StateAwaitingPayment State = "AWAITING_PAYMENT"
	StateSucceeded       State = "SUCCEEDED"
	StateFailed          State = "FAILED"
	StateTimedOut        State = "TIMED_OUT"
	StateCancelled       State = "CANCELLED"
)

// String returns the string representation of State
func (s State) String() string {
	return string(s)
}

// IsTerminal reports whether the session can never move again
func (s State) IsTerminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateTimedOut, StateCancelled:
		return true
	}
	return false
}

// CanRetry reports whether a replacement session may be created. A
// succeeded session is final for its booking.
func (s State) CanRetry() bool {
	switch s {
	case StateFailed, StateTimedOut, StateCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine allows the move
func (s State) CanTransitionTo(target State) bool {
	switch s {
	case StateCreated:
		return target == StateAwaitingPayment || target == StateCancelled || target == StateTimedOut
	case StateAwaitingPayment:
		switch target {
		case StateSucceeded, StateFailed, StateTimedOut, StateCancelled:
			return true
		}
	}
	return false
}

// PaymentSession drives one payment attempt for a booking. Terminal
// sessions are kept around so retries can be audited; only one
// non-terminal session exists per booking at a time.
type PaymentSession struct {
	ID            uuid.UUID `json:"id"`
	BookingID     uuid.UUID `json:"booking_id"`
	HoldID        uuid.UUID `json:"-"`
	ScheduleID    uuid.UUID `json:"schedule_id"`
	SessionToken  string    `json:"-"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	State         State     `json:"state"`
	PaymentRef    string    `json:"payment_ref"`
	ExternalRef   string    `json:"external_ref,omitempty"`
	PayerRef      string    `json:"payer_ref,omitempty"`
	PaymentURI    string    `json:"payment_uri,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	Deadline      time.Time `json:"deadline"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DeadlinePassed reports whether the payment window has closed
func (ps *PaymentSession) DeadlinePassed(now time.Time) bool {
	return !now.Before(ps.Deadline)
}
