package payments

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when no payment session exists
	ErrSessionNotFound = errors.New("payment session not found")

	// ErrInvalidTransition is returned for state changes the machine
	// does not allow, including any operation on a terminal session
	ErrInvalidTransition = errors.New("invalid payment session transition")

	// ErrActiveSessionExists is returned when a booking already has a
	// non-terminal payment session
	ErrActiveSessionExists = errors.New("booking already has an active payment session")

	// ErrPaymentHonoredBookingLost is returned when the payment was
	// captured but the hold expired before commit. The payment has been
	// queued for refund and escalated for reconciliation.
	ErrPaymentHonoredBookingLost = errors.New("payment honored but booking lost, refund initiated")
)

func invalidTransition(from, to State) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
