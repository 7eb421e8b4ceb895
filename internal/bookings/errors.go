package bookings

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a status change is not
	// allowed from the booking's current status
	ErrInvalidTransition = errors.New("invalid booking status transition")

	// ErrBookingNotFound is returned when no booking exists for the id
	ErrBookingNotFound = errors.New("booking not found")
)

func invalidTransition(from, to Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
