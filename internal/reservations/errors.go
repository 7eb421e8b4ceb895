package reservations

import (
	"errors"
	"fmt"
)

var (
	// ErrHoldExpired is returned by CommitHold when the hold's TTL has
	// passed or the hold id is unknown. The caller must restart the
	// reservation flow from a fresh hold request.
	ErrHoldExpired = errors.New("hold expired or unknown")

	// ErrUnknownSchedule is returned when a schedule was never registered
	// with the ledger.
	ErrUnknownSchedule = errors.New("schedule not registered")

	// ErrInvalidSeatSet is returned when a hold request names no seats,
	// duplicate seats, or seats outside [1, totalSeats].
	ErrInvalidSeatSet = errors.New("invalid seat set")
)

// SeatConflictError reports exactly the requested seats that are held or
// booked by someone else. The whole request fails; no partial holds are
// ever granted.
type SeatConflictError struct {
	ScheduleID string
	Seats      []int
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seats not available on schedule %s: %v", e.ScheduleID, e.Seats)
}

// IsSeatConflict reports whether err is a SeatConflictError and returns it
func IsSeatConflict(err error) (*SeatConflictError, bool) {
	var conflict *SeatConflictError
	if errors.As(err, &conflict) {
		return conflict, true
	}
	return nil, false
}
