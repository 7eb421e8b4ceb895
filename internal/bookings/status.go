package bookings

type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusConfirmed      Status = "CONFIRMED"
	StatusCancelled      Status = "CANCELLED"
)

// IsValid checks if the booking status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPendingPayment, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo reports whether the status machine allows the move.
// Reinstating a cancelled booking back to pending is used by payment
// retries after a fresh hold has been granted.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPendingPayment:
		return target == StatusConfirmed || target == StatusCancelled
	case StatusConfirmed:
		return target == StatusCancelled
	case StatusCancelled:
		return target == StatusPendingPayment
	}
	return false
}
