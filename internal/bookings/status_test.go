package bookings

import "testing"

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPendingPayment, StatusConfirmed, true},
		{StatusPendingPayment, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusCancelled, StatusPendingPayment, true},
		{StatusConfirmed, StatusPendingPayment, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusConfirmed, StatusConfirmed, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestStatusIsValid(t *testing.T) {
	for _, status := range []Status{StatusPendingPayment, StatusConfirmed, StatusCancelled} {
		if !status.IsValid() {
			t.Errorf("%s should be valid", status)
		}
	}
	if Status("REFUNDED").IsValid() {
		t.Error("unknown status should not be valid")
	}
}
