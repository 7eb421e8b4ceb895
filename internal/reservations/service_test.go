package reservations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"busline/internal/shared/config"

	"github.com/google/uuid"
)

func testConfig() *config.Config {
	return &config.Config{
		Reservation: config.ReservationConfig{
			HoldTTL:          5 * time.Minute,
			SweepInterval:    30 * time.Second,
			SnapshotInterval: 5 * time.Second,
		},
	}
}

// newTestService returns the service with a controllable clock
func newTestService(t *testing.T) (*service, *time.Time) {
	t.Helper()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := &now

	svc := NewService(testConfig()).(*service)
	svc.now = func() time.Time { return *current }
	return svc, current
}

func TestRequestHoldValidation(t *testing.T) {
	svc, _ := newTestService(t)
	scheduleID := uuid.New()
	svc.RegisterSchedule(scheduleID, 40)

	tests := []struct {
		name    string
		seats   []int
		wantErr error
	}{
		{"empty seat set", []int{}, ErrInvalidSeatSet},
		{"seat below range", []int{0, 3}, ErrInvalidSeatSet},
		{"seat above range", []int{3, 41}, ErrInvalidSeatSet},
		{"duplicate seats", []int{3, 3}, ErrInvalidSeatSet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RequestHold(context.Background(), scheduleID, tt.seats, "session-a")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RequestHold(%v) error = %v, want %v", tt.seats, err, tt.wantErr)
			}
		})
	}

	t.Run("unknown schedule", func(t *testing.T) {
		_, err := svc.RequestHold(context.Background(), uuid.New(), []int{1}, "session-a")
		if !errors.Is(err, ErrUnknownSchedule) {
			t.Errorf("RequestHold on unknown schedule error = %v, want %v", err, ErrUnknownSchedule)
		}
	})
}

func TestRequestHoldConflictIsAllOrNothing(t *testing.T) {
	svc, _ := newTestService(t)
	scheduleID := uuid.New()
	svc.RegisterSchedule(scheduleID, 40)

	if _, err := svc.RequestHold(context.Background(), scheduleID, []int{3, 4}, "session-a"); err != nil {
		t.Fatalf("first hold failed: %v", err)
	}

	_, err := svc.RequestHold(context.Background(), scheduleID, []int{4, 5}, "session-b")
	conflict, ok := IsSeatConflict(err)
	if !ok {
		t.Fatalf("overlapping hold error = %v, want SeatConflictError", err)
	}
	if len(conflict.Seats) != 1 || conflict.Seats[0] != 4 {
		t.Errorf("conflicting seats = %v, want [4]", conflict.Seats)
	}

	// Seat 5 was part of the failed request and must still be free
	if _, err := svc.RequestHold(context.Background(), scheduleID, []int{5}, "session-b"); err != nil {
		t.Errorf("seat 5 should still be free after failed hold, got %v", err)
	}
}

func TestReleaseHoldIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	scheduleID := uuid.New()
	svc.RegisterSchedule(scheduleID, 40)

	hold, err := svc.RequestHold(context.Background(), scheduleID, []int{7, 8}, "session-a")
	if err != nil {
		t.Fatalf("hold failed: %v", err)
	}

	svc.ReleaseHold(context.Background(), hold.ID)
	svc.ReleaseHold(context.Background(), hold.ID)
	svc.ReleaseHold(context.Background(), uuid.New())

	snapshot, err := svc.Snapshot(context.Background(), scheduleID)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if taken := snapshot.UnavailableSeats(); len(taken) != 0 {
		t.Errorf("unavailable seats after double release = %v, want none", taken)
	}
}

func TestReleaseNeverFreesAnotherHoldsSeats(t *testing.T) {
	svc, clock := newTestService(t)
	scheduleID := uuid.New()
	svc.RegisterSchedule(scheduleID, 40)

	oldHold, err := svc.RequestHold(context.Background(), scheduleID, []int{3, 4}, "session-a")
	if err != nil {
		t.Fatalf("first hold failed: %v", err)
	}

	// Expire the first hold, then grant the same seats to someone else
	*clock = clock.Add(6 * time.Minute)
	newHold, err := svc.RequestHold(context.Background(), scheduleID, []int{3, 4}, "session-b")
	if err != nil {
		t.Fatalf("hold after expiry failed: %v", err)
	}

	// A late release of the expired hold must not touch the new claim
	svc.ReleaseHold(context.Background(), oldHold.ID)

	if err := svc.CommitHold(context.Background(), newHold.ID, uuid.New()); err != nil {
		t.Errorf("commit of live hold failed after stale release: %v", err)
	}
}

func TestCommitHoldRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	scheduleID := uuid.New()
	svc.RegisterSchedule(scheduleID, 40)

	hold, err := svc.RequestHold(context.Background(), scheduleID, []int{3, 4}, "session-a")
	if err != nil {
		t.Fatalf("hold failed: %v", err)
	}

	bookingID := uuid.New()
	if err := svc.CommitHold(context.Background(), hold.ID, bookingID); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	snapshot, err := svc.Snapshot(context.Background(), scheduleID)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	for _, n := range []int{3, 4} {
		state, ok := snapshot.Seats[n]
		if !ok || state.Status != SeatBooked {
			t.Errorf("seat %d status = %v, want BOOKED", n, state.Status)
		}
		if state.BookingID != bookingID {
			t.Errorf("seat %d booking = %s, want %s", n, state.BookingID, bookingID)
		}
	}

	// The hold was consumed; a second commit must fail
	if err := svc.CommitHold(context.Background(), hold.ID, bookingID); !errors.Is(err, ErrHoldExpired) {
		t.Errorf("second commit error = %v, want %v", err, ErrHoldExpired)
	}
}

func TestCommitExpiredHoldFailsWithoutMutation(t *testing.T) {
	svc, clock := newTestService(t)
	scheduleID := uuid.New()
	svc.RegisterSchedule(scheduleID, 40)

	hold, err := svc.RequestHold(context.Background(), scheduleID, []int{9}, "session-a")
	if err != nil {
		t.Fatalf("hold failed: %v", err)
	}

	*clock = clock.Add(6 * time.Minute)

	if err := svc.CommitHold(context.Background(), hold.ID, uuid.New()); !errors.Is(err, ErrHoldExpired) {
		t.Fatalf("commit of expired hold error = %v, want %v", err, ErrHoldExpired)
	}

	snapshot, err := svc.Snapshot(context.Background(), scheduleID)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if state, ok := snapshot.Seats[9]; ok && state.Status != SeatFree {
		t.Errorf("seat 9 status after failed commit = %v, want free", state.Status)
	}
}

func TestExpiredHoldIsSweptOnNextRequest(t *testing.T) {
	svc, clock := newTestService(t)
	scheduleID := uuid.New()
	svc.RegisterSchedule(scheduleID, 40)

	if _, err := svc.RequestHold(context.Background(), scheduleID, []int{3, 4}, "session-a"); err != nil {
		t.Fatalf("first hold failed: %v", err)
	}

	// Within the TTL the seats are contested
	if _, err := svc.RequestHold(context.Background(), scheduleID, []int{3, 4}, "session-b"); err == nil {
		t.Fatal("expected conflict while first hold is live")
	}

	// After the TTL the same request succeeds without an explicit sweep
	*clock = clock.Add(6 * time.Minute)
	if _, err := svc.RequestHold(context.Background(), scheduleID, []int{3, 4}, "session-b"); err != nil {
		t.Errorf("hold after expiry failed: %v", err)
	}
}

func TestConcurrentOverlappingHoldsGrantExactlyOne(t *testing.T) {
	svc, _ := newTestService(t)
	scheduleID := uuid.New()
	svc.RegisterSchedule(scheduleID, 40)

	const attempts = 32
	seats := []int{11, 12, 13}

	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RequestHold(context.Background(), scheduleID, seats, "session")
		}(i)
	}
	wg.Wait()

	granted := 0
	for _, err := range errs {
		if err == nil {
			granted++
			continue
		}
		conflict, ok := IsSeatConflict(err)
		if !ok {
			t.Fatalf("unexpected error kind: %v", err)
		}
		for _, n := range conflict.Seats {
			if n != 11 && n != 12 && n != 13 {
				t.Errorf("conflict names seat %d outside the contested set", n)
			}
		}
	}

	if granted != 1 {
		t.Fatalf("granted %d holds for the same seats, want exactly 1", granted)
	}
}

func TestReleaseBookingFreesCommittedSeats(t *testing.T) {
	svc, _ := newTestService(t)
	scheduleID := uuid.New()
	svc.RegisterSchedule(scheduleID, 40)

	hold, err := svc.RequestHold(context.Background(), scheduleID, []int{20, 21}, "session-a")
	if err != nil {
		t.Fatalf("hold failed: %v", err)
	}

	bookingID := uuid.New()
	if err := svc.CommitHold(context.Background(), hold.ID, bookingID); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	svc.ReleaseBooking(context.Background(), scheduleID, bookingID)
	svc.ReleaseBooking(context.Background(), scheduleID, bookingID)

	if _, err := svc.RequestHold(context.Background(), scheduleID, []int{20, 21}, "session-b"); err != nil {
		t.Errorf("seats should be free after booking release, got %v", err)
	}
}

func TestSweeperReleasesExpiredHolds(t *testing.T) {
	svc, clock := newTestService(t)
	scheduleID := uuid.New()
	svc.RegisterSchedule(scheduleID, 40)

	if _, err := svc.RequestHold(context.Background(), scheduleID, []int{5}, "session-a"); err != nil {
		t.Fatalf("hold failed: %v", err)
	}

	*clock = clock.Add(6 * time.Minute)
	svc.sweepAll(context.Background())

	snapshot, err := svc.Snapshot(context.Background(), scheduleID)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if taken := snapshot.UnavailableSeats(); len(taken) != 0 {
		t.Errorf("unavailable seats after sweep = %v, want none", taken)
	}
}

func TestGetHoldReturnsOwnedCopy(t *testing.T) {
	svc, _ := newTestService(t)
	scheduleID := uuid.New()
	svc.RegisterSchedule(scheduleID, 40)

	hold, err := svc.RequestHold(context.Background(), scheduleID, []int{2}, "session-a")
	if err != nil {
		t.Fatalf("hold failed: %v", err)
	}

	got, ok := svc.GetHold(hold.ID)
	if !ok {
		t.Fatal("GetHold did not find a live hold")
	}
	if got.SessionToken != "session-a" {
		t.Errorf("session token = %q, want %q", got.SessionToken, "session-a")
	}

	// Mutating the copy must not leak into the ledger
	got.Seats[0] = 99
	again, _ := svc.GetHold(hold.ID)
	if again.Seats[0] != 2 {
		t.Errorf("ledger hold mutated through returned copy")
	}

	if _, ok := svc.GetHold(uuid.New()); ok {
		t.Error("GetHold found a hold that never existed")
	}
}
