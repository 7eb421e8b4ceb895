package reservations

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"busline/internal/shared/config"
	"busline/pkg/logger"

	"github.com/google/uuid"
)

// Service is the reservation manager: the single writer of seat state.
// Hold, release and commit are atomic across the entire seat set they
// touch, serialized per schedule.
type Service interface {
	// Schedule registration
	RegisterSchedule(scheduleID uuid.UUID, totalSeats int)

	// Hold lifecycle
	RequestHold(ctx context.Context, scheduleID uuid.UUID, seatNumbers []int, sessionToken string) (*Hold, error)
	ReleaseHold(ctx context.Context, holdID uuid.UUID)
	CommitHold(ctx context.Context, holdID uuid.UUID, bookingID uuid.UUID) error
	GetHold(holdID uuid.UUID) (*Hold, bool)

	// Booking cancellation after commit
	ReleaseBooking(ctx context.Context, scheduleID uuid.UUID, bookingID uuid.UUID)

	// Availability
	Snapshot(ctx context.Context, scheduleID uuid.UUID) (*Snapshot, error)

	// SetOnChange registers the mutation callback; wired to the
	// availability notifier before the service takes requests
	SetOnChange(fn func(scheduleID uuid.UUID))

	// Background expiry sweeping
	StartSweeper(ctx context.Context)
}

type service struct {
	ledger  *ledger
	holdTTL time.Duration
	sweep   time.Duration

	// holdID -> scheduleID, so release/commit can find the shard
	indexMu   sync.Mutex
	holdIndex map[uuid.UUID]uuid.UUID

	// onChange is invoked after every successful mutation; wired to the
	// availability notifier
	onChange func(scheduleID uuid.UUID)

	now func() time.Time
}

func NewService(cfg *config.Config) Service {
	return &service{
		ledger:    newLedger(),
		holdTTL:   cfg.Reservation.HoldTTL,
		sweep:     cfg.Reservation.SweepInterval,
		holdIndex: make(map[uuid.UUID]uuid.UUID),
		now:       time.Now,
	}
}

func (s *service) SetOnChange(fn func(scheduleID uuid.UUID)) {
	s.onChange = fn
}

func (s *service) notify(scheduleID uuid.UUID) {
	if s.onChange != nil {
		s.onChange(scheduleID)
	}
}

func (s *service) RegisterSchedule(scheduleID uuid.UUID, totalSeats int) {
	s.ledger.register(scheduleID, totalSeats)
}

func (s *service) RequestHold(ctx context.Context, scheduleID uuid.UUID, seatNumbers []int, sessionToken string) (*Hold, error) {
	shard, ok := s.ledger.shard(scheduleID)
	if !ok {
		return nil, ErrUnknownSchedule
	}

	if err := validateSeatSet(seatNumbers, shard.totalSeats); err != nil {
		return nil, err
	}

	seats := append([]int(nil), seatNumbers...)
	sort.Ints(seats)

	now := s.now()
	hold := &Hold{
		ID:           uuid.New(),
		ScheduleID:   scheduleID,
		SessionToken: sessionToken,
		Seats:        seats,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.holdTTL),
	}

	shard.mu.Lock()
	swept := shard.sweepLocked(now)

	// The conflict check and the hold grant happen under the same lock:
	// no other request can slip a hold in between.
	if conflicts := shard.conflictsLocked(seats); len(conflicts) > 0 {
		shard.mu.Unlock()
		s.dropFromIndex(swept)
		return nil, &SeatConflictError{ScheduleID: scheduleID.String(), Seats: conflicts}
	}

	shard.holdLocked(hold)
	shard.mu.Unlock()

	s.dropFromIndex(swept)
	s.indexMu.Lock()
	s.holdIndex[hold.ID] = scheduleID
	s.indexMu.Unlock()

	logger.GetDefault().LogHoldGranted(ctx, hold.ID.String(), scheduleID.String(), seats, hold.ExpiresAt)
	s.notify(scheduleID)

	out := *hold
	return &out, nil
}

// ReleaseHold is idempotent: releasing an unknown, expired or already
// committed hold is a no-op.
func (s *service) ReleaseHold(ctx context.Context, holdID uuid.UUID) {
	scheduleID, ok := s.lookup(holdID)
	if !ok {
		return
	}
	shard, ok := s.ledger.shard(scheduleID)
	if !ok {
		return
	}

	shard.mu.Lock()
	released := shard.releaseLocked(holdID)
	shard.mu.Unlock()

	s.dropFromIndex([]uuid.UUID{holdID})

	if released {
		logger.GetDefault().LogHoldReleased(ctx, holdID.String(), scheduleID.String(), "released")
		s.notify(scheduleID)
	}
}

func (s *service) CommitHold(ctx context.Context, holdID uuid.UUID, bookingID uuid.UUID) error {
	scheduleID, ok := s.lookup(holdID)
	if !ok {
		return ErrHoldExpired
	}
	shard, ok := s.ledger.shard(scheduleID)
	if !ok {
		return ErrHoldExpired
	}

	now := s.now()

	shard.mu.Lock()
	swept := shard.sweepLocked(now)
	err := shard.commitLocked(holdID, bookingID, now)
	shard.mu.Unlock()

	s.dropFromIndex(swept)

	if err != nil {
		return err
	}

	s.dropFromIndex([]uuid.UUID{holdID})
	s.notify(scheduleID)
	return nil
}

// ReleaseBooking frees the seats committed under a booking when that
// booking is cancelled. Idempotent like ReleaseHold.
func (s *service) ReleaseBooking(ctx context.Context, scheduleID uuid.UUID, bookingID uuid.UUID) {
	shard, ok := s.ledger.shard(scheduleID)
	if !ok {
		return
	}

	shard.mu.Lock()
	released := shard.releaseBookingLocked(bookingID)
	shard.mu.Unlock()

	if released {
		logger.GetDefault().Info("booked seats released",
			"booking_id", bookingID.String(),
			"schedule_id", scheduleID.String(),
		)
		s.notify(scheduleID)
	}
}

func (s *service) GetHold(holdID uuid.UUID) (*Hold, bool) {
	scheduleID, ok := s.lookup(holdID)
	if !ok {
		return nil, false
	}
	shard, ok := s.ledger.shard(scheduleID)
	if !ok {
		return nil, false
	}

	shard.mu.Lock()
	defer shard.mu.Unlock()

	hold, ok := shard.holds[holdID]
	if !ok {
		return nil, false
	}
	out := *hold
	out.Seats = append([]int(nil), hold.Seats...)
	return &out, true
}

func (s *service) Snapshot(ctx context.Context, scheduleID uuid.UUID) (*Snapshot, error) {
	shard, ok := s.ledger.shard(scheduleID)
	if !ok {
		return nil, ErrUnknownSchedule
	}

	now := s.now()

	shard.mu.Lock()
	swept := shard.sweepLocked(now)
	snapshot := shard.snapshotLocked(now)
	shard.mu.Unlock()

	s.dropFromIndex(swept)
	return snapshot, nil
}

// StartSweeper runs the expiry sweep on a fixed interval until ctx is
// cancelled. The sweep takes the same per-schedule lock as every other
// writer.
func (s *service) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.sweep)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweepAll(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *service) sweepAll(ctx context.Context) {
	now := s.now()
	for _, shard := range s.ledger.shardList() {
		shard.mu.Lock()
		swept := shard.sweepLocked(now)
		shard.mu.Unlock()

		if len(swept) > 0 {
			s.dropFromIndex(swept)
			for _, id := range swept {
				logger.GetDefault().LogHoldReleased(ctx, id.String(), shard.scheduleID.String(), "expired")
			}
			s.notify(shard.scheduleID)
		}
	}
}

func (s *service) lookup(holdID uuid.UUID) (uuid.UUID, bool) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	scheduleID, ok := s.holdIndex[holdID]
	return scheduleID, ok
}

func (s *service) dropFromIndex(holdIDs []uuid.UUID) {
	if len(holdIDs) == 0 {
		return
	}
	s.indexMu.Lock()
	for _, id := range holdIDs {
		delete(s.holdIndex, id)
	}
	s.indexMu.Unlock()
}

func validateSeatSet(seatNumbers []int, totalSeats int) error {
	if len(seatNumbers) == 0 {
		return fmt.Errorf("%w: no seats requested", ErrInvalidSeatSet)
	}
	seen := make(map[int]bool, len(seatNumbers))
	for _, n := range seatNumbers {
		if n < 1 || n > totalSeats {
			return fmt.Errorf("%w: seat %d outside [1,%d]", ErrInvalidSeatSet, n, totalSeats)
		}
		if seen[n] {
			return fmt.Errorf("%w: duplicate seat %d", ErrInvalidSeatSet, n)
		}
		seen[n] = true
	}
	return nil
}
