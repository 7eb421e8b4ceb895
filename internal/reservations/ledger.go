package reservations

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// scheduleShard is the authoritative seat state for one schedule. All
// access goes through its mutex; operations on different schedules never
// block each other.
type scheduleShard struct {
	mu         sync.Mutex
	scheduleID uuid.UUID
	totalSeats int
	seats      map[int]SeatState // absent seat number means Free
	holds      map[uuid.UUID]*Hold
}

// ledger is the collection of per-schedule shards. The outer lock only
// guards the shard map; seat mutations take the shard lock.
type ledger struct {
	mu     sync.RWMutex
	shards map[uuid.UUID]*scheduleShard
}

func newLedger() *ledger {
	return &ledger{
		shards: make(map[uuid.UUID]*scheduleShard),
	}
}

// register creates the shard for a schedule if it does not exist yet
func (l *ledger) register(scheduleID uuid.UUID, totalSeats int) *scheduleShard {
	l.mu.Lock()
	defer l.mu.Unlock()

	if shard, ok := l.shards[scheduleID]; ok {
		return shard
	}

	shard := &scheduleShard{
		scheduleID: scheduleID,
		totalSeats: totalSeats,
		seats:      make(map[int]SeatState),
		holds:      make(map[uuid.UUID]*Hold),
	}
	l.shards[scheduleID] = shard
	return shard
}

func (l *ledger) shard(scheduleID uuid.UUID) (*scheduleShard, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	shard, ok := l.shards[scheduleID]
	return shard, ok
}

func (l *ledger) shardList() []*scheduleShard {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*scheduleShard, 0, len(l.shards))
	for _, shard := range l.shards {
		out = append(out, shard)
	}
	return out
}

// The methods below require the shard lock to be held by the caller.

// sweepLocked releases every hold whose expiry has passed and returns the
// released hold ids
func (s *scheduleShard) sweepLocked(now time.Time) []uuid.UUID {
	var expired []uuid.UUID
	for id, hold := range s.holds {
		if hold.Expired(now) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		s.releaseLocked(id)
	}
	return expired
}

// conflictsLocked returns the subset of seatNumbers that are not Free
func (s *scheduleShard) conflictsLocked(seatNumbers []int) []int {
	var conflicts []int
	for _, n := range seatNumbers {
		if state, ok := s.seats[n]; ok && state.Status != SeatFree {
			conflicts = append(conflicts, n)
		}
	}
	return conflicts
}

// holdLocked marks every seat of the hold as Held. The caller has already
// verified there are no conflicts.
func (s *scheduleShard) holdLocked(hold *Hold) {
	for _, n := range hold.Seats {
		s.seats[n] = SeatState{
			Status:    SeatHeld,
			HoldID:    hold.ID,
			ExpiresAt: hold.ExpiresAt,
		}
	}
	s.holds[hold.ID] = hold
}

// releaseLocked frees the seats of a hold if it is still present. It only
// frees seats that still belong to this hold, so a release racing a later
// hold over the same seats can never free the newer claim.
func (s *scheduleShard) releaseLocked(holdID uuid.UUID) bool {
	hold, ok := s.holds[holdID]
	if !ok {
		return false
	}
	for _, n := range hold.Seats {
		if state, ok := s.seats[n]; ok && state.Status == SeatHeld && state.HoldID == holdID {
			delete(s.seats, n)
		}
	}
	delete(s.holds, holdID)
	return true
}

// commitLocked converts a live hold into Booked seats
func (s *scheduleShard) commitLocked(holdID uuid.UUID, bookingID uuid.UUID, now time.Time) error {
	hold, ok := s.holds[holdID]
	if !ok || hold.Expired(now) {
		return ErrHoldExpired
	}
	for _, n := range hold.Seats {
		s.seats[n] = SeatState{
			Status:    SeatBooked,
			BookingID: bookingID,
		}
	}
	delete(s.holds, holdID)
	return nil
}

// releaseBookingLocked frees every seat booked under the given booking
// id and reports whether any seat changed
func (s *scheduleShard) releaseBookingLocked(bookingID uuid.UUID) bool {
	released := false
	for n, state := range s.seats {
		if state.Status == SeatBooked && state.BookingID == bookingID {
			delete(s.seats, n)
			released = true
		}
	}
	return released
}

// snapshotLocked copies the full seat state
func (s *scheduleShard) snapshotLocked(now time.Time) *Snapshot {
	seats := make(map[int]SeatState, len(s.seats))
	for n, state := range s.seats {
		seats[n] = state
	}
	return &Snapshot{
		ScheduleID: s.scheduleID,
		TotalSeats: s.totalSeats,
		Seats:      seats,
		TakenAt:    now,
	}
}
