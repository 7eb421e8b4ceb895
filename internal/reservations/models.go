package reservations

import (
	"time"

	"github.com/google/uuid"
)

// SeatStatus is the occupancy state of one seat on one schedule
type SeatStatus string

const (
	SeatFree   SeatStatus = "FREE"
	SeatHeld   SeatStatus = "HELD"
	SeatBooked SeatStatus = "BOOKED"
)

// SeatState carries the status plus the owning hold or booking.
// Exactly one state exists per (scheduleID, seatNumber) at any instant.
type SeatState struct {
	Status    SeatStatus `json:"status"`
	HoldID    uuid.UUID  `json:"hold_id,omitempty"`
	BookingID uuid.UUID  `json:"booking_id,omitempty"`
	ExpiresAt time.Time  `json:"expires_at,omitempty"`
}

// Hold is a time-boxed exclusive claim on a set of seats. It exists only
// between request and commit/release/expiry and is never persisted.
type Hold struct {
	ID           uuid.UUID `json:"hold_id"`
	ScheduleID   uuid.UUID `json:"schedule_id"`
	SessionToken string    `json:"-"`
	Seats        []int     `json:"seats"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the hold's TTL has passed at now
func (h *Hold) Expired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}

// Snapshot is a full copy of a schedule's seat states. Consumers always
// receive the complete picture, never a diff, so a missed emission can
// never leave them drifted.
type Snapshot struct {
	ScheduleID uuid.UUID         `json:"schedule_id"`
	TotalSeats int               `json:"total_seats"`
	Seats      map[int]SeatState `json:"seats"`
	TakenAt    time.Time         `json:"taken_at"`
}

// BookedSeats lists the seat numbers currently booked, in ascending order
func (s *Snapshot) BookedSeats() []int {
	var booked []int
	for n := 1; n <= s.TotalSeats; n++ {
		if st, ok := s.Seats[n]; ok && st.Status == SeatBooked {
			booked = append(booked, n)
		}
	}
	return booked
}

// UnavailableSeats lists seat numbers that are held or booked, ascending
func (s *Snapshot) UnavailableSeats() []int {
	var taken []int
	for n := 1; n <= s.TotalSeats; n++ {
		if st, ok := s.Seats[n]; ok && st.Status != SeatFree {
			taken = append(taken, n)
		}
	}
	return taken
}
