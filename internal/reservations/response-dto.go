package reservations

import "time"

type HoldResponse struct {
	HoldID     string    `json:"hold_id"`
	ScheduleID string    `json:"schedule_id"`
	Seats      []int     `json:"seats"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ToHoldResponse maps a hold onto the API response shape
func ToHoldResponse(h *Hold) HoldResponse {
	return HoldResponse{
		HoldID:     h.ID.String(),
		ScheduleID: h.ScheduleID.String(),
		Seats:      h.Seats,
		CreatedAt:  h.CreatedAt,
		ExpiresAt:  h.ExpiresAt,
	}
}

type SnapshotResponse struct {
	ScheduleID     string    `json:"schedule_id"`
	TotalSeats     int       `json:"total_seats"`
	AvailableSeats []int     `json:"available_seats"`
	HeldSeats      []int     `json:"held_seats"`
	BookedSeats    []int     `json:"booked_seats"`
	TakenAt        time.Time `json:"taken_at"`
}

// ToSnapshotResponse flattens the seat state map into the three lists
// clients render from
func ToSnapshotResponse(s *Snapshot) SnapshotResponse {
	available := make([]int, 0, s.TotalSeats)
	held := []int{}
	booked := []int{}

	for n := 1; n <= s.TotalSeats; n++ {
		state, ok := s.Seats[n]
		if !ok || state.Status == SeatFree {
			available = append(available, n)
			continue
		}
		switch state.Status {
		case SeatHeld:
			held = append(held, n)
		case SeatBooked:
			booked = append(booked, n)
		}
	}

	return SnapshotResponse{
		ScheduleID:     s.ScheduleID.String(),
		TotalSeats:     s.TotalSeats,
		AvailableSeats: available,
		HeldSeats:      held,
		BookedSeats:    booked,
		TakenAt:        s.TakenAt,
	}
}
