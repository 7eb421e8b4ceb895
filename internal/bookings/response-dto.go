package bookings

import "time"

type BookingResponse struct {
	BookingID   string              `json:"booking_id"`
	BookingRef  string              `json:"booking_ref"`
	ScheduleID  string              `json:"schedule_id"`
	Status      string              `json:"status"`
	TotalSeats  int                 `json:"total_seats"`
	TotalAmount float64             `json:"total_amount"`
	Passengers  []PassengerResponse `json:"passengers"`
	CreatedAt   time.Time           `json:"created_at"`
	CancelledAt *time.Time          `json:"cancelled_at,omitempty"`
}

type PassengerResponse struct {
	SeatNumber int    `json:"seat_number"`
	Name       string `json:"name"`
	Age        int    `json:"age"`
	Gender     string `json:"gender"`
}

// ToResponse maps a booking model onto the API response shape
func ToResponse(b *Booking) BookingResponse {
	passengers := make([]PassengerResponse, 0, len(b.Passengers))
	for _, p := range b.Passengers {
		passengers = append(passengers, PassengerResponse{
			SeatNumber: p.SeatNumber,
			Name:       p.Name,
			Age:        p.Age,
			Gender:     p.Gender,
		})
	}

	return BookingResponse{
		BookingID:   b.ID.String(),
		BookingRef:  b.BookingRef,
		ScheduleID:  b.ScheduleID.String(),
		Status:      b.Status,
		TotalSeats:  b.TotalSeats,
		TotalAmount: b.TotalAmount,
		Passengers:  passengers,
		CreatedAt:   b.CreatedAt,
		CancelledAt: b.CancelledAt,
	}
}
