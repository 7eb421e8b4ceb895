package bookings

type PassengerInput struct {
	SeatNumber int    `json:"seat_number" binding:"required,min=1"`
	Name       string `json:"name" binding:"required,min=1,max=120"`
	Age        int    `json:"age" binding:"required,min=1,max=120"`
	Gender     string `json:"gender" binding:"required,oneof=MALE FEMALE OTHER"`
}

type CreateBookingRequest struct {
	HoldID     string           `json:"hold_id" binding:"required,uuid"`
	Passengers []PassengerInput `json:"passengers" binding:"required,min=1,dive"`
}
