package bookings

import (
	"time"

	"github.com/google/uuid"
)

// Booking defines the main booking structure. The passenger list is
// written once at creation; cancellation only flips the status.
type Booking struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ScheduleID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"schedule_id"`
	HoldID       uuid.UUID  `gorm:"type:uuid;not null" json:"-"`
	SessionToken string     `gorm:"type:varchar(128);index;not null" json:"-"`
	BookingRef   string     `gorm:"unique;not null" json:"booking_ref"`
	TotalSeats   int        `gorm:"not null" json:"total_seats"`
	TotalAmount  float64    `gorm:"not null" json:"total_amount"`
	Status       string     `gorm:"type:varchar(20);check:status IN ('PENDING_PAYMENT', 'CONFIRMED', 'CANCELLED');default:'PENDING_PAYMENT'" json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`

	// Relationships
	Passengers []Passenger `json:"passengers,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`
}

// Passenger defines one traveller occupying one seat of the booking
type Passenger struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID  uuid.UUID `gorm:"type:uuid;index;not null" json:"booking_id"`
	SeatNumber int       `gorm:"not null" json:"seat_number"`
	Name       string    `gorm:"type:varchar(120);not null" json:"name"`
	Age        int       `gorm:"not null" json:"age"`
	Gender     string    `gorm:"type:varchar(10);not null" json:"gender"`
	CreatedAt  time.Time `json:"created_at"`

	// Relationships
	Booking *Booking `json:"booking,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;"`
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

// TableName sets the table name for Passenger
func (Passenger) TableName() string {
	return "passengers"
}

// Helper methods for booking management
func (b *Booking) IsPendingPayment() bool {
	return b.Status == string(StatusPendingPayment)
}

func (b *Booking) IsConfirmed() bool {
	return b.Status == string(StatusConfirmed)
}

func (b *Booking) IsCancelled() bool {
	return b.Status == string(StatusCancelled)
}

// SeatNumbers returns the seats covered by this booking in passenger order
func (b *Booking) SeatNumbers() []int {
	seats := make([]int, 0, len(b.Passengers))
	for _, p := range b.Passengers {
		seats = append(seats, p.SeatNumber)
	}
	return seats
}
