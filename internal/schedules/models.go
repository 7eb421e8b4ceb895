package schedules

import (
	"time"

	"github.com/google/uuid"
)

// Location is one stop in the route directory
type Location struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name      string    `gorm:"unique;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Schedule identifies one bus trip instance. Immutable once published
// except by explicit admin update, which lives outside this service;
// everything else references it by id.
type Schedule struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FromLocationID uuid.UUID `gorm:"type:uuid;index;not null" json:"from_location_id"`
	ToLocationID   uuid.UUID `gorm:"type:uuid;index;not null" json:"to_location_id"`
	Operator       string    `gorm:"not null" json:"operator"`
	DepartureTime  time.Time `gorm:"not null" json:"departure_time"`
	ArrivalTime    time.Time `gorm:"not null" json:"arrival_time"`
	TotalSeats     int       `gorm:"not null" json:"total_seats"`
	PricePerSeat   float64   `gorm:"not null" json:"price_per_seat"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relationships
	From *Location `json:"from,omitempty" gorm:"foreignKey:FromLocationID"`
	To   *Location `json:"to,omitempty" gorm:"foreignKey:ToLocationID"`
}

// TableName sets the table name for Location
func (Location) TableName() string {
	return "locations"
}

// TableName sets the table name for Schedule
func (Schedule) TableName() string {
	return "schedules"
}
