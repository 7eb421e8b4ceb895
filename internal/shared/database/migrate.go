package database

import (
	"busline/internal/bookings"
	"busline/internal/schedules"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schedules.Location{},
		&schedules.Schedule{},
		&bookings.Booking{},
		&bookings.Passenger{},
	)
}
