package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	// Core booking operations
	CreateBooking(ctx context.Context, booking *Booking) error
	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetBookingByRef(ctx context.Context, bookingRef string) (*Booking, error)
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, status Status, cancelledAt *time.Time) error
	UpdateBookingHold(ctx context.Context, id uuid.UUID, holdID uuid.UUID) error

	// Session booking operations
	GetSessionBookings(ctx context.Context, sessionToken string, limit, offset int) ([]Booking, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateBooking(ctx context.Context, booking *Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *repository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Passengers").
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetBookingByRef(ctx context.Context, bookingRef string) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Passengers").
		Where("booking_ref = ?", bookingRef).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status Status, cancelledAt *time.Time) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}

	if cancelledAt != nil {
		updates["cancelled_at"] = *cancelledAt
	} else if status == StatusPendingPayment {
		// reinstated bookings drop their cancellation timestamp
		updates["cancelled_at"] = gorm.Expr("NULL")
	}

	return r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) UpdateBookingHold(ctx context.Context, id uuid.UUID, holdID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"hold_id":    holdID,
			"updated_at": time.Now(),
		}).Error
}

func (r *repository) GetSessionBookings(ctx context.Context, sessionToken string, limit, offset int) ([]Booking, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	var bookings []Booking
	err := r.db.WithContext(ctx).
		Preload("Passengers").
		Where("session_token = ?", sessionToken).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&bookings).Error

	return bookings, err
}
