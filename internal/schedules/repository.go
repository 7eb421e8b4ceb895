package schedules

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	GetScheduleByID(ctx context.Context, id uuid.UUID) (*Schedule, error)
	ListSchedules(ctx context.Context, limit, offset int) ([]Schedule, error)
	SearchByRoute(ctx context.Context, fromID, toID uuid.UUID) ([]Schedule, error)
	ListLocations(ctx context.Context) ([]Location, error)
	GetLocationByName(ctx context.Context, name string) (*Location, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetScheduleByID(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	var schedule Schedule
	err := r.db.WithContext(ctx).
		Preload("From").
		Preload("To").
		First(&schedule, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *repository) ListSchedules(ctx context.Context, limit, offset int) ([]Schedule, error) {
	var out []Schedule
	err := r.db.WithContext(ctx).
		Preload("From").
		Preload("To").
		Order("departure_time ASC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, err
}

func (r *repository) SearchByRoute(ctx context.Context, fromID, toID uuid.UUID) ([]Schedule, error) {
	var out []Schedule
	err := r.db.WithContext(ctx).
		Preload("From").
		Preload("To").
		Where("from_location_id = ? AND to_location_id = ?", fromID, toID).
		Order("departure_time ASC").
		Find(&out).Error
	return out, err
}

func (r *repository) ListLocations(ctx context.Context) ([]Location, error) {
	var out []Location
	err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

func (r *repository) GetLocationByName(ctx context.Context, name string) (*Location, error) {
	var location Location
	err := r.db.WithContext(ctx).First(&location, "name = ?", name).Error
	if err != nil {
		return nil, err
	}
	return &location, nil
}
