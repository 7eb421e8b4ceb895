package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"busline/internal/schedules"
	"busline/internal/shared/config"
	"busline/internal/shared/database"

	"github.com/google/uuid"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Busline Database Seeder...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in the correct order (respecting foreign key constraints)
func (s *Seeder) CleanDatabase() error {
	// Delete in reverse dependency order
	tables := []string{
		"passengers",
		"bookings",
		"schedules",
		"locations",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Exec("SET CONSTRAINTS ALL DEFERRED").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to defer constraints: %w", err)
	}

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	if err := tx.Exec("SET CONSTRAINTS ALL IMMEDIATE").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to restore constraints: %w", err)
	}

	return tx.Commit().Error
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	locationIDs, err := s.SeedLocations()
	if err != nil {
		return fmt.Errorf("failed to seed locations: %w", err)
	}

	if err := s.SeedSchedules(locationIDs); err != nil {
		return fmt.Errorf("failed to seed schedules: %w", err)
	}

	// Clear Redis cache to ensure fresh state
	if s.db.Redis != nil {
		if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
			log.Printf("Warning: Failed to clear Redis cache: %v", err)
		}
	}

	return nil
}

// SeedLocations creates the city directory used by route search
func (s *Seeder) SeedLocations() (map[string]uuid.UUID, error) {
	fmt.Println("  📍 Seeding locations...")

	names := []string{
		"Hyderabad",
		"Bangalore",
		"Chennai",
		"Vijayawada",
		"Pune",
		"Mumbai",
	}

	locationIDs := make(map[string]uuid.UUID, len(names))
	for _, name := range names {
		location := schedules.Location{
			ID:   uuid.New(),
			Name: name,
		}
		if err := s.db.PostgreSQL.Create(&location).Error; err != nil {
			return nil, fmt.Errorf("failed to create location %s: %w", name, err)
		}
		locationIDs[name] = location.ID
		fmt.Printf("    Created location: %s\n", name)
	}

	return locationIDs, nil
}

// SeedSchedules creates bus schedules between the seeded cities
func (s *Seeder) SeedSchedules(locationIDs map[string]uuid.UUID) error {
	fmt.Println("  🚌 Seeding schedules...")

	tonight := time.Now().Truncate(24 * time.Hour).Add(21 * time.Hour)

	schedulesData := []struct {
		from     string
		to       string
		operator string
		depart   time.Time
		travel   time.Duration
		seats    int
		price    float64
	}{
		{"Hyderabad", "Bangalore", "Orange Travels AC Sleeper", tonight, 9 * time.Hour, 45, 500},
		{"Hyderabad", "Vijayawada", "Morning Star Express", tonight.Add(time.Hour), 5 * time.Hour, 40, 350},
		{"Bangalore", "Chennai", "VRL AC Seater", tonight.Add(30 * time.Minute), 6 * time.Hour, 45, 450},
		{"Chennai", "Hyderabad", "SRS Night Rider Sleeper", tonight.Add(2 * time.Hour), 12 * time.Hour, 36, 700},
		{"Pune", "Mumbai", "Shivneri Volvo", tonight.Add(-10 * time.Hour), 3 * time.Hour, 49, 600},
		{"Mumbai", "Bangalore", "National AC Sleeper", tonight.Add(time.Hour), 16 * time.Hour, 40, 1100},
	}

	for _, data := range schedulesData {
		schedule := schedules.Schedule{
			ID:             uuid.New(),
			FromLocationID: locationIDs[data.from],
			ToLocationID:   locationIDs[data.to],
			Operator:       data.operator,
			DepartureTime:  data.depart,
			ArrivalTime:    data.depart.Add(data.travel),
			TotalSeats:     data.seats,
			PricePerSeat:   data.price,
		}
		if err := s.db.PostgreSQL.Create(&schedule).Error; err != nil {
			return fmt.Errorf("failed to create schedule %s -> %s: %w", data.from, data.to, err)
		}
		fmt.Printf("    Created schedule: %s -> %s (%s, %d seats, ₹%.0f)\n",
			data.from, data.to, data.operator, data.seats, data.price)
	}

	return nil
}
