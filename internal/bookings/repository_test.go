package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockRepository(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open gorm: %v", err)
	}

	return NewRepository(gormDB), mock
}

func bookingRows(b *Booking) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "schedule_id", "hold_id", "session_token", "booking_ref",
		"total_seats", "total_amount", "status", "created_at", "updated_at", "cancelled_at",
	}).AddRow(
		b.ID, b.ScheduleID, b.HoldID, b.SessionToken, b.BookingRef,
		b.TotalSeats, b.TotalAmount, b.Status, b.CreatedAt, b.UpdatedAt, b.CancelledAt,
	)
}

func TestGetBookingByIDPreloadsPassengers(t *testing.T) {
	repo, mock := newMockRepository(t)

	booking := &Booking{
		ID:           uuid.New(),
		ScheduleID:   uuid.New(),
		HoldID:       uuid.New(),
		SessionToken: "session-token-a",
		BookingRef:   "BUS-20250601-ABCDEF",
		TotalSeats:   2,
		TotalAmount:  1000,
		Status:       StatusPendingPayment.String(),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$1`).
		WithArgs(booking.ID, 1).
		WillReturnRows(bookingRows(booking))

	mock.ExpectQuery(`SELECT \* FROM "passengers" WHERE "passengers"\."booking_id" = \$1`).
		WithArgs(booking.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "seat_number", "name", "age", "gender", "created_at"}).
			AddRow(uuid.New(), booking.ID, 3, "Ravi", 28, "MALE", time.Now()).
			AddRow(uuid.New(), booking.ID, 4, "Priya", 26, "FEMALE", time.Now()))

	got, err := repo.GetBookingByID(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("GetBookingByID failed: %v", err)
	}

	if got.BookingRef != booking.BookingRef {
		t.Errorf("booking ref = %s, want %s", got.BookingRef, booking.BookingRef)
	}
	if len(got.Passengers) != 2 {
		t.Errorf("passengers = %d, want 2", len(got.Passengers))
	}
	if seats := got.SeatNumbers(); len(seats) != 2 || seats[0] != 3 || seats[1] != 4 {
		t.Errorf("seat numbers = %v, want [3 4]", seats)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetBookingByIDNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	id := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$1`).
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetBookingByID(context.Background(), id)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("error = %v, want %v", err, gorm.ErrRecordNotFound)
	}
}

func TestGetBookingByRefPreloadsPassengers(t *testing.T) {
	repo, mock := newMockRepository(t)

	booking := &Booking{
		ID:           uuid.New(),
		ScheduleID:   uuid.New(),
		HoldID:       uuid.New(),
		SessionToken: "session-token-a",
		BookingRef:   "BUS-20250601-MNOPQR",
		TotalSeats:   1,
		TotalAmount:  500,
		Status:       StatusConfirmed.String(),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE booking_ref = \$1`).
		WithArgs(booking.BookingRef, 1).
		WillReturnRows(bookingRows(booking))

	mock.ExpectQuery(`SELECT \* FROM "passengers"`).
		WithArgs(booking.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "seat_number", "name", "age", "gender", "created_at"}).
			AddRow(uuid.New(), booking.ID, 7, "Ravi", 28, "MALE", time.Now()))

	got, err := repo.GetBookingByRef(context.Background(), booking.BookingRef)
	if err != nil {
		t.Fatalf("GetBookingByRef failed: %v", err)
	}
	if got.ID != booking.ID {
		t.Errorf("booking = %s, want %s", got.ID, booking.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateBookingStatus(t *testing.T) {
	t.Run("cancel stamps cancelled_at", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		id := uuid.New()
		now := time.Now()

		mock.ExpectExec(`UPDATE "bookings" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		if err := repo.UpdateBookingStatus(context.Background(), id, StatusCancelled, &now); err != nil {
			t.Fatalf("UpdateBookingStatus failed: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("reinstate clears cancelled_at", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectExec(`UPDATE "bookings" SET .*"cancelled_at"=NULL`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		if err := repo.UpdateBookingStatus(context.Background(), uuid.New(), StatusPendingPayment, nil); err != nil {
			t.Fatalf("UpdateBookingStatus failed: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestUpdateBookingHold(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateBookingHold(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("UpdateBookingHold failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetSessionBookings(t *testing.T) {
	repo, mock := newMockRepository(t)

	booking := &Booking{
		ID:           uuid.New(),
		ScheduleID:   uuid.New(),
		HoldID:       uuid.New(),
		SessionToken: "session-token-a",
		BookingRef:   "BUS-20250601-GHIJKL",
		TotalSeats:   1,
		TotalAmount:  500,
		Status:       StatusConfirmed.String(),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE session_token = \$1 ORDER BY created_at DESC`).
		WithArgs("session-token-a", 10).
		WillReturnRows(bookingRows(booking))

	mock.ExpectQuery(`SELECT \* FROM "passengers"`).
		WithArgs(booking.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "seat_number", "name", "age", "gender", "created_at"}).
			AddRow(uuid.New(), booking.ID, 7, "Ravi", 28, "MALE", time.Now()))

	got, err := repo.GetSessionBookings(context.Background(), "session-token-a", 0, 0)
	if err != nil {
		t.Fatalf("GetSessionBookings failed: %v", err)
	}
	if len(got) != 1 || got[0].BookingRef != booking.BookingRef {
		t.Errorf("bookings = %v, want the session booking", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
