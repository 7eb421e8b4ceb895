package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"busline/internal/bookings"
	"busline/internal/notifications"
	"busline/internal/reservations"
	"busline/internal/shared/config"

	"github.com/google/uuid"
)

// fakeReservations is an in-memory stand-in for the reservation manager
type fakeReservations struct {
	holds map[uuid.UUID]*reservations.Hold

	commitErr error
	holdErr   error

	committed       []uuid.UUID
	released        []uuid.UUID
	releasedBooking []uuid.UUID

	nextHoldExpiry time.Time
}

func (f *fakeReservations) RegisterSchedule(scheduleID uuid.UUID, totalSeats int) {}

func (f *fakeReservations) RequestHold(ctx context.Context, scheduleID uuid.UUID, seatNumbers []int, sessionToken string) (*reservations.Hold, error) {
	if f.holdErr != nil {
		return nil, f.holdErr
	}
	hold := &reservations.Hold{
		ID:           uuid.New(),
		ScheduleID:   scheduleID,
		SessionToken: sessionToken,
		Seats:        append([]int(nil), seatNumbers...),
		ExpiresAt:    f.nextHoldExpiry,
	}
	f.holds[hold.ID] = hold
	return hold, nil
}

func (f *fakeReservations) ReleaseHold(ctx context.Context, holdID uuid.UUID) {
	f.released = append(f.released, holdID)
	delete(f.holds, holdID)
}

func (f *fakeReservations) CommitHold(ctx context.Context, holdID uuid.UUID, bookingID uuid.UUID) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = append(f.committed, holdID)
	delete(f.holds, holdID)
	return nil
}

func (f *fakeReservations) GetHold(holdID uuid.UUID) (*reservations.Hold, bool) {
	hold, ok := f.holds[holdID]
	return hold, ok
}

func (f *fakeReservations) ReleaseBooking(ctx context.Context, scheduleID uuid.UUID, bookingID uuid.UUID) {
	f.releasedBooking = append(f.releasedBooking, bookingID)
}

func (f *fakeReservations) Snapshot(ctx context.Context, scheduleID uuid.UUID) (*reservations.Snapshot, error) {
	return nil, reservations.ErrUnknownSchedule
}

func (f *fakeReservations) SetOnChange(fn func(scheduleID uuid.UUID)) {}
func (f *fakeReservations) StartSweeper(ctx context.Context)          {}

// fakeBookings keeps bookings in a map and records the transitions
// applied
type fakeBookings struct {
	bookings map[uuid.UUID]*bookings.Booking

	confirmErr    error
	confirmCalls  int
	cancelCalls   int
	cancelReasons []string
}

func (f *fakeBookings) add(booking *bookings.Booking) {
	f.bookings[booking.ID] = booking
}

func (f *fakeBookings) get(bookingID uuid.UUID) (*bookings.Booking, error) {
	booking, ok := f.bookings[bookingID]
	if !ok {
		return nil, bookings.ErrBookingNotFound
	}
	return booking, nil
}

func (f *fakeBookings) CreatePending(ctx context.Context, sessionToken string, req bookings.CreateBookingRequest) (*bookings.Booking, error) {
	return nil, fmt.Errorf("not used in payment tests")
}

func (f *fakeBookings) GetBooking(ctx context.Context, bookingID uuid.UUID) (*bookings.Booking, error) {
	booking, err := f.get(bookingID)
	if err != nil {
		return nil, err
	}
	out := *booking
	return &out, nil
}

func (f *fakeBookings) GetBookingByRef(ctx context.Context, bookingRef string) (*bookings.Booking, error) {
	for _, booking := range f.bookings {
		if booking.BookingRef == bookingRef {
			out := *booking
			return &out, nil
		}
	}
	return nil, bookings.ErrBookingNotFound
}

func (f *fakeBookings) GetSessionBookings(ctx context.Context, sessionToken string, limit, offset int) ([]bookings.Booking, error) {
	return nil, nil
}

func (f *fakeBookings) Confirm(ctx context.Context, bookingID uuid.UUID) (*bookings.Booking, error) {
	f.confirmCalls++
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	booking, err := f.get(bookingID)
	if err != nil {
		return nil, err
	}
	booking.Status = bookings.StatusConfirmed.String()
	out := *booking
	return &out, nil
}

func (f *fakeBookings) Cancel(ctx context.Context, bookingID uuid.UUID, reason string) (*bookings.Booking, error) {
	f.cancelCalls++
	f.cancelReasons = append(f.cancelReasons, reason)
	booking, err := f.get(bookingID)
	if err != nil {
		return nil, err
	}
	booking.Status = bookings.StatusCancelled.String()
	out := *booking
	return &out, nil
}

func (f *fakeBookings) Reinstate(ctx context.Context, bookingID uuid.UUID, newHoldID uuid.UUID) (*bookings.Booking, error) {
	booking, err := f.get(bookingID)
	if err != nil {
		return nil, err
	}
	booking.Status = bookings.StatusPendingPayment.String()
	booking.HoldID = newHoldID
	out := *booking
	return &out, nil
}

func (f *fakeBookings) SetEventProducer(producer notifications.EventProducer) {}

// fakeGateway succeeds unless an error is injected. When the entered
// and release channels are set, Authorize blocks between them so tests
// can hold a gateway call open.
type fakeGateway struct {
	authorizeErr error
	captureErr   error
	refundCalls  int

	authorizeEntered chan struct{}
	authorizeRelease chan struct{}
}

func (f *fakeGateway) Authorize(ctx context.Context, session *PaymentSession) (string, string, error) {
	if f.authorizeEntered != nil {
		f.authorizeEntered <- struct{}{}
		<-f.authorizeRelease
	}
	if f.authorizeErr != nil {
		return "", "", f.authorizeErr
	}
	return "UPI_AUTH_TEST", "upi://pay?pa=busline@ybl", nil
}

func (f *fakeGateway) Capture(ctx context.Context, session *PaymentSession) (string, error) {
	if f.captureErr != nil {
		return "", f.captureErr
	}
	return "UPI_CAPTURE_TEST", nil
}

func (f *fakeGateway) Refund(ctx context.Context, session *PaymentSession) error {
	f.refundCalls++
	return nil
}

// recordingProducer captures published booking events
type recordingProducer struct {
	events []*notifications.BookingEvent
}

func (p *recordingProducer) PublishBookingEvent(ctx context.Context, event *notifications.BookingEvent) error {
	p.events = append(p.events, event)
	return nil
}

func (p *recordingProducer) Close() error                          { return nil }
func (p *recordingProducer) HealthCheck(ctx context.Context) error { return nil }

type paymentFixture struct {
	svc          *service
	reservations *fakeReservations
	bookings     *fakeBookings
	gateway      *fakeGateway
	booking      *bookings.Booking
	hold         *reservations.Hold
	clock        *time.Time
}

const testSessionToken = "session-token-a"

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := &now

	scheduleID := uuid.New()
	hold := &reservations.Hold{
		ID:           uuid.New(),
		ScheduleID:   scheduleID,
		SessionToken: testSessionToken,
		Seats:        []int{3, 4},
		CreatedAt:    now,
		ExpiresAt:    now.Add(5 * time.Minute),
	}

	booking := &bookings.Booking{
		ID:           uuid.New(),
		ScheduleID:   scheduleID,
		HoldID:       hold.ID,
		SessionToken: testSessionToken,
		BookingRef:   "BUS-20250601-ABCDEF",
		TotalSeats:   2,
		TotalAmount:  1000,
		Status:       bookings.StatusPendingPayment.String(),
		Passengers: []bookings.Passenger{
			{SeatNumber: 3, Name: "Ravi", Age: 28, Gender: "MALE"},
			{SeatNumber: 4, Name: "Priya", Age: 26, Gender: "FEMALE"},
		},
	}

	fr := &fakeReservations{
		holds:          map[uuid.UUID]*reservations.Hold{hold.ID: hold},
		nextHoldExpiry: now.Add(5 * time.Minute),
	}
	fb := &fakeBookings{bookings: map[uuid.UUID]*bookings.Booking{booking.ID: booking}}
	fg := &fakeGateway{}

	cfg := &config.Config{
		Payment: config.PaymentConfig{
			Window:   2 * time.Minute,
			Currency: "INR",
		},
	}

	svc := NewService(cfg, fr, fb, fg).(*service)
	svc.now = func() time.Time { return *current }
	svc.SetEventProducer(notifications.NewNoopProducer())

	return &paymentFixture{
		svc:          svc,
		reservations: fr,
		bookings:     fb,
		gateway:      fg,
		booking:      booking,
		hold:         hold,
		clock:        current,
	}
}

// addBooking registers another pending booking with a live hold on the
// same schedule
func (f *paymentFixture) addBooking(ref string, seats []int) *bookings.Booking {
	hold := &reservations.Hold{
		ID:           uuid.New(),
		ScheduleID:   f.booking.ScheduleID,
		SessionToken: testSessionToken,
		Seats:        append([]int(nil), seats...),
		CreatedAt:    *f.clock,
		ExpiresAt:    f.clock.Add(5 * time.Minute),
	}
	f.reservations.holds[hold.ID] = hold

	booking := &bookings.Booking{
		ID:           uuid.New(),
		ScheduleID:   f.booking.ScheduleID,
		HoldID:       hold.ID,
		SessionToken: testSessionToken,
		BookingRef:   ref,
		TotalSeats:   len(seats),
		TotalAmount:  500 * float64(len(seats)),
		Status:       bookings.StatusPendingPayment.String(),
	}
	f.bookings.add(booking)
	return booking
}

func (f *paymentFixture) createSession(t *testing.T) *PaymentSession {
	t.Helper()
	session, err := f.svc.CreateSession(context.Background(), testSessionToken, f.booking.ID)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return session
}

func TestCreateSessionOpensAwaitingPayment(t *testing.T) {
	f := newPaymentFixture(t)

	session := f.createSession(t)

	if session.State != StateAwaitingPayment {
		t.Errorf("state = %s, want %s", session.State, StateAwaitingPayment)
	}
	if session.Amount != 1000 {
		t.Errorf("amount = %.2f, want 1000.00", session.Amount)
	}
	if session.Currency != "INR" {
		t.Errorf("currency = %s, want INR", session.Currency)
	}
	if want := f.clock.Add(2 * time.Minute); !session.Deadline.Equal(want) {
		t.Errorf("deadline = %s, want %s", session.Deadline, want)
	}
	if !strings.HasPrefix(session.PaymentRef, "TXN_") {
		t.Errorf("payment ref = %q, want TXN_ prefix", session.PaymentRef)
	}
	if session.PaymentURI == "" {
		t.Error("payment URI not set by gateway authorize")
	}
}

func TestCreateSessionRejections(t *testing.T) {
	t.Run("foreign session token", func(t *testing.T) {
		f := newPaymentFixture(t)
		if _, err := f.svc.CreateSession(context.Background(), "someone-else", f.booking.ID); err == nil {
			t.Error("expected ownership rejection")
		}
	})

	t.Run("booking not pending", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.booking.Status = bookings.StatusConfirmed.String()
		if _, err := f.svc.CreateSession(context.Background(), testSessionToken, f.booking.ID); err == nil {
			t.Error("expected rejection for a confirmed booking")
		}
	})

	t.Run("expired hold", func(t *testing.T) {
		f := newPaymentFixture(t)
		*f.clock = f.clock.Add(6 * time.Minute)
		if _, err := f.svc.CreateSession(context.Background(), testSessionToken, f.booking.ID); err == nil {
			t.Error("expected rejection for an expired hold")
		}
	})

	t.Run("second active session", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.createSession(t)
		_, err := f.svc.CreateSession(context.Background(), testSessionToken, f.booking.ID)
		if !errors.Is(err, ErrActiveSessionExists) {
			t.Errorf("error = %v, want %v", err, ErrActiveSessionExists)
		}
	})
}

func TestMarkSucceededCommitsAndConfirms(t *testing.T) {
	f := newPaymentFixture(t)
	session := f.createSession(t)

	got, err := f.svc.MarkSucceeded(context.Background(), session.ID, "pay_8JK2M")
	if err != nil {
		t.Fatalf("MarkSucceeded failed: %v", err)
	}

	if got.State != StateSucceeded {
		t.Errorf("state = %s, want %s", got.State, StateSucceeded)
	}
	if got.PayerRef != "pay_8JK2M" {
		t.Errorf("payer ref = %q, want %q", got.PayerRef, "pay_8JK2M")
	}
	if got.ExternalRef != "UPI_CAPTURE_TEST" {
		t.Errorf("external ref = %q, want the capture reference", got.ExternalRef)
	}
	if len(f.reservations.committed) != 1 || f.reservations.committed[0] != f.hold.ID {
		t.Errorf("committed holds = %v, want [%s]", f.reservations.committed, f.hold.ID)
	}
	if f.bookings.confirmCalls != 1 {
		t.Errorf("confirm calls = %d, want 1", f.bookings.confirmCalls)
	}
	if f.bookings.cancelCalls != 0 {
		t.Errorf("cancel calls = %d, want 0", f.bookings.cancelCalls)
	}
}

func TestTerminalSessionsRejectFurtherTransitions(t *testing.T) {
	f := newPaymentFixture(t)
	session := f.createSession(t)

	if _, err := f.svc.MarkSucceeded(context.Background(), session.ID, ""); err != nil {
		t.Fatalf("MarkSucceeded failed: %v", err)
	}

	tests := []struct {
		name string
		op   func() error
	}{
		{"succeed again", func() error { _, err := f.svc.MarkSucceeded(context.Background(), session.ID, ""); return err }},
		{"fail after success", func() error { _, err := f.svc.MarkFailed(context.Background(), session.ID, "late"); return err }},
		{"cancel after success", func() error { _, err := f.svc.CancelSession(context.Background(), session.ID); return err }},
		{"retry after success", func() error { _, err := f.svc.Retry(context.Background(), session.ID); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.op(); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("error = %v, want %v", err, ErrInvalidTransition)
			}
		})
	}
}

func TestDeadlineExpiryClosesSession(t *testing.T) {
	f := newPaymentFixture(t)
	session := f.createSession(t)

	*f.clock = f.clock.Add(3 * time.Minute)

	// A late success must not resurrect the session
	if _, err := f.svc.MarkSucceeded(context.Background(), session.ID, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("late success error = %v, want %v", err, ErrInvalidTransition)
	}

	got, err := f.svc.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.State != StateTimedOut {
		t.Errorf("state = %s, want %s", got.State, StateTimedOut)
	}
	if got.FailureReason != "payment window expired" {
		t.Errorf("failure reason = %q", got.FailureReason)
	}

	if len(f.reservations.released) != 1 || f.reservations.released[0] != f.hold.ID {
		t.Errorf("released holds = %v, want [%s]", f.reservations.released, f.hold.ID)
	}
	if f.bookings.cancelCalls != 1 {
		t.Errorf("cancel calls = %d, want 1", f.bookings.cancelCalls)
	}
}

func TestExpireDueTimesOutOverdueSessions(t *testing.T) {
	f := newPaymentFixture(t)
	f.createSession(t)

	if n := f.svc.ExpireDue(context.Background()); n != 0 {
		t.Errorf("expired %d sessions before the deadline, want 0", n)
	}

	*f.clock = f.clock.Add(3 * time.Minute)

	if n := f.svc.ExpireDue(context.Background()); n != 1 {
		t.Errorf("expired %d sessions, want 1", n)
	}
	if n := f.svc.ExpireDue(context.Background()); n != 0 {
		t.Errorf("second pass expired %d sessions, want 0", n)
	}
}

func TestMarkFailedReleasesSeatsAndCancelsBooking(t *testing.T) {
	f := newPaymentFixture(t)
	session := f.createSession(t)

	got, err := f.svc.MarkFailed(context.Background(), session.ID, "card declined")
	if err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	if got.State != StateFailed {
		t.Errorf("state = %s, want %s", got.State, StateFailed)
	}
	if got.FailureReason != "card declined" {
		t.Errorf("failure reason = %q, want %q", got.FailureReason, "card declined")
	}
	if len(f.reservations.released) != 1 {
		t.Errorf("released holds = %v, want one release", f.reservations.released)
	}
	if len(f.bookings.cancelReasons) != 1 || f.bookings.cancelReasons[0] != "card declined" {
		t.Errorf("cancel reasons = %v", f.bookings.cancelReasons)
	}
}

func TestCaptureFailureClosesSessionAsFailed(t *testing.T) {
	f := newPaymentFixture(t)
	session := f.createSession(t)

	f.gateway.captureErr = fmt.Errorf("issuer unavailable")

	if _, err := f.svc.MarkSucceeded(context.Background(), session.ID, ""); err == nil {
		t.Fatal("expected capture failure to surface")
	}

	got, err := f.svc.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.State != StateFailed {
		t.Errorf("state = %s, want %s", got.State, StateFailed)
	}
	if len(f.reservations.committed) != 0 {
		t.Errorf("committed holds = %v, want none", f.reservations.committed)
	}
}

func TestPaymentHonoredButHoldLostIsReconciled(t *testing.T) {
	f := newPaymentFixture(t)
	session := f.createSession(t)

	f.reservations.commitErr = reservations.ErrHoldExpired

	_, err := f.svc.MarkSucceeded(context.Background(), session.ID, "")
	if !errors.Is(err, ErrPaymentHonoredBookingLost) {
		t.Fatalf("error = %v, want %v", err, ErrPaymentHonoredBookingLost)
	}

	got, err := f.svc.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.State != StateFailed {
		t.Errorf("state = %s, want %s", got.State, StateFailed)
	}
	if f.gateway.refundCalls != 1 {
		t.Errorf("refund calls = %d, want 1", f.gateway.refundCalls)
	}
	if len(f.bookings.cancelReasons) != 1 || f.bookings.cancelReasons[0] != "payment honored but hold lost" {
		t.Errorf("cancel reasons = %v", f.bookings.cancelReasons)
	}
}

func TestRetryOpensFreshSessionUnderNewHold(t *testing.T) {
	f := newPaymentFixture(t)
	first := f.createSession(t)

	if _, err := f.svc.MarkFailed(context.Background(), first.ID, "card declined"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	f.reservations.nextHoldExpiry = f.clock.Add(5 * time.Minute)

	second, err := f.svc.Retry(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}

	if second.ID == first.ID {
		t.Error("retry reused the old session id")
	}
	if second.State != StateAwaitingPayment {
		t.Errorf("state = %s, want %s", second.State, StateAwaitingPayment)
	}
	if second.HoldID == first.HoldID {
		t.Error("retry reused the released hold")
	}
	if f.booking.Status != bookings.StatusPendingPayment.String() {
		t.Errorf("booking status = %s, want %s", f.booking.Status, bookings.StatusPendingPayment)
	}

	// The old session stays terminal
	old, err := f.svc.GetSession(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if old.State != StateFailed {
		t.Errorf("old session state = %s, want %s", old.State, StateFailed)
	}
}

func TestRetrySurfacesSeatConflict(t *testing.T) {
	f := newPaymentFixture(t)
	first := f.createSession(t)

	if _, err := f.svc.MarkFailed(context.Background(), first.ID, "card declined"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	f.reservations.holdErr = &reservations.SeatConflictError{
		ScheduleID: f.booking.ScheduleID.String(),
		Seats:      []int{3},
	}

	_, err := f.svc.Retry(context.Background(), first.ID)
	conflict, ok := reservations.IsSeatConflict(err)
	if !ok {
		t.Fatalf("error = %v, want a seat conflict", err)
	}
	if len(conflict.Seats) != 1 || conflict.Seats[0] != 3 {
		t.Errorf("conflicting seats = %v, want [3]", conflict.Seats)
	}
}

func TestGetSessionUnknownID(t *testing.T) {
	f := newPaymentFixture(t)

	if _, err := f.svc.GetSession(context.Background(), uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("error = %v, want %v", err, ErrSessionNotFound)
	}
}

func TestCreateSessionSettlesStalePredecessorFirst(t *testing.T) {
	f := newPaymentFixture(t)
	first := f.createSession(t)

	// Past the payment window but inside the hold TTL, so the stale
	// session is still registered and its hold still looks live.
	*f.clock = f.clock.Add(3 * time.Minute)

	// Settling the stale session cancels the booking and releases the
	// hold, so the new session must be refused, not opened against the
	// cancelled booking.
	_, err := f.svc.CreateSession(context.Background(), testSessionToken, f.booking.ID)
	if err == nil {
		t.Fatal("expected CreateSession to be refused for the cancelled booking")
	}
	if errors.Is(err, ErrActiveSessionExists) {
		t.Fatalf("error = %v, want a booking state rejection", err)
	}

	old, err := f.svc.GetSession(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if old.State != StateTimedOut {
		t.Errorf("stale session state = %s, want %s", old.State, StateTimedOut)
	}
	if f.booking.Status != bookings.StatusCancelled.String() {
		t.Errorf("booking status = %s, want %s", f.booking.Status, bookings.StatusCancelled)
	}
	if len(f.reservations.released) != 1 || f.reservations.released[0] != f.hold.ID {
		t.Errorf("released holds = %v, want [%s]", f.reservations.released, f.hold.ID)
	}
	if active := f.svc.activeSession(f.booking.ID); active != nil {
		t.Errorf("booking still has active session %s", active.ID)
	}
}

func TestSlowGatewayDoesNotBlockOtherBookings(t *testing.T) {
	f := newPaymentFixture(t)
	other := f.addBooking("BUS-20250601-GHIJKL", []int{7})

	f.gateway.authorizeEntered = make(chan struct{})
	f.gateway.authorizeRelease = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.CreateSession(context.Background(), testSessionToken, f.booking.ID)
		done <- err
	}()

	// The first booking is now stuck inside the gateway call
	<-f.gateway.authorizeEntered
	f.gateway.authorizeEntered = nil

	session, err := f.svc.CreateSession(context.Background(), testSessionToken, other.ID)
	if err != nil {
		t.Fatalf("CreateSession for the other booking failed: %v", err)
	}
	if session.State != StateAwaitingPayment {
		t.Errorf("state = %s, want %s", session.State, StateAwaitingPayment)
	}

	close(f.gateway.authorizeRelease)
	if err := <-done; err != nil {
		t.Fatalf("CreateSession for the first booking failed: %v", err)
	}
}

func TestConfirmFailureAfterCaptureIsEscalated(t *testing.T) {
	f := newPaymentFixture(t)
	producer := &recordingProducer{}
	f.svc.SetEventProducer(producer)
	session := f.createSession(t)

	f.bookings.confirmErr = fmt.Errorf("database unavailable")

	if _, err := f.svc.MarkSucceeded(context.Background(), session.ID, "pay_8JK2M"); err == nil {
		t.Fatal("expected confirmation failure to surface")
	}

	// The money is captured and the seats committed, so the session
	// stays succeeded and the divergence is escalated for an operator
	got, err := f.svc.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.State != StateSucceeded {
		t.Errorf("state = %s, want %s", got.State, StateSucceeded)
	}
	if len(f.reservations.committed) != 1 {
		t.Errorf("committed holds = %v, want one commit", f.reservations.committed)
	}
	if f.gateway.refundCalls != 0 {
		t.Errorf("refund calls = %d, want 0", f.gateway.refundCalls)
	}
	if len(producer.events) != 1 || producer.events[0].Type != notifications.EventPaymentReconciliationRequired {
		t.Errorf("published events = %v, want one %s", producer.events, notifications.EventPaymentReconciliationRequired)
	}
}
