package notifications

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestBookingEventEnvelope(t *testing.T) {
	bookingID := uuid.New()
	scheduleID := uuid.New()

	event := NewBookingEvent(EventBookingCancelled, bookingID, "BUS-20250601-ABCDEF", scheduleID)
	event.Seats = []int{3, 4}
	event.Amount = 1000
	event.Reason = "payment window expired"

	if event.ID == uuid.Nil {
		t.Error("event id not assigned")
	}
	if event.OccurredAt.IsZero() {
		t.Error("event timestamp not assigned")
	}
	if got := event.GetPartitionKey(); got != bookingID.String() {
		t.Errorf("partition key = %s, want booking id %s", got, bookingID)
	}

	data, err := event.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}

	var decoded BookingEvent
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Type != EventBookingCancelled {
		t.Errorf("type = %s, want %s", decoded.Type, EventBookingCancelled)
	}
	if decoded.Reason != "payment window expired" {
		t.Errorf("reason = %q", decoded.Reason)
	}
	if len(decoded.Seats) != 2 {
		t.Errorf("seats = %v, want [3 4]", decoded.Seats)
	}
}

func TestEventsOfOneBookingShareAPartitionKey(t *testing.T) {
	bookingID := uuid.New()
	scheduleID := uuid.New()

	confirmed := NewBookingEvent(EventBookingConfirmed, bookingID, "BUS-20250601-ABCDEF", scheduleID)
	cancelled := NewBookingEvent(EventBookingCancelled, bookingID, "BUS-20250601-ABCDEF", scheduleID)

	if confirmed.GetPartitionKey() != cancelled.GetPartitionKey() {
		t.Error("events of the same booking must hash to the same partition")
	}
}
