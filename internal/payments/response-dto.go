package payments

import "time"

type SessionResponse struct {
	SessionID     string    `json:"session_id"`
	BookingID     string    `json:"booking_id"`
	State         string    `json:"state"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	PaymentRef    string    `json:"payment_ref"`
	PayerRef      string    `json:"payer_ref,omitempty"`
	PaymentURI    string    `json:"payment_uri,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	Deadline      time.Time `json:"deadline"`
}

// ToResponse maps a payment session onto the API response shape
func ToResponse(ps *PaymentSession) SessionResponse {
	return SessionResponse{
		SessionID:     ps.ID.String(),
		BookingID:     ps.BookingID.String(),
		State:         ps.State.String(),
		Amount:        ps.Amount,
		Currency:      ps.Currency,
		PaymentRef:    ps.PaymentRef,
		PayerRef:      ps.PayerRef,
		PaymentURI:    ps.PaymentURI,
		FailureReason: ps.FailureReason,
		CreatedAt:     ps.CreatedAt,
		Deadline:      ps.Deadline,
	}
}
