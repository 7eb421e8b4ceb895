package payments

type CreateSessionRequest struct {
	BookingID string `json:"booking_id" binding:"required,uuid"`
}

type SucceedSessionRequest struct {
	ExternalRef string `json:"external_ref" binding:"omitempty,max=64"`
}

type FailSessionRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=255"`
}
