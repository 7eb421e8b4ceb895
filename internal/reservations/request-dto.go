package reservations

type HoldRequest struct {
	ScheduleID string `json:"schedule_id" binding:"required,uuid"`
	Seats      []int  `json:"seats" binding:"required,min=1,dive,min=1"`
}
