package response

// StandardApiResponse is the envelope every handler writes
type StandardApiResponse struct {
	Status     string      `json:"status"`           // "success" or "error"
	StatusCode int         `json:"status_code"`      // mirrors the HTTP status
	Message    string      `json:"message"`          // human readable summary
	Data       interface{} `json:"data,omitempty"`   // payload on success
	Errors     interface{} `json:"errors,omitempty"` // binding or domain error details
}
