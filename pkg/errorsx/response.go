package errorsx

import "time"

// ErrorResponse is the standardized error payload handed to telemetry
// callbacks and error sinks.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	Timestamp string `json:"timestamp"`
}

// NewErrorResponse builds an ErrorResponse for err with the given code.
func NewErrorResponse(err error, code int) ErrorResponse {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return ErrorResponse{
		Error:     string(Reason(err)),
		Message:   msg,
		Code:      code,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}
