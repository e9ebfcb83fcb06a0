package gwerrors

import "time"

// Payload is the client-visible envelope for a failed call. Exactly one is
// emitted per failed tool call regardless of internal retries.
type Payload struct {
	Success bool         `json:"success"`
	Error   PayloadError `json:"error"`
}

// PayloadError mirrors Error for serialization. RetryAfterMs and
// NextAttemptAt appear only when the kind carries them.
type PayloadError struct {
	Code          string       `json:"code"`
	Message       string       `json:"message"`
	RequestID     string       `json:"requestId"`
	Retryable     bool         `json:"retryable"`
	Details       []FieldError `json:"details,omitempty"`
	RetryAfterMs  int64        `json:"retryAfterMs,omitempty"`
	NextAttemptAt string       `json:"nextAttemptAt,omitempty"`
}

// Payload converts the error into its client-visible shape.
func (e *Error) Payload() Payload {
	p := Payload{
		Error: PayloadError{
			Code:      string(e.Kind),
			Message:   e.Message,
			RequestID: e.RequestID,
			Retryable: e.Retryable(),
			Details:   e.Details,
		},
	}
	if e.RetryAfter > 0 {
		p.Error.RetryAfterMs = e.RetryAfter.Milliseconds()
	}
	if !e.NextAttempt.IsZero() {
		p.Error.NextAttemptAt = e.NextAttempt.UTC().Format(time.RFC3339)
	}
	return p
}
