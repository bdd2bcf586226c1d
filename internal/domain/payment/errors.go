package payment

import "errors"

var (
	ErrInvalidAmount = errors.New("payment: invalid amount")
	ErrNotConfigured = errors.New("payment: processor is not configured")
)

// ProcessorError is returned when the processor rejects or fails a request.
// Message is the processor's human-readable explanation, possibly empty.
// Opaque marks Err as unfit to show to a shopper, such as a raw API payload.
type ProcessorError struct {
	Message    string
	Code       string
	StatusCode int
	Opaque     bool
	Err        error
}

func (e *ProcessorError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "payment: processor error"
}

func (e *ProcessorError) Unwrap() error { return e.Err }
