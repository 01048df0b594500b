package courier

import (
	"errors"
	"fmt"
	"strings"
)

// FallbackMessage is shown to operators when a provider error carries no message.
const FallbackMessage = "Something went wrong. Please try again."

// CourierError represents an error returned by a courier provider.
type CourierError struct {
	Carrier    string
	Code       string
	Message    string
	Detail     string
	StatusCode int
	Retryable  bool
	// LongNotice marks errors whose notice should stay on screen longer
	// (rate limits, rejected credentials).
	LongNotice bool
	Cause      error
}

// Error implements the error interface.
func (e *CourierError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.Carrier, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Carrier, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *CourierError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for CourierError.
func (e *CourierError) Is(target error) bool {
	t, ok := target.(*CourierError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewCourierError creates a new CourierError.
func NewCourierError(carrier, code, message string) *CourierError {
	return &CourierError{
		Carrier: carrier,
		Code:    code,
		Message: message,
	}
}

// WithCause adds a cause to the error.
func (e *CourierError) WithCause(err error) *CourierError {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error.
func (e *CourierError) WithStatusCode(code int) *CourierError {
	e.StatusCode = code
	return e
}

// WithDetail attaches provider detail text.
func (e *CourierError) WithDetail(detail string) *CourierError {
	e.Detail = detail
	return e
}

// WithRetryable marks the error as retryable.
func (e *CourierError) WithRetryable(retryable bool) *CourierError {
	e.Retryable = retryable
	return e
}

// WithLongNotice marks the error for an extended operator notice.
func (e *CourierError) WithLongNotice() *CourierError {
	e.LongNotice = true
	return e
}

// Sentinel errors for common courier scenarios.
var (
	// ErrInvalidRequest indicates the order request failed validation.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrServiceUnavailable indicates the provider is temporarily unavailable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrOrderNotFound indicates the consignment was not found.
	ErrOrderNotFound = errors.New("order not found")

	// ErrAuthenticationFailed indicates provider authentication failed.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrRateLimitExceeded indicates the provider rate limit was exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrAreaNotFound indicates a delivery area name did not resolve to an id.
	ErrAreaNotFound = errors.New("delivery area not found")

	// ErrBatchTooLarge indicates a bulk submission exceeds the provider limit.
	ErrBatchTooLarge = errors.New("batch too large")

	// ErrCarrierNotFound indicates the requested provider is not registered.
	ErrCarrierNotFound = errors.New("carrier not found")

	// ErrQuoteNotSupported indicates the provider has no charge calculator.
	ErrQuoteNotSupported = errors.New("quote not supported")
)

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects field errors found before submission.
type ValidationErrors []FieldError

// Add appends a field error.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

// Err returns nil when no field errors were collected.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match ErrInvalidRequest.
func (v ValidationErrors) Unwrap() error {
	return ErrInvalidRequest
}

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var courierErr *CourierError
	if errors.As(err, &courierErr) {
		return courierErr.Retryable
	}
	return errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrRateLimitExceeded)
}

// UserMessage returns the operator-facing message for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs.Error()
	}
	var courierErr *CourierError
	if errors.As(err, &courierErr) && strings.TrimSpace(courierErr.Message) != "" {
		return courierErr.Message
	}
	return FallbackMessage
}

// ErrorCode returns a stable code for err, suitable for API error extensions
// and metric labels.
func ErrorCode(err error) string {
	var courierErr *CourierError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &courierErr):
		return courierErr.Code
	case errors.Is(err, ErrCarrierNotFound):
		return "CARRIER_NOT_FOUND"
	case errors.Is(err, ErrQuoteNotSupported):
		return "QUOTE_NOT_SUPPORTED"
	case errors.Is(err, ErrInvalidRequest):
		return "INVALID_REQUEST"
	case errors.Is(err, ErrAreaNotFound):
		return "AREA_NOT_FOUND"
	default:
		return "INTERNAL_ERROR"
	}
}
