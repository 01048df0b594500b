package courier_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tournevent/courier/pkg/courier"
)

func TestCourierError_Error(t *testing.T) {
	err := courier.NewCourierError("pathao", "INVALID_REQUEST", "Please fix the given errors")
	assert.Equal(t, "pathao error (INVALID_REQUEST): Please fix the given errors", err.Error())
}

func TestCourierError_Unwrap(t *testing.T) {
	cause := errors.New("network timeout")
	err := courier.NewCourierError("redx", "TRANSPORT", "API call failed").WithCause(cause)
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "network timeout")
}

func TestCourierError_Is(t *testing.T) {
	err1 := courier.NewCourierError("pathao", "RATE_LIMITED", "slow down")
	err2 := courier.NewCourierError("steadfast", "RATE_LIMITED", "Too Many Attempts.")
	err3 := courier.NewCourierError("pathao", "NOT_FOUND", "missing")

	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, err3))
}

func TestValidationErrors(t *testing.T) {
	var errs courier.ValidationErrors
	assert.NoError(t, errs.Err())

	errs.Add("recipient_phone", "phone must be 11 digits starting with 01")
	errs.Add("recipient_city", "city is required")
	err := errs.Err()

	assert.True(t, errors.Is(err, courier.ErrInvalidRequest))
	assert.Equal(t, "validation failed: recipient_phone: phone must be 11 digits starting with 01; recipient_city: city is required", err.Error())
}

func TestNewHTTPError(t *testing.T) {
	tests := []struct {
		status    int
		code      string
		sentinel  error
		retryable bool
	}{
		{http.StatusUnauthorized, "UNAUTHORIZED", courier.ErrAuthenticationFailed, false},
		{http.StatusForbidden, "UNAUTHORIZED", courier.ErrAuthenticationFailed, false},
		{http.StatusNotFound, "NOT_FOUND", courier.ErrOrderNotFound, false},
		{http.StatusTooManyRequests, "RATE_LIMITED", courier.ErrRateLimitExceeded, true},
		{http.StatusUnprocessableEntity, "INVALID_REQUEST", courier.ErrInvalidRequest, false},
		{http.StatusBadGateway, "SERVICE_UNAVAILABLE", courier.ErrServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := courier.NewHTTPError("pathao", tt.status, "boom")
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.status, err.StatusCode)
			assert.True(t, errors.Is(err, tt.sentinel))
			assert.Equal(t, tt.retryable, courier.IsRetryable(err))
		})
	}
}

func TestNewHTTPError_FallbackMessage(t *testing.T) {
	err := courier.NewHTTPError("redx", http.StatusTeapot, "")
	assert.Equal(t, "HTTP_418", err.Code)
	assert.Equal(t, courier.FallbackMessage, err.Message)
}

func TestNewTransportError(t *testing.T) {
	err := courier.NewTransportError("steadfast", errors.New("dial tcp: connection refused"))
	assert.True(t, errors.Is(err, courier.ErrServiceUnavailable))
	assert.True(t, courier.IsRetryable(err))
	assert.Equal(t, courier.FallbackMessage, courier.UserMessage(err))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", courier.UserMessage(nil))
	assert.Equal(t, courier.FallbackMessage, courier.UserMessage(errors.New("boom")))
	assert.Equal(t, "Too Many Attempts.",
		courier.UserMessage(fmt.Errorf("create: %w", courier.NewCourierError("steadfast", "RATE_LIMITED", "Too Many Attempts."))))

	verr := courier.ValidationErrors{{Field: "invoice", Message: "invoice is required"}}
	assert.Equal(t, "validation failed: invoice: invoice is required", courier.UserMessage(verr))
}

func TestIsRetryable_Sentinels(t *testing.T) {
	assert.True(t, courier.IsRetryable(courier.ErrServiceUnavailable))
	assert.True(t, courier.IsRetryable(courier.ErrRateLimitExceeded))
	assert.False(t, courier.IsRetryable(courier.ErrInvalidRequest))
}

func TestOrderResponse_TrackingID(t *testing.T) {
	assert.Equal(t, "", (*courier.OrderResponse)(nil).TrackingID())
	assert.Equal(t, "C1", (&courier.OrderResponse{ConsignmentID: "C1"}).TrackingID())
	assert.Equal(t, "T1", (&courier.OrderResponse{ConsignmentID: "C1", TrackingCode: "T1"}).TrackingID())
}

func TestErrorCode(t *testing.T) {
	var verrs courier.ValidationErrors
	verrs.Add("recipient_phone", "required")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"courier error", courier.NewHTTPError("redx", 429, "slow down"), "RATE_LIMITED"},
		{"validation", verrs.Err(), "INVALID_REQUEST"},
		{"carrier not found", fmt.Errorf("%w: dhl", courier.ErrCarrierNotFound), "CARRIER_NOT_FOUND"},
		{"quote not supported", courier.ErrQuoteNotSupported, "QUOTE_NOT_SUPPORTED"},
		{"unknown", errors.New("boom"), "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, courier.ErrorCode(tt.err))
		})
	}
}
