package courier

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/tournevent/courier"

// Tracer returns t, or the global tracer when t is nil.
func Tracer(t trace.Tracer) trace.Tracer {
	if t != nil {
		return t
	}
	return otel.Tracer(instrumentationName)
}

// StartSpan starts a client span for a provider API call.
func StartSpan(ctx context.Context, tracer trace.Tracer, carrier, operation string) (context.Context, trace.Span) {
	return tracer.Start(ctx, carrier+"."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("courier.carrier", carrier),
			attribute.String("courier.operation", operation),
		),
	)
}

// EndSpan records err on the span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// NewHTTPError classifies a non-2xx provider response.
func NewHTTPError(carrier string, status int, message string) *CourierError {
	if message == "" {
		message = FallbackMessage
	}
	e := NewCourierError(carrier, fmt.Sprintf("HTTP_%d", status), message).WithStatusCode(status)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Code = "UNAUTHORIZED"
		e.Cause = ErrAuthenticationFailed
	case status == http.StatusNotFound:
		e.Code = "NOT_FOUND"
		e.Cause = ErrOrderNotFound
	case status == http.StatusTooManyRequests:
		e.Code = "RATE_LIMITED"
		e.Cause = ErrRateLimitExceeded
		e.Retryable = true
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e.Code = "INVALID_REQUEST"
		e.Cause = ErrInvalidRequest
	case status >= http.StatusInternalServerError:
		e.Code = "SERVICE_UNAVAILABLE"
		e.Cause = ErrServiceUnavailable
		e.Retryable = true
	}
	return e
}

// NewTransportError wraps a failure to reach the provider at all.
func NewTransportError(carrier string, err error) *CourierError {
	return NewCourierError(carrier, "TRANSPORT", FallbackMessage).
		WithCause(fmt.Errorf("%w: %v", ErrServiceUnavailable, err)).
		WithRetryable(true)
}
