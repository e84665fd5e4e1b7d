package sentinel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/angeloszaimis/api-sentinel/internal/circuitbreaker"
)

// FailureStatus is recorded for failed calls whose status cannot be determined,
// including calls rejected by an open circuit.
const FailureStatus = http.StatusInternalServerError

// ErrCircuitOpen is returned by Call when the endpoint's breaker is open.
var ErrCircuitOpen = circuitbreaker.ErrCircuitOpen

type BreakerState = circuitbreaker.State

const (
	BreakerClosed   = circuitbreaker.StateClosed
	BreakerOpen     = circuitbreaker.StateOpen
	BreakerHalfOpen = circuitbreaker.StateHalfOpen
)

// Request identifies a guarded call.
type Request struct {
	URL    string
	Method string
}

// StatusCoder is implemented by results and errors that carry an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// StatusError marks a response the breaker should count as a failure.
type StatusError struct {
	Response *http.Response
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sentinel: upstream responded %s", e.Response.Status)
}

func (e *StatusError) StatusCode() int {
	return e.Response.StatusCode
}

// Call runs fn through the breaker of req's endpoint and records the outcome,
// whether fn succeeded, failed or was rejected. The error from fn (or
// ErrCircuitOpen) is returned unchanged.
func Call[T any](ctx context.Context, s *Sentinel, req Request, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()

	v, err := circuitbreaker.Execute(s.breakers, req.URL, func() (T, error) {
		return fn(ctx)
	})

	s.Record(req.URL, req.Method, statusOf(v, err), time.Since(start))
	return v, err
}

func statusOf(v any, err error) int {
	if err != nil {
		var sc StatusCoder
		if errors.As(err, &sc) {
			return sc.StatusCode()
		}
		return FailureStatus
	}

	switch r := v.(type) {
	case *http.Response:
		if r != nil {
			return r.StatusCode
		}
	case StatusCoder:
		return r.StatusCode()
	}
	return http.StatusOK
}

func normalizeMethod(method string) string {
	if method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(method)
}
