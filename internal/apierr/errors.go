// Package apierr provides the error values produced by the request
// dispatcher. Every failed call is normalized into one of three variants:
// a timeout, a structured API error, or a malformed error that carries the
// raw value it was derived from.
//
// Callers check the variant with errors.Is(err, apierr.ErrTimeout) etc., or
// errors.As to reach the typed value.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alnah/go-edgecli/internal/format"
)

// Sentinel errors for the three normalized variants.
var (
	// ErrTimeout indicates the call did not settle before its deadline.
	ErrTimeout = errors.New("request timeout")

	// ErrAPI indicates the API answered with a structured error body.
	ErrAPI = errors.New("api error")

	// ErrMalformed indicates the failure could not be given structure.
	ErrMalformed = errors.New("malformed error response")
)

// TraceIDHeader is the response header holding the server trace id.
const TraceIDHeader = "X-Trace-Id"

// ErrorResponse is the response section attached to a failed transport call.
// Data holds the decoded error body, or nil when the body was empty or not JSON.
type ErrorResponse struct {
	Status int
	Header http.Header
	Data   any
}

// TransportError is returned by a transport when a call fails.
// Response is nil when no response was received (network failure).
type TransportError struct {
	Err      error
	Response *ErrorResponse
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return e.Err.Error()
	case e.Response != nil:
		return fmt.Sprintf("request failed with status code %d", e.Response.Status)
	default:
		return "transport error"
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MarshalJSON lets diagnostics pretty-print the whole error shape.
func (e *TransportError) MarshalJSON() ([]byte, error) {
	out := map[string]any{"message": e.Error()}
	if e.Response != nil {
		resp := map[string]any{"status": e.Response.Status}
		if len(e.Response.Header) > 0 {
			resp["headers"] = e.Response.Header
		}
		if e.Response.Data != nil {
			resp["data"] = e.Response.Data
		}
		out["response"] = resp
	}
	return []byte(format.JSON(out)), nil
}

// TimeoutError is returned when the deadline elapsed before the call settled.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timed out after %s", format.DurationHuman(e.After))
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// APIError is a structured error body returned by the API, enriched with
// the response status and trace id. Zero Status and empty TraceID mean the
// response did not carry them; they are omitted from the rendered error.
type APIError struct {
	Status  int
	TraceID string
	Payload map[string]any
}

// Fields returns the payload with status and traceId merged in.
// The payload itself is not modified.
func (e *APIError) Fields() map[string]any {
	out := make(map[string]any, len(e.Payload)+2)
	for k, v := range e.Payload {
		out[k] = v
	}
	if e.Status != 0 {
		out["status"] = e.Status
	}
	if e.TraceID != "" {
		out["traceId"] = e.TraceID
	}
	return out
}

// Error returns the pretty-printed error object.
func (e *APIError) Error() string {
	return format.JSON(e.Fields())
}

func (e *APIError) Unwrap() error {
	return ErrAPI
}

// MalformedError surfaces the raw value a failure was derived from when no
// structure could be extracted. Raw is the response, the transport error or
// the response body, depending on what was available. Err is set when Raw
// is itself an error.
type MalformedError struct {
	Raw    any
	Status int
	Err    error
}

func (e *MalformedError) Error() string {
	if s, ok := e.Raw.(string); ok && s != "" {
		return s
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("request failed with status code %d", e.Status)
	}
	return ErrMalformed.Error()
}

// Is reports ErrMalformed so callers need not know about the wrapped cause.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}
