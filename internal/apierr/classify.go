package apierr

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alnah/go-edgecli/internal/format"
	"github.com/alnah/go-edgecli/internal/request"
)

// Branch identifies which normalization rule produced an Outcome.
type Branch int

// Normalization branches, in evaluation order.
const (
	// BranchStructured: the error carried a JSON object body.
	BranchStructured Branch = iota + 1
	// BranchNoError: no error value, but the response status was not a success.
	BranchNoError
	// BranchIncomplete: the error has no response section or no status.
	BranchIncomplete
	// BranchRawBody: the error has a status but no usable body object.
	BranchRawBody
)

// commonErrMsg prefixes diagnostics for failures without a usable error body.
const commonErrMsg = "Failed to retrieve the error response. "

// Outcome is the normalized form of one failed call.
type Outcome struct {
	Branch Branch
	Err    error
}

// Diagnostic returns the log line accompanying the outcome, or "" for
// structured errors which need none. method, path and body give context
// for raw-body failures.
func (o Outcome) Diagnostic(method, path, body string) string {
	var m *MalformedError
	if !errors.As(o.Err, &m) {
		return ""
	}
	switch o.Branch {
	case BranchNoError:
		return commonErrMsg + fmt.Sprintf("No error object, but got status code %d", m.Status)
	case BranchIncomplete:
		return commonErrMsg + fmt.Sprintf("Got error: %s, but error response section is incomplete", prettyError(m.Err))
	case BranchRawBody:
		return fmt.Sprintf("Got error code: %d calling %s %s\n%s", m.Status, method, path, body)
	default:
		return ""
	}
}

// Classify normalizes a failed call. err is the transport error (possibly
// nil), resp the last-seen response (possibly nil) and body the raw
// response body. Exactly one branch applies; Classify never panics on
// missing fields.
func Classify(err error, resp *request.Response, body string) Outcome {
	var te *TransportError
	hasTransport := errors.As(err, &te) && te != nil

	if hasTransport && te.Response != nil {
		if data, ok := te.Response.Data.(map[string]any); ok {
			apiErr := &APIError{
				Status:  te.Response.Status,
				Payload: data,
			}
			if te.Response.Header != nil {
				apiErr.TraceID = te.Response.Header.Get(TraceIDHeader)
			}
			return Outcome{Branch: BranchStructured, Err: apiErr}
		}
	}

	if err == nil {
		m := &MalformedError{Raw: resp}
		if resp != nil {
			m.Status = resp.StatusCode
		}
		return Outcome{Branch: BranchNoError, Err: m}
	}

	if !hasTransport || te.Response == nil || te.Response.Status == 0 {
		return Outcome{Branch: BranchIncomplete, Err: &MalformedError{Raw: err, Err: err}}
	}

	return Outcome{
		Branch: BranchRawBody,
		Err:    &MalformedError{Raw: body, Status: te.Response.Status},
	}
}

// prettyError renders err as indented JSON, using its own encoding when it
// has one.
func prettyError(err error) string {
	if err == nil {
		return "null"
	}
	if _, ok := err.(json.Marshaler); ok {
		return format.JSON(err)
	}
	return format.JSON(map[string]any{"message": err.Error()})
}
