package nalssi

import (
	"errors"
	"fmt"

	"github.com/mrchypark/nalssi/pkg/transport"
)

// ErrMissingAPIKey is the configuration failure surfaced when no
// credential was configured and the environment carries none. Its text is
// the exact user-visible message and must not change.
var ErrMissingAPIKey = errors.New("OPENWEATHER_API_KEY environment variable not set")

// Kind enumerates every failure class the pipeline can produce. Each kind
// has one formatting function; classification never relies on runtime type
// inspection of arbitrary values.
type Kind int

const (
	KindConfig Kind = iota
	KindTransportUnavailable
	KindTransportFailed
	KindProtocolFailed
	KindHTTPStatus
	KindBodyRead
	KindParse
	KindMissingField
)

// FetchError is the single error type crossing the pipeline layers. The
// payload fields are populated per kind: Detail for transport and parse
// failures, Code for protocol failures, Status for HTTP status failures,
// Field for missing payload fields.
type FetchError struct {
	Kind   Kind
	Detail string
	Code   string
	Status int
	Field  string
	Err    error
}

var kindFormats = map[Kind]func(*FetchError) string{
	KindConfig:               func(e *FetchError) string { return e.Detail },
	KindTransportUnavailable: func(e *FetchError) string { return "transport: no outcome produced" },
	KindTransportFailed:      func(e *FetchError) string { return fmt.Sprintf("transport: request failed: %s", e.Detail) },
	KindProtocolFailed:       func(e *FetchError) string { return fmt.Sprintf("protocol: request failed with error code: %s", e.Code) },
	KindHTTPStatus:           func(e *FetchError) string { return fmt.Sprintf("status: unexpected HTTP status %d", e.Status) },
	KindBodyRead:             func(e *FetchError) string { return fmt.Sprintf("body-read: failed to read response body: %v", e.Err) },
	KindParse:                func(e *FetchError) string { return fmt.Sprintf("parse: failed to parse weather payload: %v", e.Err) },
	KindMissingField:         func(e *FetchError) string { return fmt.Sprintf("missing-field: missing field %q", e.Field) },
}

func (e *FetchError) Error() string {
	if f, ok := kindFormats[e.Kind]; ok {
		return f(e)
	}
	return fmt.Sprintf("nalssi: unclassified error: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func errParse(err error) *FetchError {
	return &FetchError{Kind: KindParse, Err: err}
}

func errMissingField(field string) *FetchError {
	return &FetchError{Kind: KindMissingField, Field: field}
}

// classify converts a typed transport-layer error into its FetchError
// kind. Errors that are already classified pass through unchanged.
func classify(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, transport.ErrUnavailable) {
		return &FetchError{Kind: KindTransportUnavailable, Err: err}
	}
	var te *transport.TransportError
	if errors.As(err, &te) {
		return &FetchError{Kind: KindTransportFailed, Detail: te.Detail, Err: err}
	}
	var pe *transport.ProtocolError
	if errors.As(err, &pe) {
		return &FetchError{Kind: KindProtocolFailed, Code: pe.Code, Err: err}
	}
	var se *transport.StatusError
	if errors.As(err, &se) {
		return &FetchError{Kind: KindHTTPStatus, Status: se.Status, Err: err}
	}
	var re *transport.ReadError
	if errors.As(err, &re) {
		return &FetchError{Kind: KindBodyRead, Err: re.Err}
	}
	return &FetchError{Kind: KindTransportFailed, Detail: err.Error(), Err: err}
}
