package transport

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned when the wait completed but the transport
// produced no outcome at all.
var ErrUnavailable = errors.New("transport: no outcome produced")

// TransportError reports a failure below the HTTP protocol layer, such as
// a refused connection or an exceeded deadline. A failed transport layer
// carries no valid status.
type TransportError struct {
	Detail string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: request failed: %s", e.Detail)
}

// ProtocolError reports an HTTP protocol level error code from the
// transport, distinct from a well-formed response with a bad status.
type ProtocolError struct {
	Code string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("transport: protocol error: %s", e.Code)
}

// StatusError reports a well-formed response whose status falls outside
// the success range [200, 300).
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status: unexpected HTTP status %d", e.Status)
}

type outcomeState int

const (
	stateUnavailable outcomeState = iota
	stateTransportError
	stateProtocolError
	stateReady
)

// Outcome is the resolved result of one waited request. The transport and
// protocol layers of the underlying result are collapsed into a single
// variant with four states, so call sites unwrap once instead of nesting
// conditionals.
type Outcome struct {
	state  outcomeState
	detail string
	code   string
	resp   *Response
}

// Unavailable builds the outcome for a wait that produced nothing.
func Unavailable() Outcome {
	return Outcome{state: stateUnavailable}
}

// TransportFailure builds the outcome for a transport-level failure.
func TransportFailure(detail string) Outcome {
	return Outcome{state: stateTransportError, detail: detail}
}

// ProtocolFailure builds the outcome for a protocol-level error code.
func ProtocolFailure(code string) Outcome {
	return Outcome{state: stateProtocolError, code: code}
}

// Ready builds the outcome carrying an incoming response.
func Ready(resp *Response) Outcome {
	return Outcome{state: stateReady, resp: resp}
}

// Response unwraps the outcome into a usable response. The order is
// load-bearing: the transport layer, then the protocol layer, must be
// confirmed successful before the status is inspected, because a failed
// outer layer carries no valid status field. Statuses in [200, 300)
// succeed; anything else fails with *StatusError.
func (o Outcome) Response() (*Response, error) {
	switch o.state {
	case stateUnavailable:
		return nil, ErrUnavailable
	case stateTransportError:
		return nil, &TransportError{Detail: o.detail}
	case stateProtocolError:
		return nil, &ProtocolError{Code: o.code}
	}
	if o.resp.Status < 200 || o.resp.Status >= 300 {
		// The body is never consumed on a bad status, release it here.
		if o.resp.Body != nil {
			o.resp.Body.Close()
		}
		return nil, &StatusError{Status: o.resp.Status}
	}
	return o.resp, nil
}
