// Package transport defines the outbound HTTP capability the weather
// pipeline drives. The core library never implements the network side
// itself; it builds a RequestSpec, submits it to a Capability supplied by
// the host, waits on the returned Handle and consumes the response body
// through bounded blocking reads. See the httpdriver subpackage for the
// net/http backed implementation.
package transport

import "context"

// Method and scheme are fixed for the whole pipeline. The request builder
// never produces anything but an HTTPS GET.
const (
	MethodGet   = "GET"
	SchemeHTTPS = "https"
)

// Header is a single ordered header field. Values are raw bytes, matching
// what goes on the wire. Order is insertion order and is preserved so that
// request assembly stays deterministic under test.
type Header struct {
	Name  string
	Value []byte
}

// RequestSpec describes one outbound request. It is immutable once built
// and owned solely by the Submit call it is passed to; callers must not
// reuse it across submissions.
type RequestSpec struct {
	Method        string
	Scheme        string
	Authority     string
	PathWithQuery string
	Headers       []Header
}

// NewRequestSpec assembles a GET-over-HTTPS request spec. This is pure
// data assembly and cannot fail: the path and query must already be
// percent-encoded by the caller.
func NewRequestSpec(authority, pathWithQuery string, headers []Header) *RequestSpec {
	return &RequestSpec{
		Method:        MethodGet,
		Scheme:        SchemeHTTPS,
		Authority:     authority,
		PathWithQuery: pathWithQuery,
		Headers:       headers,
	}
}

// Capability is the host-provided facility for issuing one outbound HTTPS
// request. Submit opens the connection and returns a Handle tracking the
// single in-flight request; at most one outstanding request is tracked per
// call.
type Capability interface {
	Submit(ctx context.Context, spec *RequestSpec) (Handle, error)
}

// Handle tracks one in-flight request. Wait blocks the calling goroutine
// until the transport has produced an outcome; it is consumed exactly once.
// Close releases transport-level resources and must be called on every
// exit path, including error paths.
type Handle interface {
	Wait(ctx context.Context) Outcome
	Close()
}

// BodyStream is a one-shot byte stream for a response body. Read performs
// a bounded blocking read returning at most max bytes; a zero-length,
// nil-error read is the sole end-of-stream signal. The stream is not
// restartable.
type BodyStream interface {
	Read(max int) ([]byte, error)
	Close() error
}

// Response is a validated incoming response. Body is a one-shot consumable
// resource: once reading begins the response is considered drained.
type Response struct {
	Status int
	Body   BodyStream
}
