// Package httpdriver implements the transport capability on top of
// net/http. It is the host side of the pipeline: the core library only
// drives the transport.Capability interface and never touches net/http.
package httpdriver

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/mrchypark/nalssi/pkg/transport"
)

// Driver submits requests over a shared *http.Client. The zero timeout
// policy lives with the caller: Wait honors whatever deadline its context
// carries and blocks without bound otherwise.
type Driver struct {
	client *http.Client
	logger log.Logger
}

// New creates a Driver. A nil client falls back to http.DefaultClient.
func New(client *http.Client, logger log.Logger) *Driver {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Driver{client: client, logger: logger}
}

var _ transport.Capability = (*Driver)(nil)

// Submit builds the concrete http.Request from the spec and starts the
// round trip in the background. The returned handle tracks the single
// in-flight request; the outcome is delivered through Wait.
func (d *Driver) Submit(ctx context.Context, spec *transport.RequestSpec) (transport.Handle, error) {
	u := &url.URL{Scheme: spec.Scheme, Host: spec.Authority}
	target := u.String() + spec.PathWithQuery

	// The handle owns the request lifetime; detach from the submit
	// context so Wait controls cancellation.
	reqCtx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(reqCtx, spec.Method, target, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	for _, h := range spec.Headers {
		req.Header.Add(h.Name, string(h.Value))
	}

	h := &handle{
		cancel: cancel,
		done:   make(chan transport.Outcome, 1),
	}
	go func() {
		resp, err := d.client.Do(req)
		if err != nil {
			level.Debug(d.logger).Log("msg", "round trip failed", "authority", spec.Authority, "err", err)
			h.done <- transport.TransportFailure(err.Error())
			return
		}
		h.done <- transport.Ready(&transport.Response{
			Status: resp.StatusCode,
			Body:   &bodyStream{rc: resp.Body},
		})
	}()
	return h, nil
}

type handle struct {
	cancel context.CancelFunc
	done   chan transport.Outcome
	waited bool
}

// Wait blocks until the round trip completes or ctx expires. A deadline
// expiry surfaces as a transport-level failure, never as a status.
func (h *handle) Wait(ctx context.Context) transport.Outcome {
	if h.waited {
		return transport.Unavailable()
	}
	h.waited = true
	select {
	case out := <-h.done:
		return out
	case <-ctx.Done():
		h.cancel()
		return transport.TransportFailure(ctx.Err().Error())
	}
}

// Close cancels the request if it is still in flight and releases any
// response that arrived after the wait gave up.
func (h *handle) Close() {
	h.cancel()
	select {
	case out := <-h.done:
		if resp, err := out.Response(); err == nil && resp.Body != nil {
			resp.Body.Close()
		}
	default:
	}
}

// bodyStream adapts resp.Body to the bounded blocking read contract:
// io.EOF becomes the zero-length end-of-stream read.
type bodyStream struct {
	rc io.ReadCloser
}

func (b *bodyStream) Read(max int) ([]byte, error) {
	buf := make([]byte, max)
	n, err := b.rc.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return nil, nil
}

func (b *bodyStream) Close() error {
	return b.rc.Close()
}
