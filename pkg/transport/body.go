package transport

import "fmt"

// DefaultChunkSize bounds each blocking body read.
const DefaultChunkSize = 8192

// ReadError reports a stream-level failure before any body bytes arrived.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("body-read: failed to read response body: %v", e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// ReadBody drains a response body stream in bounded blocking reads of
// chunkSize bytes until a zero-length read signals end-of-stream, and
// concatenates the chunks in arrival order.
//
// If a read fails mid-stream the bytes accumulated so far are returned as
// the final body, provided any were read at all; a failure with nothing
// accumulated propagates as *ReadError. Some transports signal completion
// via error rather than a clean zero-length read, and this tie-break must
// hold: non-empty-so-far wins over raising.
func ReadBody(s BodyStream, chunkSize int) ([]byte, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	var body []byte
	for {
		chunk, err := s.Read(chunkSize)
		if err != nil {
			if len(body) > 0 {
				return body, nil
			}
			return nil, &ReadError{Err: err}
		}
		if len(chunk) == 0 {
			return body, nil
		}
		body = append(body, chunk...)
	}
}
