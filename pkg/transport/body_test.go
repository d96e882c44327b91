package transport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedStream replays a fixed sequence of reads. A nil byte slice with
// a non-nil error simulates a stream-level failure; an empty non-nil slice
// is the end-of-stream signal.
type scriptedStream struct {
	reads  []scriptedRead
	pos    int
	closed bool
}

type scriptedRead struct {
	data []byte
	err  error
}

func (s *scriptedStream) Read(max int) ([]byte, error) {
	if s.pos >= len(s.reads) {
		return nil, nil
	}
	r := s.reads[s.pos]
	s.pos++
	return r.data, r.err
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

func TestReadBody_ConcatenatesChunksUntilEmptyRead(t *testing.T) {
	s := &scriptedStream{reads: []scriptedRead{
		{data: []byte("ab")},
		{data: []byte("cd")},
		{data: []byte{}},
	}}

	body, err := ReadBody(s, 8192)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), body)
}

func TestReadBody_PartialBodySurvivesStreamError(t *testing.T) {
	s := &scriptedStream{reads: []scriptedRead{
		{data: []byte("ab")},
		{err: errors.New("connection reset")},
	}}

	body, err := ReadBody(s, 8192)
	require.NoError(t, err, "non-empty accumulation wins over raising")
	assert.Equal(t, []byte("ab"), body)
}

func TestReadBody_ErrorWithNothingAccumulated(t *testing.T) {
	streamErr := errors.New("connection reset")
	s := &scriptedStream{reads: []scriptedRead{
		{err: streamErr},
	}}

	body, err := ReadBody(s, 8192)
	require.Error(t, err)
	assert.Nil(t, body)

	var re *ReadError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, re.Err, streamErr)
}

func TestReadBody_EmptyBody(t *testing.T) {
	s := &scriptedStream{reads: []scriptedRead{
		{data: []byte{}},
	}}

	body, err := ReadBody(s, 8192)
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestReadBody_DefaultsChunkSize(t *testing.T) {
	s := &scriptedStream{reads: []scriptedRead{
		{data: []byte("x")},
		{data: []byte{}},
	}}

	body, err := ReadBody(s, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), body)
}
