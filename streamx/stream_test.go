package streamx

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenRead(t *testing.T) {
	s := NewStream[int](1)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, 7))
	v, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestCloseThenReadDrainsThenEOF(t *testing.T) {
	s := NewStream[int](2)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, 1))
	require.NoError(t, s.Close())

	v, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = s.Read(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriteAfterCloseFails(t *testing.T) {
	s := NewStream[int]()
	ctx := context.Background()
	require.NoError(t, s.Close())

	err := s.Write(ctx, 1)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDoubleCloseFails(t *testing.T) {
	s := NewStream[int]()
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Close(), ErrClosed)
}

func TestReadRespectsContextCancellation(t *testing.T) {
	s := NewStream[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.Read(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
