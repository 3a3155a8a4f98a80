package substream

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadWithinBounds(t *testing.T) {
	src := bytes.NewReader([]byte("0123456789"))
	s := New(src, 2, 4) // "2345"

	out := make([]byte, 4)
	n, err := s.Read(out)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, "2345", string(out))
}

func TestShortReadAtEnd(t *testing.T) {
	src := bytes.NewReader([]byte("0123456789"))
	s := New(src, 2, 4)

	out := make([]byte, 10)
	n, err := s.Read(out)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	n, err = s.Read(out)
	require.Equal(t, 0, n)
	require.Equal(t, io.EOF, err)
	require.Equal(t, int64(4), s.Position())
}

func TestSeekOutOfRange(t *testing.T) {
	src := bytes.NewReader([]byte("0123456789"))
	s := New(src, 0, 5)

	_, err := s.Seek(6, io.SeekStart)
	require.Error(t, err)
}
