package dictionary

import (
	"testing"

	"github.com/csoarchive/csoarchive/pkg/archiveerr"
	"github.com/stretchr/testify/require"
)

func TestAppendThenCopy(t *testing.T) {
	var d Dictionary
	d.Append([]byte("hello world"), 0, 11)

	out := make([]byte, 5)
	require.NoError(t, d.Copy(11, out, 0, 5))
	require.Equal(t, "hello", string(out))
}

func TestCopyOverlappingSelfReference(t *testing.T) {
	var d Dictionary
	d.Append([]byte("ab"), 0, 2)

	// distance 2, length 6: overlapping copy must repeat "ab" (RLE-like).
	out := make([]byte, 6)
	for i := 0; i < 6; i++ {
		require.NoError(t, d.Copy(2, out, i, 1))
		d.Append(out, i, 1)
	}
	require.Equal(t, "ababab", string(out))
}

func TestCopyOutOfRange(t *testing.T) {
	var d Dictionary
	d.Append([]byte("x"), 0, 1)

	err := d.Copy(2, make([]byte, 1), 0, 1)
	require.Error(t, err)
	require.True(t, archiveerr.Is(err, archiveerr.OutOfRange))
}

func TestAppendWraps(t *testing.T) {
	var d Dictionary
	big := make([]byte, Capacity+10)
	for i := range big {
		big[i] = byte(i)
	}
	d.Append(big, 0, len(big))

	require.Equal(t, Capacity, d.Count())

	out := make([]byte, 1)
	require.NoError(t, d.Copy(1, out, 0, 1))
	require.Equal(t, big[len(big)-1], out[0])
}
