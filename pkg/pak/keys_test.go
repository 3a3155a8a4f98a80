package pak

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilenameSumsASCII(t *testing.T) {
	// "AB" -> code units 65, 66. S = 131. S' = sum(c + 2c) = 3*131 = 393.
	s, sPrime := filenameSums("AB")
	require.Equal(t, 131, s)
	require.Equal(t, 393, sPrime)
}

func TestDeriveHeaderKeyDeterministic(t *testing.T) {
	k := []byte("test.pak" + embeddedKey)
	a := deriveHeaderKey(k)
	b := deriveHeaderKey(k)
	require.Equal(t, a, b)

	other := deriveHeaderKey([]byte("other.pak" + embeddedKey))
	require.NotEqual(t, a, other)
}

func TestDeriveEntriesKeyDiffersFromHeaderKey(t *testing.T) {
	k := []byte("test.pak" + embeddedKey)
	require.NotEqual(t, deriveHeaderKey(k), deriveEntriesKey(k))
}

func TestDeriveDataKeyVariesByPath(t *testing.T) {
	var base [16]byte
	a := deriveDataKey("a.bin", base)
	b := deriveDataKey("b.bin", base)
	require.NotEqual(t, a, b)
}
