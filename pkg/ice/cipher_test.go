package ice

import (
	"testing"

	"github.com/csoarchive/csoarchive/pkg/archiveerr"
	"github.com/stretchr/testify/require"
)

// TODO: add a pinned reference vector for thin ICE (level 0) once one can be
// verified against a known-good implementation; round-tripping alone can't
// catch a self-consistent but non-compliant schedule.

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		level int
		key   []byte
	}{
		{"thin-ice", 0, []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{"level-1", 1, []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{"level-2", 2, make([]byte, 16)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for i := range tc.key {
				tc.key[i] = byte(i*7 + 3)
			}
			c, err := NewCipher(tc.level, tc.key)
			require.NoError(t, err)

			plain := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD, 0xEF}
			cipherText := make([]byte, 8)
			c.Encrypt(cipherText, plain)

			decoded := make([]byte, 8)
			c.Decrypt(decoded, cipherText)

			require.Equal(t, plain, decoded)
			require.NotEqual(t, plain, cipherText)
		})
	}
}

func TestNewCipherInvalidKeySize(t *testing.T) {
	_, err := NewCipher(1, []byte{1, 2, 3})
	require.Error(t, err)
	require.True(t, archiveerr.Is(err, archiveerr.InvalidKeySize))
}

func TestTransformECBRejectsUnalignedLength(t *testing.T) {
	c, err := NewCipher(0, make([]byte, 8))
	require.NoError(t, err)

	err = c.TransformECB(make([]byte, 9), make([]byte, 9), false)
	require.Error(t, err)
	require.True(t, archiveerr.Is(err, archiveerr.Truncated))
}

func TestTransformECBMultiBlock(t *testing.T) {
	c, err := NewCipher(0, []byte{9, 8, 7, 6, 5, 4, 3, 2})
	require.NoError(t, err)

	plain := make([]byte, 24)
	for i := range plain {
		plain[i] = byte(i)
	}

	encoded := make([]byte, len(plain))
	require.NoError(t, c.TransformECB(encoded, plain, false))

	decoded := make([]byte, len(plain))
	require.NoError(t, c.TransformECB(decoded, encoded, true))

	require.Equal(t, plain, decoded)
}
