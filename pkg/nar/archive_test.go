package nar

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/csoarchive/csoarchive/pkg/archiveerr"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.nar")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestOpenRejectsBadMagic(t *testing.T) {
	data := make([]byte, 16)
	binary.LittleEndian.PutUint32(data[0:4], 0xDEADBEEF)
	binary.LittleEndian.PutUint32(data[4:8], versionValue)

	path := writeTempFile(t, data)
	_, err := Open(path)
	require.Error(t, err)
	require.True(t, archiveerr.Is(err, archiveerr.InvalidMagic))
}

func TestOpenRejectsBadVersion(t *testing.T) {
	data := make([]byte, 16)
	binary.LittleEndian.PutUint32(data[0:4], magicValue)
	binary.LittleEndian.PutUint32(data[4:8], 0x00000002)

	path := writeTempFile(t, data)
	_, err := Open(path)
	require.Error(t, err)
	require.True(t, archiveerr.Is(err, archiveerr.InvalidVersion))
}

func TestOpenRejectsTruncatedFile(t *testing.T) {
	path := writeTempFile(t, []byte{1, 2, 3})
	_, err := Open(path)
	require.Error(t, err)
}
