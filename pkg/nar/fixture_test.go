package nar

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	dsbzip2 "github.com/dsnet/compress/bzip2"
	"github.com/stretchr/testify/require"
)

// buildNarFixture assembles a minimal, fully valid NAR file in memory: a
// magic+version prefix, one Raw entry's payload, and a BZip2-compressed,
// XOR-obfuscated trailer directory pointing back at it. It round-trips
// through a real encoder (dsnet/compress/bzip2, test-only) so this exercises
// the same BZip2 framing the production decode path (compress/bzip2) has to
// read.
func buildNarFixture(t *testing.T, entryPath string, payload []byte) []byte {
	t.Helper()

	const payloadOffset = 8
	units := utf16.Encode([]rune(entryPath))

	dir := make([]byte, directoryHeader)
	binary.LittleEndian.PutUint32(dir[0:4], 1)   // directory version
	binary.LittleEndian.PutUint32(dir[16:20], 1) // entry count

	entry := make([]byte, 2+len(units)*2+24)
	pos := 0
	binary.LittleEndian.PutUint16(entry[pos:], uint16(len(units)))
	pos += 2
	for _, u := range units {
		binary.LittleEndian.PutUint16(entry[pos:], u)
		pos += 2
	}
	binary.LittleEndian.PutUint32(entry[pos:], uint32(Raw))
	pos += 4
	binary.LittleEndian.PutUint32(entry[pos:], payloadOffset)
	pos += 4
	binary.LittleEndian.PutUint32(entry[pos:], uint32(len(payload)))
	pos += 4
	binary.LittleEndian.PutUint32(entry[pos:], uint32(len(payload)))
	pos += 4
	binary.LittleEndian.PutUint32(entry[pos:], 0) // lastModified
	pos += 4
	binary.LittleEndian.PutUint32(entry[pos:], crc32.ChecksumIEEE(payload))
	pos += 4
	require.Equal(t, len(entry), pos)

	plainDirectory := append(dir, entry...)

	var compressed bytes.Buffer
	bw := dsbzip2.NewWriter(&compressed)
	_, err := bw.Write(plainDirectory)
	require.NoError(t, err)
	require.NoError(t, bw.Close())

	obfuscated := make([]byte, compressed.Len())
	copy(obfuscated, compressed.Bytes())
	for i := range obfuscated {
		obfuscated[i] ^= headerXor[i&15]
	}

	buf := make([]byte, 0, payloadOffset+len(payload)+len(obfuscated)+8)
	var magicVersion [8]byte
	binary.LittleEndian.PutUint32(magicVersion[0:4], magicValue)
	binary.LittleEndian.PutUint32(magicVersion[4:8], versionValue)
	buf = append(buf, magicVersion[:]...)
	buf = append(buf, payload...)
	buf = append(buf, obfuscated...)

	var tail [8]byte
	binary.LittleEndian.PutUint32(tail[0:4], uint32(len(obfuscated))^obfuscationXor)
	binary.LittleEndian.PutUint32(tail[4:8], magicValue)
	buf = append(buf, tail[:]...)

	return buf
}

func writeNarFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.nar")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestOpenAndVerifyRoundTrip(t *testing.T) {
	payload := []byte("sample raw entry payload for verification testing")
	data := buildNarFixture(t, "data/entry.bin", payload)

	a, err := Open(writeNarFile(t, data))
	require.NoError(t, err)
	defer a.Close()

	require.Len(t, a.Entries(), 1)
	e := a.EntryByPath("data/entry.bin")
	require.NotNil(t, e)

	var out bytes.Buffer
	require.NoError(t, e.Extract(&out))
	require.Equal(t, payload, out.Bytes())

	ok, err := e.Verify()
	require.NoError(t, err)
	require.True(t, ok)

	badPath, err := a.VerifyAll()
	require.NoError(t, err)
	require.Equal(t, "", badPath)
}

func TestVerifyFlipsFalseOnMutatedPayload(t *testing.T) {
	payload := []byte("sample raw entry payload for verification testing")
	data := buildNarFixture(t, "data/entry.bin", payload)

	mutated := make([]byte, len(data))
	copy(mutated, data)
	mutated[8] ^= 0xFF // flip one payload byte; directory CRC still matches the original

	a, err := Open(writeNarFile(t, mutated))
	require.NoError(t, err)
	defer a.Close()

	e := a.EntryByPath("data/entry.bin")
	require.NotNil(t, e)

	ok, err := e.Verify()
	require.NoError(t, err)
	require.False(t, ok)

	badPath, err := a.VerifyAll()
	require.NoError(t, err)
	require.Equal(t, "data/entry.bin", badPath)
}
