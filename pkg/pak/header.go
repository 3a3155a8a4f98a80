package pak

import (
	"encoding/binary"

	"github.com/csoarchive/csoarchive/pkg/archiveerr"
)

const (
	// supportedVersion is the only header version this reader accepts.
	supportedVersion = 2
	// headerSize is the fixed, already-decrypted header length: a 4-byte
	// checksum, 1-byte version, 4-byte entry count, and 3 pad bytes.
	headerSize = 12
)

// header is PAK's 12-byte fixed header. version + entryCount must equal
// checksum, or the archive is rejected (spec §4.1's sibling invariant for
// PAK, restated in §4.9).
type header struct {
	checksum   uint32
	version    byte
	entryCount uint32
}

func parseHeader(decrypted []byte) (header, error) {
	if len(decrypted) < headerSize {
		return header{}, archiveerr.New("pak.parseHeader", archiveerr.Truncated)
	}
	h := header{
		checksum:   binary.LittleEndian.Uint32(decrypted[0:4]),
		version:    decrypted[4],
		entryCount: binary.LittleEndian.Uint32(decrypted[5:9]),
	}
	if h.version != supportedVersion {
		return header{}, archiveerr.New("pak.parseHeader", archiveerr.InvalidVersion)
	}
	if uint32(h.version)+h.entryCount != h.checksum {
		return header{}, archiveerr.New("pak.parseHeader", archiveerr.InvalidChecksum)
	}
	return h, nil
}
