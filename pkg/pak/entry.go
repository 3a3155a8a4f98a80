package pak

import (
	"github.com/csoarchive/csoarchive/pkg/archiveerr"
	"github.com/csoarchive/csoarchive/pkg/snow"
)

// EntryType selects how an entry's payload is stored and must be decrypted
// before use (spec §4.9 table).
type EntryType uint32

const (
	// Uncompressed entries are copied verbatim.
	Uncompressed EntryType = 0
	// Compressed entries use a compression format this reader does not
	// implement (spec non-goal).
	Compressed EntryType = 1
	// Encrypted entries have only their first aligned 1024-byte window
	// Snow-ciphered; the remainder is stored verbatim.
	Encrypted EntryType = 2
	// EncryptedAgain entries are Snow-ciphered across their full original
	// (decrypted) length.
	EncryptedAgain EntryType = 4
)

func (t EntryType) String() string {
	switch t {
	case Uncompressed:
		return "uncompressed"
	case Compressed:
		return "compressed"
	case Encrypted:
		return "encrypted"
	case EncryptedAgain:
		return "encrypted-again"
	default:
		return "unknown"
	}
}

// Entry describes one file recorded in a PAK entry table.
type Entry struct {
	Path         string
	Unknown      uint32
	Type         EntryType
	Offset       uint32 // in blockAlignment-byte blocks, from the archive's data origin
	OriginalSize uint32
	PackedSize   uint32
	BaseKey      [4]uint32
}

// Unpack decrypts and returns entry's original bytes out of the archive's
// raw data slice, using dataOrigin as the byte offset the entry's
// block-aligned Offset is relative to.
func (e *Entry) Unpack(data []byte, dataOrigin int64) ([]byte, error) {
	start := dataOrigin + int64(e.Offset)*blockAlignment
	end := start + int64(e.PackedSize)
	if start < 0 || end > int64(len(data)) || end < start {
		return nil, archiveerr.New("pak.Entry.Unpack", archiveerr.OutOfRange)
	}
	packed := data[start:end]

	switch e.Type {
	case Uncompressed:
		out := make([]byte, len(packed))
		copy(out, packed)
		return out, nil

	case Encrypted:
		out := make([]byte, len(packed))
		copy(out, packed)
		window := alignUp4(int(e.OriginalSize))
		if window > blockAlignment {
			window = blockAlignment
		}
		if window > len(out) {
			window = len(out)
		}
		key := deriveDataKey(e.Path, baseKeyBytes(e.BaseKey))
		c := snow.NewCipher(key)
		c.Decrypt(out[:window], out[:window])
		return out, nil

	case EncryptedAgain:
		// A fresh Snow cipher keyed with dataKey decrypts OriginalSize
		// bytes (clamped to PackedSize), with its ciphertext consumption
		// rounded up to a 4-byte multiple where the packed region allows;
		// the output is OriginalSize bytes, not the (possibly block-padded)
		// PackedSize.
		window := int(e.OriginalSize)
		if window > len(packed) {
			window = len(packed)
		}
		aligned := alignUp4(window)
		if aligned > len(packed) {
			aligned = len(packed)
		}
		tmp := make([]byte, aligned)
		key := deriveDataKey(e.Path, baseKeyBytes(e.BaseKey))
		snow.NewCipher(key).Decrypt(tmp, packed[:aligned])

		out := make([]byte, window)
		copy(out, tmp[:window])
		return out, nil

	case Compressed:
		return nil, archiveerr.New("pak.Entry.Unpack", archiveerr.UnsupportedType)

	default:
		return nil, archiveerr.New("pak.Entry.Unpack", archiveerr.UnsupportedType)
	}
}

func alignUp4(n int) int {
	return (n + 3) &^ 3
}
