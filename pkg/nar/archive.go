// Package nar reads the NAR (Nexon Archive) container format: a trailer
// pointer to a BZip2+XOR-obfuscated directory, and per-entry payloads that
// are raw, XOR-encoded, or XOR-encoded-and-LZ-compressed.
package nar

import (
	"bytes"
	"compress/bzip2"
	"encoding/binary"
	"io"
	"os"
	"sync"
	"time"
	"unicode/utf16"

	"github.com/csoarchive/csoarchive/pkg/archiveerr"
)

const (
	magicValue      = 5390670    // 0x0052414E, "NAR\0" little-endian
	versionValue    = 16777216   // 0x01000000
	obfuscationXor  = 1081496863 // 0x4076551F
	directoryHeader = 20         // version(4) + 12 reserved + count(4)
)

// Archive owns a seekable NAR file and the directory parsed from its
// trailer. It is immutable after Open; entries are returned in directory
// order. Concurrent extractions serialize through mu, since the underlying
// file handle is stateful (spec §5).
type Archive struct {
	f       *os.File
	src     io.ReaderAt
	length  int64
	entries []*Entry
	byPath  map[string]*Entry
	mu      sync.Mutex
}

// Open validates a NAR file's magic and trailer, decodes its directory, and
// returns an Archive ready for entry extraction. The returned Archive must
// be closed with Close when no longer needed.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	a := &Archive{f: f, src: f}
	if err := a.load(); err != nil {
		f.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) load() error {
	info, err := a.f.Stat()
	if err != nil {
		return err
	}
	a.length = info.Size()

	var head [8]byte
	if _, err := a.f.ReadAt(head[:], 0); err != nil {
		return archiveerr.Wrap("nar.Open", archiveerr.Truncated, err)
	}
	if int32(le32(head[0:4])) != magicValue {
		return archiveerr.New("nar.Open", archiveerr.InvalidMagic)
	}
	if int32(le32(head[4:8])) != versionValue {
		return archiveerr.New("nar.Open", archiveerr.InvalidVersion)
	}

	var tailMagic [4]byte
	if _, err := a.f.ReadAt(tailMagic[:], a.length-4); err != nil {
		return archiveerr.Wrap("nar.Open", archiveerr.Truncated, err)
	}
	if int32(le32(tailMagic[:])) != magicValue {
		return archiveerr.New("nar.Open", archiveerr.InvalidMagic)
	}

	var obf [4]byte
	if _, err := a.f.ReadAt(obf[:], a.length-8); err != nil {
		return archiveerr.Wrap("nar.Open", archiveerr.Truncated, err)
	}
	headerSize := int64(le32(obf[:]) ^ obfuscationXor)
	if headerSize <= 0 || headerSize > a.length-8 {
		return archiveerr.New("nar.Open", archiveerr.OutOfRange)
	}

	headerStart := a.length - 8 - headerSize
	obfuscated := make([]byte, headerSize)
	if _, err := a.f.ReadAt(obfuscated, headerStart); err != nil {
		return archiveerr.Wrap("nar.Open", archiveerr.Truncated, err)
	}
	for i := range obfuscated {
		obfuscated[i] ^= headerXor[i&15]
	}

	decompressed, err := io.ReadAll(bzip2.NewReader(bytes.NewReader(obfuscated)))
	if err != nil {
		return archiveerr.Wrap("nar.Open", archiveerr.Truncated, err)
	}

	return a.parseDirectory(decompressed)
}

func (a *Archive) parseDirectory(data []byte) error {
	if len(data) < directoryHeader {
		return archiveerr.New("nar.parseDirectory", archiveerr.Truncated)
	}
	if int32(le32(data[0:4])) != 1 {
		return archiveerr.New("nar.parseDirectory", archiveerr.InvalidVersion)
	}
	count := le32(data[16:20])

	a.entries = make([]*Entry, 0, count)
	a.byPath = make(map[string]*Entry, count)

	pos := directoryHeader
	for i := uint32(0); i < count; i++ {
		e, next, err := parseEntry(data, pos)
		if err != nil {
			return err
		}
		e.archive = a
		a.entries = append(a.entries, e)
		a.byPath[e.Path] = e
		pos = next
	}
	return nil
}

func parseEntry(data []byte, pos int) (*Entry, int, error) {
	if pos+2 > len(data) {
		return nil, 0, archiveerr.New("nar.parseEntry", archiveerr.Truncated)
	}
	codeUnits := int(binary.LittleEndian.Uint16(data[pos : pos+2]))
	pos += 2

	pathBytes := codeUnits * 2
	if pos+pathBytes > len(data) {
		return nil, 0, archiveerr.New("nar.parseEntry", archiveerr.Truncated)
	}
	units := make([]uint16, codeUnits)
	for i := 0; i < codeUnits; i++ {
		units[i] = binary.LittleEndian.Uint16(data[pos+i*2 : pos+i*2+2])
	}
	path := string(utf16.Decode(units))
	pos += pathBytes

	// storedType, offset, storedSize, extractedSize, lastModified, crc32:
	// six 4-byte fields.
	if pos+24 > len(data) {
		return nil, 0, archiveerr.New("nar.parseEntry", archiveerr.Truncated)
	}

	storedType := StoredType(le32(data[pos : pos+4]))
	offset := int64(le32(data[pos+4 : pos+8]))
	storedSize := int64(le32(data[pos+8 : pos+12]))
	extractedSize := int64(le32(data[pos+12 : pos+16]))
	modified := int64(int32(le32(data[pos+16 : pos+20])))
	checksum := le32(data[pos+20 : pos+24])
	pos += 24

	if storedSize < 0 || extractedSize < 0 {
		return nil, 0, archiveerr.New("nar.parseEntry", archiveerr.OutOfRange)
	}
	if storedType == Raw && extractedSize != storedSize {
		return nil, 0, archiveerr.New("nar.parseEntry", archiveerr.OutOfRange)
	}

	return &Entry{
		Path:          path,
		StoredType:    storedType,
		Offset:        offset,
		StoredSize:    storedSize,
		ExtractedSize: extractedSize,
		ModTime:       time.Unix(modified, 0).UTC(),
		CRC32:         checksum,
	}, pos, nil
}

// Entries returns the archive's entries in directory order.
func (a *Archive) Entries() []*Entry { return a.entries }

// EntryByPath looks up an entry by its recorded path. It returns nil if no
// entry matches.
func (a *Archive) EntryByPath(path string) *Entry { return a.byPath[path] }

// VerifyAll runs Verify across every entry and returns the path of the
// first entry whose CRC-32 does not match, if any. An error on one entry's
// I/O does not stop verification of the rest, matching the per-entry
// independence the core guarantees (spec §7); if no CRC-32 mismatch is
// found, the path and error of the first entry that failed to read are
// returned.
func (a *Archive) VerifyAll() (badPath string, err error) {
	var errPath string
	var firstErr error
	for _, e := range a.entries {
		ok, verr := e.Verify()
		if verr != nil {
			if firstErr == nil {
				errPath, firstErr = e.Path, verr
			}
			continue
		}
		if !ok {
			return e.Path, nil
		}
	}
	return errPath, firstErr
}

// Close releases the archive's underlying file handle.
func (a *Archive) Close() error { return a.f.Close() }

func le32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
