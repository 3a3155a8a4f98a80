package nar

import (
	"hash/crc32"
	"io"
	"time"

	"github.com/csoarchive/csoarchive/pkg/archiveerr"
	"github.com/csoarchive/csoarchive/pkg/substream"
)

// StoredType selects the decode pipeline an entry's payload must be run
// through to recover its original bytes.
type StoredType uint32

const (
	// Raw entries are copied verbatim.
	Raw StoredType = iota
	// Encoded entries are XOR-decoded.
	Encoded
	// EncodedAndCompressed entries are XOR-decoded then LZ-decompressed.
	EncodedAndCompressed
)

func (t StoredType) String() string {
	switch t {
	case Raw:
		return "raw"
	case Encoded:
		return "encoded"
	case EncodedAndCompressed:
		return "encoded+compressed"
	default:
		return "unknown"
	}
}

// Entry describes one file recorded in a NAR archive's directory.
type Entry struct {
	Path          string
	StoredType    StoredType
	Offset        int64 // absolute payload offset in the archive
	StoredSize    int64
	ExtractedSize int64
	ModTime       time.Time
	CRC32         uint32

	archive *Archive
}

// Extract streams the entry's decoded content to w, selecting the pipeline
// named by StoredType (spec §4.7 table). Access to the archive's file
// handle is serialized by the archive's mutex for the duration of the
// extraction, since NAR archives may stream lazily from one shared handle.
func (e *Entry) Extract(w io.Writer) error {
	e.archive.mu.Lock()
	defer e.archive.mu.Unlock()

	r, err := e.pipeline()
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		return archiveerr.Wrap("nar.Entry.Extract", archiveerr.Truncated, err)
	}
	return nil
}

// pipeline builds the reader chain for this entry's StoredType, per the
// table in spec §4.7: Raw is a bare bounded stream, Encoded wraps it in the
// XOR decoder, EncodedAndCompressed further wraps that in the LZ
// decompressor bounded by ExtractedSize.
func (e *Entry) pipeline() (io.Reader, error) {
	if e.Offset < 0 || e.StoredSize < 0 || e.Offset+e.StoredSize > e.archive.length {
		return nil, archiveerr.New("nar.Entry.pipeline", archiveerr.OutOfRange)
	}

	raw := substream.New(e.archive.src, e.Offset, e.StoredSize)

	switch e.StoredType {
	case Raw:
		return raw, nil
	case Encoded:
		return newXorReader(raw, e.Path), nil
	case EncodedAndCompressed:
		return newLZReader(newXorReader(raw, e.Path), e.ExtractedSize), nil
	default:
		return nil, archiveerr.New("nar.Entry.pipeline", archiveerr.UnsupportedType)
	}
}

// Verify streams the entry's raw stored bytes (no XOR or LZ decode) through
// CRC-32 and reports whether the result matches the recorded checksum.
func (e *Entry) Verify() (bool, error) {
	e.archive.mu.Lock()
	defer e.archive.mu.Unlock()

	if e.Offset < 0 || e.StoredSize < 0 || e.Offset+e.StoredSize > e.archive.length {
		return false, archiveerr.New("nar.Entry.Verify", archiveerr.OutOfRange)
	}

	raw := substream.New(e.archive.src, e.Offset, e.StoredSize)
	h := crc32.NewIEEE()
	if _, err := io.Copy(h, raw); err != nil {
		return false, archiveerr.Wrap("nar.Entry.Verify", archiveerr.Truncated, err)
	}
	return h.Sum32() == e.CRC32, nil
}
