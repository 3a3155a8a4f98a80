// Package pak reads the PAK container format: a Snow-ciphered fixed header
// and entry table, both keyed and positioned from values derived out of the
// archive's own filename, followed by a data region holding per-entry
// payloads under one of several per-entry encryption schemes.
package pak

import (
	"github.com/csoarchive/csoarchive/pkg/archiveerr"
)

// Archive is a parsed, read-only view over one PAK file's bytes. Unlike
// nar.Archive it owns no file handle: data is an in-memory buffer the
// caller supplies, and every entry is addressed by slicing into it, so
// Archive has no shared mutable state and needs no lock (spec §5).
type Archive struct {
	data    []byte
	entries []*Entry
	byPath  map[string]*Entry
	dataOff int64
}

// Open parses a PAK archive's header and entry table. filename is the
// archive's own name (not a path on disk) — its bytes and UTF-16 code
// units seed every key and offset the format derives, so the same bytes
// under a different name parse differently.
func Open(filename string, data []byte) (*Archive, error) {
	k := []byte(filename + embeddedKey)
	s, sPrime := filenameSums(filename)

	headerOffset := int64((s % 312) + 30)
	entriesOffset := headerOffset + 42 + int64(sPrime%212)

	if headerOffset < 0 || int(headerOffset)+headerSize > len(data) {
		return nil, archiveerr.New("pak.Open", archiveerr.Truncated)
	}

	headerKey := deriveHeaderKey(k)
	hv := newView(data[headerOffset:], headerKey)
	headerBytes, err := hv.readBytes(headerSize)
	if err != nil {
		return nil, archiveerr.Wrap("pak.Open", archiveerr.Truncated, err)
	}
	h, err := parseHeader(headerBytes)
	if err != nil {
		return nil, err
	}

	if entriesOffset < 0 || int(entriesOffset) > len(data) {
		return nil, archiveerr.New("pak.Open", archiveerr.Truncated)
	}

	entriesKey := deriveEntriesKey(k)
	ev := newView(data[entriesOffset:], entriesKey)

	entries := make([]*Entry, 0, h.entryCount)
	byPath := make(map[string]*Entry, h.entryCount)
	for i := uint32(0); i < h.entryCount; i++ {
		e, err := parseEntry(ev)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
		byPath[e.Path] = e
	}

	consumedEnd := int64(entriesOffset) + int64(ev.consumed())
	dataOrigin := alignUp1024(consumedEnd)
	if dataOrigin > int64(len(data)) {
		return nil, archiveerr.New("pak.Open", archiveerr.Truncated)
	}

	return &Archive{data: data, entries: entries, byPath: byPath, dataOff: dataOrigin}, nil
}

func parseEntry(v *view) (*Entry, error) {
	pathLen, err := v.readUint32()
	if err != nil {
		return nil, err
	}
	if pathLen > maxPathLen {
		return nil, archiveerr.New("pak.parseEntry", archiveerr.OutOfRange)
	}
	path, err := v.readUTF16(int(pathLen))
	if err != nil {
		return nil, err
	}
	unknown, err := v.readUint32()
	if err != nil {
		return nil, err
	}
	typ, err := v.readUint32()
	if err != nil {
		return nil, err
	}
	offset, err := v.readUint32()
	if err != nil {
		return nil, err
	}
	originalSize, err := v.readUint32()
	if err != nil {
		return nil, err
	}
	packedSize, err := v.readUint32()
	if err != nil {
		return nil, err
	}
	baseKey, err := v.readKeyQuad()
	if err != nil {
		return nil, err
	}

	return &Entry{
		Path:         path,
		Unknown:      unknown,
		Type:         EntryType(typ),
		Offset:       offset,
		OriginalSize: originalSize,
		PackedSize:   packedSize,
		BaseKey:      baseKey,
	}, nil
}

func alignUp1024(n int64) int64 {
	return (n + blockAlignment - 1) &^ (blockAlignment - 1)
}

// Entries returns the archive's entries in entry-table order.
func (a *Archive) Entries() []*Entry { return a.entries }

// EntryByPath looks up an entry by its recorded path. It returns nil if no
// entry matches.
func (a *Archive) EntryByPath(path string) *Entry { return a.byPath[path] }

// Extract returns entry's decrypted, original-form bytes.
func (a *Archive) Extract(e *Entry) ([]byte, error) {
	return e.Unpack(a.data, a.dataOff)
}
