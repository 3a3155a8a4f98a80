// Package substream provides a bounded window over a seekable byte source,
// the primitive the NAR reader uses to constrain reads to one entry's
// payload region without copying it out of the archive.
package substream

import (
	"io"

	"github.com/csoarchive/csoarchive/pkg/archiveerr"
)

// BoundedStream windows a source io.ReaderAt to [offset, offset+length).
// Position is relative to the window, not the underlying source. It is not
// safe for concurrent use by multiple goroutines; the nar package serializes
// access with its own mutex (spec §5).
type BoundedStream struct {
	src    io.ReaderAt
	offset int64
	length int64
	pos    int64
}

// New returns a BoundedStream over src's [offset, offset+length) region.
func New(src io.ReaderAt, offset, length int64) *BoundedStream {
	return &BoundedStream{src: src, offset: offset, length: length}
}

// Length returns the size of the window.
func (b *BoundedStream) Length() int64 { return b.length }

// Position returns the current read position relative to the window.
func (b *BoundedStream) Position() int64 { return b.pos }

// Seek repositions within the window. whence follows io.Seeker semantics.
// Seeking outside [0, Length()] is an OutOfRange error.
func (b *BoundedStream) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = b.pos + offset
	case io.SeekEnd:
		target = b.length + offset
	default:
		return 0, archiveerr.New("substream.Seek", archiveerr.OutOfRange)
	}
	if target < 0 || target > b.length {
		return 0, archiveerr.New("substream.Seek", archiveerr.OutOfRange)
	}
	b.pos = target
	return b.pos, nil
}

// Read clamps count so that pos+count <= Length, then reads the
// corresponding absolute region from the underlying source. It returns
// io.EOF once pos has reached Length.
func (b *BoundedStream) Read(p []byte) (int, error) {
	remaining := b.length - b.pos
	if remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err := b.src.ReadAt(p, b.offset+b.pos)
	b.pos += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}
