package nar

import (
	"io"

	"github.com/csoarchive/csoarchive/pkg/archiveerr"
	"github.com/csoarchive/csoarchive/pkg/dictionary"
)

// lzReader decompresses the NAR LZ token stream read from src, bounded by
// extractedSize: reading past that many output bytes returns io.EOF even if
// src has more tokens.
type lzReader struct {
	src           io.Reader
	dict          dictionary.Dictionary
	extractedSize int64
	written       int64
	pending       []byte
}

func newLZReader(src io.Reader, extractedSize int64) *lzReader {
	return &lzReader{src: src, extractedSize: extractedSize}
}

func (r *lzReader) Read(p []byte) (int, error) {
	if len(r.pending) == 0 {
		if r.written >= r.extractedSize {
			return 0, io.EOF
		}
		out, err := r.decodeToken()
		if err != nil {
			return 0, err
		}
		if remaining := r.extractedSize - r.written; int64(len(out)) > remaining {
			out = out[:remaining]
		}
		r.pending = out
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	r.written += int64(n)
	return n, nil
}

// decodeToken reads and fully resolves one token, returning the output
// bytes it produces (also fed into the dictionary for future references).
func (r *lzReader) decodeToken() ([]byte, error) {
	var hdr [1]byte
	if _, err := io.ReadFull(r.src, hdr[:]); err != nil {
		return nil, archiveerr.Wrap("nar.lz.decodeToken", archiveerr.Truncated, err)
	}
	b := hdr[0]
	op := int(b >> 5)
	length := int(b & 31)

	if op == 0 {
		n := length + 1
		buf := make([]byte, n)
		if _, err := io.ReadFull(r.src, buf); err != nil {
			return nil, archiveerr.Wrap("nar.lz.decodeToken", archiveerr.Truncated, err)
		}
		r.dict.Append(buf, 0, n)
		return buf, nil
	}

	if op == 7 {
		var extra [1]byte
		if _, err := io.ReadFull(r.src, extra[:]); err != nil {
			return nil, archiveerr.Wrap("nar.lz.decodeToken", archiveerr.Truncated, err)
		}
		op += int(extra[0])
	}
	op += 2

	var lb [1]byte
	if _, err := io.ReadFull(r.src, lb[:]); err != nil {
		return nil, archiveerr.Wrap("nar.lz.decodeToken", archiveerr.Truncated, err)
	}
	distance := (length<<8 | int(lb[0])) + 1

	if distance > r.dict.Count() {
		return nil, archiveerr.New("nar.lz.decodeToken", archiveerr.MalformedTokenStream)
	}

	out := make([]byte, op)
	for i := 0; i < op; i++ {
		if err := r.dict.Copy(distance, out, i, 1); err != nil {
			return nil, archiveerr.Wrap("nar.lz.decodeToken", archiveerr.MalformedTokenStream, err)
		}
		r.dict.Append(out, i, 1)
	}
	return out, nil
}
