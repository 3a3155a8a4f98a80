package nar

import "github.com/csoarchive/csoarchive/pkg/substream"

// headerXor is the 16-byte mask applied to the trailer-located header blob
// before BZip2 decompression.
var headerXor = [16]byte{
	25, 91, 123, 44, 101, 94, 121, 37, 110, 75, 7, 33, 98, 127, 0, 41,
}

// pythonHash is the bit-exact CPython-style fold used to seed an entry's
// XOR key: h = (h*1000003) XOR b for each byte, then h ^= len(d). All
// arithmetic wraps at 32 bits; multiplication must wrap, not saturate.
func pythonHash(data []byte) uint32 {
	var h uint32
	for _, b := range data {
		h = h*1000003 ^ uint32(b)
	}
	h ^= uint32(len(data))
	return h
}

// deriveXorKey expands an entry path into its 16-byte per-entry XOR key via
// a linear congruential generator seeded by pythonHash(path).
func deriveXorKey(path string) [16]byte {
	seed := pythonHash([]byte(path))
	var key [16]byte
	for i := range key {
		seed = seed*1103515245 + 12345
		key[i] = byte(seed & 0xFF)
	}
	return key
}

// xorReader decodes a position-indexed 16-byte XOR mask over a bounded
// stream. The mask index is the stream's position before the read, so the
// decoder carries no state of its own beyond the stream it wraps.
type xorReader struct {
	src *substream.BoundedStream
	key [16]byte
}

func newXorReader(src *substream.BoundedStream, path string) *xorReader {
	return &xorReader{src: src, key: deriveXorKey(path)}
}

func (x *xorReader) Read(p []byte) (int, error) {
	pos := x.src.Position()
	n, err := x.src.Read(p)
	for i := 0; i < n; i++ {
		p[i] ^= x.key[(pos+int64(i))%16]
	}
	return n, err
}
