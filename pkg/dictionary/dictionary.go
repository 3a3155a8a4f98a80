// Package dictionary implements the 8 KiB sliding window the NAR LZ
// decompressor resolves back-references against.
package dictionary

import "github.com/csoarchive/csoarchive/pkg/archiveerr"

// Capacity is the fixed size of a Dictionary buffer.
const Capacity = 8192

// Dictionary is a fixed-capacity circular byte buffer supporting append and
// back-reference copy. The zero value is ready to use.
type Dictionary struct {
	buf    [Capacity]byte
	cursor int // next write position
	count  int // valid bytes currently held, <= Capacity
}

// Count returns the number of valid bytes currently held (<= Capacity).
func (d *Dictionary) Count() int { return d.count }

// Append writes src[off:off+n] into the dictionary, wrapping as needed.
func (d *Dictionary) Append(src []byte, off, n int) {
	if n >= Capacity {
		copy(d.buf[:], src[off+n-Capacity:off+n])
		d.cursor = 0
		d.count = Capacity
		return
	}

	region := src[off : off+n]
	first := Capacity - d.cursor
	if first > n {
		first = n
	}
	copy(d.buf[d.cursor:], region[:first])
	if rem := n - first; rem > 0 {
		copy(d.buf[:rem], region[first:])
	}

	d.cursor = (d.cursor + n) % Capacity
	d.count += n
	if d.count > Capacity {
		d.count = Capacity
	}
}

// Copy emits n bytes starting at distance back from the write cursor into
// dst[off:off+n], wrapping as needed. Precondition: 1 <= distance <= Count()
// and n <= Count(); violating it returns an OutOfRange error.
func (d *Dictionary) Copy(distance int, dst []byte, off, n int) error {
	if distance < 1 || distance > d.count || n > d.count {
		return archiveerr.New("dictionary.Copy", archiveerr.OutOfRange)
	}

	start := (d.cursor - distance + Capacity) % Capacity
	for i := 0; i < n; i++ {
		dst[off+i] = d.buf[(start+i)%Capacity]
	}
	return nil
}
