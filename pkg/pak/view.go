package pak

import (
	"encoding/binary"
	"unicode/utf16"

	"github.com/csoarchive/csoarchive/pkg/archiveerr"
	"github.com/csoarchive/csoarchive/pkg/snow"
)

// view presents sequential 4-byte-aligned typed reads over a ciphertext
// region decrypted through one Snow cipher instance. Reads that need fewer
// bytes than the 4-byte alignment leave the remainder buffered so it can
// satisfy the start of the next read; the buffer is sized for the maximum
// possible slack (3 bytes) and is ready to use from construction (spec §9
// open question on sizing/initialization).
type view struct {
	cipher    *snow.Cipher
	src       []byte
	total     int
	remainder [3]byte
	remLen    int
}

func newView(ciphertext []byte, key [128]byte) *view {
	return &view{cipher: snow.NewCipher(key), src: ciphertext, total: len(ciphertext)}
}

// consumed reports how many ciphertext bytes have been decrypted so far
// (aligned up to 4), used to locate the data region following an entry
// table (spec §4.9).
func (v *view) consumed() int {
	return v.total - len(v.src)
}

func (v *view) read(n int) ([]byte, error) {
	out := make([]byte, n)
	copied := 0

	if v.remLen > 0 {
		c := copy(out, v.remainder[:v.remLen])
		copy(v.remainder[:], v.remainder[c:v.remLen])
		v.remLen -= c
		copied = c
	}

	need := n - copied
	if need <= 0 {
		return out, nil
	}

	aligned := (need + 3) &^ 3
	if aligned > len(v.src) {
		return nil, archiveerr.New("pak.view.read", archiveerr.Truncated)
	}

	chunk := make([]byte, aligned)
	v.cipher.Decrypt(chunk, v.src[:aligned])
	v.src = v.src[aligned:]

	copy(out[copied:], chunk[:need])
	extra := chunk[need:]
	copy(v.remainder[:], extra)
	v.remLen = len(extra)

	return out, nil
}

func (v *view) readUint32() (uint32, error) {
	b, err := v.read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (v *view) readUTF16(codeUnits int) (string, error) {
	b, err := v.read(codeUnits * 2)
	if err != nil {
		return "", err
	}
	units := make([]uint16, codeUnits)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2 : i*2+2])
	}
	return string(utf16.Decode(units)), nil
}

func (v *view) readKeyQuad() ([4]uint32, error) {
	b, err := v.read(16)
	if err != nil {
		return [4]uint32{}, err
	}
	var out [4]uint32
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*4 : i*4+4])
	}
	return out, nil
}

func (v *view) readBytes(n int) ([]byte, error) {
	return v.read(n)
}
