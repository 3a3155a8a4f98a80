// Package ice implements the ICE block cipher: a 64-bit Feistel cipher with
// a key schedule built from GF(2^8) exponentiation and a 32-bit
// permutation. Level 0 ("thin ICE") runs 8 rounds over a 64-bit key; level
// n >= 1 runs 16*n rounds over an 8*n-byte key. ECB is the only supported
// mode; there is no padding.
package ice

import (
	"fmt"

	"github.com/csoarchive/csoarchive/pkg/archiveerr"
)

const blockSize = 8

// subkey holds the three 32-bit words consumed by the round function F for
// a single round.
type subkey [3]uint32

// Cipher is a keyed ICE instance. Two instances built from the same key and
// level behave identically; the S-box table they read from is shared and
// built exactly once regardless of how many Ciphers exist.
type Cipher struct {
	level   int
	rounds  int
	subkeys []subkey
}

// NewCipher builds a Cipher for the given level. Level 0 requires an 8-byte
// key (thin ICE, 8 rounds); level n >= 1 requires an 8*n-byte key (16*n
// rounds).
func NewCipher(level int, key []byte) (*Cipher, error) {
	ensureSBox()

	if level < 0 {
		return nil, archiveerr.New("ice.NewCipher", archiveerr.Unsupported)
	}

	rounds := 8
	if level >= 1 {
		rounds = 16 * level
	}
	wantKeyLen := 8
	if level >= 1 {
		wantKeyLen = 8 * level
	}
	if len(key) != wantKeyLen {
		return nil, archiveerr.Wrap("ice.NewCipher", archiveerr.InvalidKeySize,
			fmt.Errorf("level %d requires a %d-byte key, got %d", level, wantKeyLen, len(key)))
	}

	c := &Cipher{level: level, rounds: rounds, subkeys: make([]subkey, rounds)}
	c.scheduleKey(key)
	return c, nil
}

// BlockSize returns the cipher's fixed block size, 8 bytes.
func (c *Cipher) BlockSize() int { return blockSize }

// scheduleKey fills c.subkeys from the raw key bytes, one 8-byte chunk at a
// time, interleaving a forward pass (offset 0) and a backward pass
// (rotation offset 8) per chunk for levels >= 1; thin ICE runs a single
// forward pass over its whole 8-byte key.
func (c *Cipher) scheduleKey(key []byte) {
	if c.level == 0 {
		kb := keyBuilderFromBytes(key)
		c.scheduleBuild(kb, 0, 0)
		return
	}

	for pos := 0; pos < c.level*8; pos += 8 {
		kb := keyBuilderFromBytes(key[pos : pos+8])
		c.scheduleBuild(kb, pos, 0)
		c.scheduleBuild(kb, c.rounds-8-pos, 8)
	}
}

// keyBuilderFromBytes packs an 8-byte key chunk into four 16-bit words,
// reversed word-wise (kb[3] holds the first two bytes).
func keyBuilderFromBytes(key []byte) [4]uint16 {
	var kb [4]uint16
	for i := 0; i < 4; i++ {
		kb[3-i] = uint16(key[i*2])<<8 | uint16(key[i*2+1])
	}
	return kb
}

// scheduleBuild fills 8 consecutive rounds starting at n, rotating through
// kb according to keyRotation[keyRotOffset:keyRotOffset+8]. kb is consumed
// (mutated) across the whole call, per the ICE reference.
func (c *Cipher) scheduleBuild(kb [4]uint16, n, keyRotOffset int) {
	for i := 0; i < 8; i++ {
		kr := keyRotation[keyRotOffset+i]
		sk := &c.subkeys[n+i]
		sk[0], sk[1], sk[2] = 0, 0, 0

		for j := 0; j < 15; j++ {
			for k := uint32(0); k < 4; k++ {
				slot := (kr + k) & 3
				b := kb[slot]
				bit := b & 1
				sk[j%3] = (sk[j%3] << 1) | uint32(bit)
				kb[slot] = (b >> 1) | ((bit ^ 1) << 15)
			}
		}
	}
}

// f is the ICE round function: it expands a 32-bit half into two 10-bit
// substitution indices per S-box column, mixes in the round's subkey
// triple, and ORs the four S-box lookups together.
func f(v uint32, k subkey) uint32 {
	tl := ((v >> 16) & 1023) | ((v>>14 | v<<18) & 0x0FFC00)
	tr := (v & 1023) | ((v << 2) & 0x0FFC00)

	al := k[2] & (tl ^ tr)
	ar := al ^ tr
	al ^= tl
	al ^= k[0]
	ar ^= k[1]

	return sbox[0][al>>10] | sbox[1][al&1023] | sbox[2][ar>>10] | sbox[3][ar&1023]
}

// Encrypt encrypts the 8-byte block src into dst. src and dst may overlap
// only if they are the same slice.
func (c *Cipher) Encrypt(dst, src []byte) {
	l := beUint32(src[0:4])
	r := beUint32(src[4:8])

	for j := 0; j < c.rounds; j += 2 {
		l ^= f(r, c.subkeys[j])
		r ^= f(l, c.subkeys[j+1])
	}

	putBEUint32(dst[0:4], r)
	putBEUint32(dst[4:8], l)
}

// Decrypt decrypts the 8-byte block src into dst.
func (c *Cipher) Decrypt(dst, src []byte) {
	l := beUint32(src[0:4])
	r := beUint32(src[4:8])

	for j := c.rounds - 1; j > 0; j -= 2 {
		l ^= f(r, c.subkeys[j])
		r ^= f(l, c.subkeys[j-1])
	}

	putBEUint32(dst[0:4], r)
	putBEUint32(dst[4:8], l)
}

// TransformECB runs Encrypt or Decrypt across src in 8-byte blocks, writing
// to dst. len(src) must be a multiple of 8; ECB is the only supported
// mode, and there is no padding, so callers must pass exact-multiple
// buffers.
func (c *Cipher) TransformECB(dst, src []byte, decrypt bool) error {
	if len(src)%blockSize != 0 || len(dst) < len(src) {
		return archiveerr.New("ice.TransformECB", archiveerr.Truncated)
	}
	for off := 0; off < len(src); off += blockSize {
		block := src[off : off+blockSize]
		out := dst[off : off+blockSize]
		if decrypt {
			c.Decrypt(out, block)
		} else {
			c.Encrypt(out, block)
		}
	}
	return nil
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func putBEUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
