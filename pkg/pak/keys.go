package pak

import "unicode/utf16"

// embeddedKey is the constant suffix mixed into a PAK file's name to derive
// the header and entry-table keys (spec §6).
const embeddedKey = "CqeLFV@*0IfewH"

const (
	// maxPathLen bounds a decoded entry path's code-unit count.
	maxPathLen = 0x4000
	// blockAlignment is the unit PAK entry offsets are expressed in, and
	// the boundary the data region is aligned to.
	blockAlignment = 1024
	// topEncryptedRegionSize is the size of the leading payload window
	// that an Encrypted entry has Snow-ciphered.
	topEncryptedRegionSize = 0x400
)

// deriveHeaderKey builds the 128-byte key used to decrypt the fixed
// header: headerKey[i] = i + K[i % len(K)].
func deriveHeaderKey(k []byte) [128]byte {
	var out [128]byte
	for i := range out {
		out[i] = byte(i) + k[i%len(k)]
	}
	return out
}

// deriveEntriesKey builds the 128-byte key used to decrypt the entry
// table: entriesKey[i] = i + ((i%3)+2) * K[len(K)-1-(i%len(K))], indexing K
// from the end backward.
func deriveEntriesKey(k []byte) [128]byte {
	var out [128]byte
	n := len(k)
	for i := range out {
		factor := (i % 3) + 2
		kb := k[n-1-(i%n)]
		out[i] = byte(i) + byte(factor*int(kb))
	}
	return out
}

// deriveDataKey builds the 128-byte key used to decrypt a single entry's
// payload: dataKey[i] = i + path[i%len(path)] * (i + baseKey[i%16] -
// 5*(i/5) + 2). path is the entry's own recorded path, and baseKey is its
// per-entry 128-bit base key, read as 16 bytes.
func deriveDataKey(path string, baseKeyBytes [16]byte) [128]byte {
	var out [128]byte
	p := []byte(path)
	for i := range out {
		inner := i + int(baseKeyBytes[i%16]) - 5*(i/5) + 2
		out[i] = byte(i) + byte(int(p[i%len(p)])*inner)
	}
	return out
}

// filenameSums returns the sum of a filename's UTF-16 code units (S) and
// the sum of (c + 2c) over the same units (S'), used to derive the header
// and entry-table offsets (spec §4.9). S' is textually 3*S, computed
// per-unit to mirror the spec's own derivation rather than shortcutting it.
func filenameSums(filename string) (s, sPrime int) {
	for _, u := range utf16.Encode([]rune(filename)) {
		c := int(u)
		s += c
		sPrime += c + 2*c
	}
	return s, sPrime
}

// baseKeyBytes packs a 4xu32 base key (little-endian per word) into 16
// bytes for use as dataKey's path-indexed base material.
func baseKeyBytes(baseKey [4]uint32) [16]byte {
	var out [16]byte
	for i, w := range baseKey {
		out[i*4] = byte(w)
		out[i*4+1] = byte(w >> 8)
		out[i*4+2] = byte(w >> 16)
		out[i*4+3] = byte(w >> 24)
	}
	return out
}
