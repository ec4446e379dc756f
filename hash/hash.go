// Package hash computes content hashes used to intern symbols and
// constants and to key closure-environment layouts. It is a lightweight,
// non-cryptographic hash in the spirit of the teacher's own hash package:
// a fixed-size digest that merges cheaply and compares with ==.
package hash

import "github.com/spaolacci/murmur3"

// Hash is a 128-bit content digest.
type Hash [16]byte

// Zero is the digest of no content.
var Zero Hash

// String hashes a string.
func String(s string) Hash {
	return Bytes([]byte(s))
}

// Bytes hashes a byte slice.
func Bytes(b []byte) Hash {
	hi, lo := murmur3.Sum128(b)
	var h Hash
	for i := 0; i < 8; i++ {
		h[i] = byte(hi >> (8 * uint(7-i)))
		h[8+i] = byte(lo >> (8 * uint(7-i)))
	}
	return h
}

// Int hashes an integer.
func Int(v int64) Hash {
	b := [8]byte{
		byte(v >> 56), byte(v >> 48), byte(v >> 40), byte(v >> 32),
		byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v),
	}
	return Bytes(b[:])
}

// Merge combines h with the bytes of other, producing a new digest that
// depends on both the identity and the order of merges.
func (h Hash) Merge(other Hash) Hash {
	buf := make([]byte, 0, len(h)+len(other))
	buf = append(buf, h[:]...)
	buf = append(buf, other[:]...)
	return Bytes(buf)
}

// MergeString folds a string into the digest.
func (h Hash) MergeString(s string) Hash {
	return h.Merge(String(s))
}
