// Package digest computes stable fingerprints of message tuples.
package digest

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Sum is a 256-bit BLAKE2b digest.
type Sum [blake2b.Size256]byte

// Of returns the digest of the tuple. Each value contributes its dynamic type
// and its Go-syntax rendering (%#v), so unexported struct fields count and
// 1, 1.0 and int64(1) are distinct. Nested pointers, funcs and channels are
// rendered by address, which makes them equal only to themselves.
func Of(vals ...any) Sum {
	h, _ := blake2b.New256(nil)
	var n [binary.MaxVarintLen64]byte
	for _, v := range vals {
		b := fmt.Appendf(nil, "%T\x00%#v", v, v)
		h.Write(n[:binary.PutUvarint(n[:], uint64(len(b)))])
		h.Write(b)
	}

	var s Sum
	copy(s[:], h.Sum(nil))
	return s
}
