package crypto

import (
	"golang.org/x/crypto/blake2b"
)

// HashSize is the size in bytes of the digests returned by Blake2b256.
const HashSize = blake2b.Size256

// Blake2b256 returns the 256-bit BLAKE2b digest of the concatenation of the
// provided chunks. It is the hash function used for block content hashes.
func Blake2b256(chunks ...[]byte) [HashSize]byte {
	// blake2b.New256 only fails with a key longer than 64 bytes
	hasher, _ := blake2b.New256(nil)
	for _, c := range chunks {
		hasher.Write(c)
	}
	var res [HashSize]byte
	copy(res[:], hasher.Sum(nil))
	return res
}
