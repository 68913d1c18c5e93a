package crypto

import (
	"golang.org/x/crypto/sha3"
)

// Hash returns the sha3-256 digest of key.
func Hash(key []byte) []byte {
	hasher := sha3.New256()
	hasher.Write(key)
	return hasher.Sum(nil)
}

// HashBytesBuffer hashes the concatenation of the given byte slices.
func HashBytesBuffer(keys ...[]byte) []byte {
	hasher := sha3.New256()
	for _, k := range keys {
		hasher.Write(k)
	}
	return hasher.Sum(nil)
}
