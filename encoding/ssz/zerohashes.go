package ssz

import "github.com/prysmaticlabs/epoch-engine/crypto/hash"

// ZeroHashes is a precomputed table of roots of all-zero subtrees, indexed by depth.
var ZeroHashes = make([][32]byte, 65)

func init() {
	for i := 1; i < 65; i++ {
		ZeroHashes[i] = hash.Hash(append(ZeroHashes[i-1][:], ZeroHashes[i-1][:]...))
	}
}
