package ssz

import (
	"encoding/binary"

	fssz "github.com/ferranbt/fastssz"
	"github.com/pkg/errors"
)

// Uint64Root computes the HashTreeRoot Merkleization of
// a simple uint64 value according to the Ethereum
// Simple Serialize rules.
func Uint64Root(val uint64) [32]byte {
	var root [32]byte
	binary.LittleEndian.PutUint64(root[:8], val)
	return root
}

// PackUint64IntoChunks packs a list of uint64 values into 32 byte roots.
func PackUint64IntoChunks(vals []uint64) [][32]byte {
	// Initialize how many uint64 values we can pack
	// into a single chunk(32 bytes). Each uint64 value
	// would take up 8 bytes.
	numOfElems := 4
	sizeOfElem := 32 / numOfElems
	// Determine total number of chunks to be
	// allocated to provided list of unsigned
	// 64-bit integers.
	numOfChunks := (len(vals) + numOfElems - 1) / numOfElems
	chunkList := make([][32]byte, numOfChunks)
	for idx, b := range vals {
		// In order to determine how to pack in the uint64 value by index into
		// our chunk list we need to determine a few things.
		// 1) The chunk which the particular uint64 value corresponds to.
		// 2) The position of the value in the chunk itself.
		//
		// Once we have determined these 2 values we can simply find the correct
		// section of contiguous bytes to insert the value in the chunk.
		chunkIdx := idx / numOfElems
		idxInChunk := idx % numOfElems
		chunkPos := idxInChunk * sizeOfElem
		binary.LittleEndian.PutUint64(chunkList[chunkIdx][chunkPos:chunkPos+sizeOfElem], b)
	}
	return chunkList
}

// PackBytesIntoChunks right-pads a byte list into 32 byte roots.
func PackBytesIntoChunks(vals []byte) [][32]byte {
	numOfChunks := (len(vals) + 31) / 32
	chunkList := make([][32]byte, numOfChunks)
	for i := range chunkList {
		copy(chunkList[i][:], vals[32*i:])
	}
	return chunkList
}

// Uint64ListRootWithLimit computes the HashTreeRoot of a List[uint64, limit].
func Uint64ListRootWithLimit(vals []uint64, limit uint64) ([32]byte, error) {
	chunks := PackUint64IntoChunks(vals)
	body := MerkleizeVector(chunks, (limit*8+31)/32)
	return MixInLength(body, uint64(len(vals)))
}

// ByteListRootWithLimit computes the HashTreeRoot of a List[uint8, limit].
func ByteListRootWithLimit(vals []byte, limit uint64) ([32]byte, error) {
	chunks := PackBytesIntoChunks(vals)
	body := MerkleizeVector(chunks, (limit+31)/32)
	return MixInLength(body, uint64(len(vals)))
}

// HashTreeRootWither is implemented by every hand-written SSZ container.
type HashTreeRootWither interface {
	HashTreeRootWith(hh fssz.HashWalker) error
}

// HashWithDefaultHasher computes the root of a container using a pooled fastssz hasher.
func HashWithDefaultHasher(v HashTreeRootWither) ([32]byte, error) {
	hh := fssz.DefaultHasherPool.Get()
	if err := v.HashTreeRootWith(hh); err != nil {
		fssz.DefaultHasherPool.Put(hh)
		return [32]byte{}, errors.Wrap(err, "could not hash container")
	}
	root, err := hh.HashRoot()
	fssz.DefaultHasherPool.Put(hh)
	return root, err
}
