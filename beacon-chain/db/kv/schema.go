package kv

// The schema will define how to store and retrieve data from the db.
// Archived states are keyed by their big-endian slot so a cursor walks them in slot order, and
// the root index maps each archived state root back to its slot. The slot roots bucket holds the
// reverse mapping so replacing a slot touches only its own index entry.
var (
	stateArchiveBucket          = []byte("state-archive")
	stateArchiveRootIndexBucket = []byte("state-archive-root-index")
	stateArchiveSlotRootsBucket = []byte("state-archive-slot-roots")
)

// Version prefixes of encoded states.
var (
	phase0Key = []byte("phase0")
	altairKey = []byte("altair")
)
