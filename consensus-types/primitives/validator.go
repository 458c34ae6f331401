package primitives

// ValidatorIndex in eth2.
type ValidatorIndex uint64

// CommitteeIndex is the index of a committee within a slot.
type CommitteeIndex uint64

// DomainType defines the 4-byte domain tag mixed into seeds and signing roots.
type DomainType [4]byte
