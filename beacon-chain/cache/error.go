package cache

import "github.com/pkg/errors"

var (
	// ErrNotFound for cache fetches that return a nil value.
	ErrNotFound = errors.New("not found in cache")
	// ErrNilShuffling is returned when a computed shuffling is nil.
	ErrNilShuffling = errors.New("computed shuffling is nil")
	// ErrShufflingMismatch is returned when a computed shuffling does not carry the epoch and seed
	// it was requested for.
	ErrShufflingMismatch = errors.New("computed shuffling does not match requested epoch and seed")
	// ErrEmptyCommittee is returned when a committee lookup is outside of the shuffling.
	ErrEmptyCommittee = errors.New("committee is out of range of the shuffling")
)
