package helpers

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/cache"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/monitoring/tracing"
	"go.opencensus.io/trace"
)

// SlotCommitteeCount returns the number of beacon committees of a slot. The
// active validator count is provided as an argument rather than an imported implementation
// from the state to avoid recomputing it.
//
//	def get_committee_count_per_slot(state: BeaconState, epoch: Epoch) -> uint64:
//	  return max(uint64(1), min(
//	      MAX_COMMITTEES_PER_SLOT,
//	      uint64(len(get_active_validator_indices(state, epoch))) // SLOTS_PER_EPOCH // TARGET_COMMITTEE_SIZE,
//	  ))
func SlotCommitteeCount(activeValidatorCount uint64) uint64 {
	cfg := params.BeaconConfig()
	committeesPerSlot := activeValidatorCount / uint64(cfg.SlotsPerEpoch) / cfg.TargetCommitteeSize

	if committeesPerSlot > cfg.MaxCommitteesPerSlot {
		return cfg.MaxCommitteesPerSlot
	}
	if committeesPerSlot == 0 {
		return 1
	}

	return committeesPerSlot
}

// SplitOffset returns (listsize * index) / chunks
//
//	def get_split_offset(list_size: int, chunks: int, index: int) -> int:
//	  return (list_size * index) // chunks
func SplitOffset(listSize, chunks, index uint64) uint64 {
	return (listSize * index) / chunks
}

// ComputeShuffling builds the committee assignment of an epoch from its seed and active
// validator indices. The active indices are copied, the input is left untouched.
//
//	def compute_committee(indices: Sequence[ValidatorIndex], seed: Bytes32,
//	                      index: uint64, count: uint64) -> Sequence[ValidatorIndex]:
//	  start = (len(indices) * index) // count
//	  end = (len(indices) * uint64(index + 1)) // count
//	  return [indices[compute_shuffled_index(uint64(i), uint64(len(indices)), seed)] for i in range(start, end)]
func ComputeShuffling(epoch primitives.Epoch, seed [32]byte, activeIndices []primitives.ValidatorIndex) (*cache.Shuffling, error) {
	if len(activeIndices) == 0 {
		return nil, errors.Wrapf(ErrMalformedInput, "no active validators at epoch %d", epoch)
	}
	cfg := params.BeaconConfig()
	active := make([]primitives.ValidatorIndex, len(activeIndices))
	copy(active, activeIndices)

	shuffled := make([]primitives.ValidatorIndex, len(activeIndices))
	copy(shuffled, activeIndices)
	shuffled, err := UnshuffleList(shuffled, seed)
	if err != nil {
		return nil, errors.Wrap(err, "could not shuffle active indices")
	}

	count := uint64(len(shuffled))
	committeesPerSlot := SlotCommitteeCount(count)
	slotsPerEpoch := uint64(cfg.SlotsPerEpoch)
	total := committeesPerSlot * slotsPerEpoch
	committees := make([][]primitives.ValidatorIndex, total)
	for i := uint64(0); i < total; i++ {
		start := SplitOffset(count, total, i)
		end := SplitOffset(count, total, i+1)
		committees[i] = shuffled[start:end:end]
	}

	return &cache.Shuffling{
		Epoch:             epoch,
		Seed:              seed,
		ActiveIndices:     active,
		Shuffled:          shuffled,
		CommitteesPerSlot: committeesPerSlot,
		SlotsPerEpoch:     slotsPerEpoch,
		Committees:        committees,
	}, nil
}

// GetShuffling returns the shuffling for the epoch, seed and active indices from the cache,
// computing and caching it on a miss. A nil cache computes the shuffling directly.
func GetShuffling(
	ctx context.Context,
	c *cache.ShufflingCache,
	epoch primitives.Epoch,
	seed [32]byte,
	activeIndices []primitives.ValidatorIndex,
) (*cache.Shuffling, error) {
	ctx, span := trace.StartSpan(ctx, "helpers.GetShuffling")
	defer span.End()
	span.AddAttributes(trace.Int64Attribute("epoch", int64(epoch)))

	compute := func() (*cache.Shuffling, error) {
		return ComputeShuffling(epoch, seed, activeIndices)
	}
	if c == nil {
		s, err := compute()
		tracing.AnnotateError(span, err)
		return s, err
	}
	s, err := c.GetOrCompute(ctx, epoch, seed, activeIndices, compute)
	tracing.AnnotateError(span, err)
	return s, err
}

// ShufflingAtEpoch derives the attester seed and active indices of the epoch from the state and
// returns its shuffling.
func ShufflingAtEpoch(ctx context.Context, st state.ReadOnlyBeaconState, c *cache.ShufflingCache, epoch primitives.Epoch) (*cache.Shuffling, error) {
	seed, err := Seed(st, epoch, params.BeaconConfig().DomainBeaconAttester)
	if err != nil {
		return nil, errors.Wrap(err, "could not get seed")
	}
	indices, err := ActiveValidatorIndices(st, epoch)
	if err != nil {
		return nil, errors.Wrap(err, "could not get active indices")
	}
	return GetShuffling(ctx, c, epoch, seed, indices)
}
