package helpers

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/cache"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/crypto/hash"
	"github.com/prysmaticlabs/epoch-engine/encoding/bytesutil"
	"github.com/prysmaticlabs/epoch-engine/time/slots"
)

// ComputeProposerIndex returns the index sampled by effective balance, which is used to calculate proposer.
//
//	def compute_proposer_index(state: BeaconState, indices: Sequence[ValidatorIndex], seed: Bytes32) -> ValidatorIndex:
//	  assert len(indices) > 0
//	  MAX_RANDOM_BYTE = 2**8 - 1
//	  i = uint64(0)
//	  total = uint64(len(indices))
//	  while True:
//	      candidate_index = indices[compute_shuffled_index(i % total, total, seed)]
//	      random_byte = hash(seed + uint_to_bytes(uint64(i // 32)))[i % 32]
//	      effective_balance = state.validators[candidate_index].effective_balance
//	      if effective_balance * MAX_RANDOM_BYTE >= MAX_EFFECTIVE_BALANCE * random_byte:
//	          return candidate_index
//	      i += 1
func ComputeProposerIndex(bState state.ReadOnlyValidators, activeIndices []primitives.ValidatorIndex, seed [32]byte) (primitives.ValidatorIndex, error) {
	length := uint64(len(activeIndices))
	if length == 0 {
		return 0, errors.Wrap(ErrMalformedInput, "empty active indices list")
	}
	maxRandomByte := uint64(1<<8 - 1)
	hashFunc := hash.CustomSHA256Hasher()
	maxEffectiveBalance := params.BeaconConfig().MaxEffectiveBalance

	for i := uint64(0); ; i++ {
		candidateIndex, err := ComputeShuffledIndex(primitives.ValidatorIndex(i%length), length, seed, true /* shuffle */)
		if err != nil {
			return 0, err
		}
		candidateIndex = activeIndices[candidateIndex]
		if uint64(candidateIndex) >= uint64(bState.NumValidators()) {
			return 0, errors.New("active index out of range")
		}
		b := append(seed[:], bytesutil.Bytes8(i/32)...)
		randomByte := hashFunc(b)[i%32]
		v, err := bState.ValidatorAtIndexReadOnly(candidateIndex)
		if err != nil {
			return 0, err
		}
		effectiveBal := v.EffectiveBalance()

		if effectiveBal*maxRandomByte >= maxEffectiveBalance*uint64(randomByte) {
			return candidateIndex, nil
		}
	}
}

// ProposerSeed is the per-slot seed proposer sampling draws from.
//
//	seed = hash(get_seed(state, epoch, DOMAIN_BEACON_PROPOSER) + uint_to_bytes(state.slot))
func ProposerSeed(st state.ReadOnlyRandaoMixes, slot primitives.Slot) ([32]byte, error) {
	epochSeed, err := Seed(st, slots.ToEpoch(slot), params.BeaconConfig().DomainBeaconProposer)
	if err != nil {
		return [32]byte{}, errors.Wrap(err, "could not generate seed")
	}
	return hash.Hash(append(epochSeed[:], bytesutil.Bytes8(uint64(slot))...)), nil
}

// ProposerIndices returns the proposer of every slot of the epoch, in slot order. The sequence
// is cached by epoch, proposer seed and registry digest when a cache is given.
func ProposerIndices(
	st state.ReadOnlyBeaconState,
	c *cache.ProposerIndicesCache,
	epoch primitives.Epoch,
	activeIndices []primitives.ValidatorIndex,
) ([]primitives.ValidatorIndex, error) {
	epochSeed, err := Seed(st, epoch, params.BeaconConfig().DomainBeaconProposer)
	if err != nil {
		return nil, errors.Wrap(err, "could not generate seed")
	}
	var registry [32]byte
	if c != nil {
		registry, err = ProposerRegistryDigest(st, activeIndices)
		if err != nil {
			return nil, err
		}
		if indices, ok := c.ProposerIndices(epoch, epochSeed, registry); ok {
			return indices, nil
		}
	}
	startSlot, err := slots.EpochStart(epoch)
	if err != nil {
		return nil, err
	}
	spe := uint64(params.BeaconConfig().SlotsPerEpoch)
	proposers := make([]primitives.ValidatorIndex, spe)
	for i := uint64(0); i < spe; i++ {
		slot := startSlot + primitives.Slot(i)
		seed := hash.Hash(append(epochSeed[:], bytesutil.Bytes8(uint64(slot))...))
		proposers[i], err = ComputeProposerIndex(st, activeIndices, seed)
		if err != nil {
			return nil, errors.Wrapf(err, "could not compute proposer of slot %d", slot)
		}
	}
	if c != nil {
		c.Set(epoch, epochSeed, registry, proposers)
	}
	return proposers, nil
}

// ProposerRegistryDigest hashes the active indices together with their effective balances, the
// registry inputs proposer sampling depends on besides the seed.
func ProposerRegistryDigest(st state.ReadOnlyValidators, activeIndices []primitives.ValidatorIndex) ([32]byte, error) {
	buf := make([]byte, 0, 16*len(activeIndices))
	for _, idx := range activeIndices {
		v, err := st.ValidatorAtIndexReadOnly(idx)
		if err != nil {
			return [32]byte{}, errors.Wrapf(err, "could not read validator %d", idx)
		}
		buf = append(buf, bytesutil.Bytes8(uint64(idx))...)
		buf = append(buf, bytesutil.Bytes8(v.EffectiveBalance())...)
	}
	return hash.Hash(buf), nil
}
