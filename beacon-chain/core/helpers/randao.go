package helpers

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/crypto/hash"
	"github.com/prysmaticlabs/epoch-engine/encoding/bytesutil"
)

// Seed returns the randao seed used for shuffling of a given epoch.
//
//	def get_seed(state: BeaconState, epoch: Epoch, domain_type: DomainType) -> Bytes32:
//	  mix = get_randao_mix(state, Epoch(epoch + EPOCHS_PER_HISTORICAL_VECTOR - MIN_SEED_LOOKAHEAD - 1))
//	  return hash(domain_type + uint_to_bytes(epoch) + mix)
func Seed(st state.ReadOnlyRandaoMixes, epoch primitives.Epoch, domain [4]byte) ([32]byte, error) {
	cfg := params.BeaconConfig()
	// The offset looks down by one so the mix is fixed before the lookahead window opens.
	lookAheadEpoch := epoch + cfg.EpochsPerHistoricalVector - cfg.MinSeedLookahead - 1

	randaoMix, err := RandaoMix(st, lookAheadEpoch)
	if err != nil {
		return [32]byte{}, err
	}
	seed := append(domain[:], bytesutil.Bytes8(uint64(epoch))...)
	seed = append(seed, randaoMix[:]...)

	return hash.Hash(seed), nil
}

// RandaoMix returns the randao mix (xor'ed seed)
// of a given slot. It is used to shuffle validators.
//
//	def get_randao_mix(state: BeaconState, epoch: Epoch) -> Bytes32:
//	  return state.randao_mixes[epoch % EPOCHS_PER_HISTORICAL_VECTOR]
func RandaoMix(st state.ReadOnlyRandaoMixes, epoch primitives.Epoch) ([32]byte, error) {
	mix, err := st.RandaoMixAtIndex(uint64(epoch % params.BeaconConfig().EpochsPerHistoricalVector))
	if err != nil {
		return [32]byte{}, errors.Wrap(err, "could not get randao mix")
	}
	return mix, nil
}
