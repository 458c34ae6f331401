package epoch

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/core/helpers"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/runtime/version"
)

// ProcessEffectiveBalanceUpdates moves each effective balance toward the actual balance once the
// two drift apart by more than the hysteresis thresholds. The new effective balance is the
// balance rounded down to an increment and capped at the maximum effective balance.
func ProcessEffectiveBalanceUpdates(st state.BeaconState) (state.BeaconState, error) {
	if st == nil {
		return nil, errNilState
	}
	cfg := params.BeaconConfig()
	hysteresisInc := cfg.EffectiveBalanceIncrement / cfg.HysteresisQuotient
	downwardThreshold := hysteresisInc * cfg.HysteresisDownwardMultiplier
	upwardThreshold := hysteresisInc * cfg.HysteresisUpwardMultiplier

	bals := st.Balances()
	if len(bals) != st.NumValidators() {
		return nil, errors.Wrap(helpers.ErrMalformedInput, "balances not the same length as validators")
	}
	vals := st.Validators()
	changed := false
	for i, val := range vals {
		if val == nil {
			return nil, errors.Wrapf(helpers.ErrMalformedInput, "nil validator at index %d", i)
		}
		balance := bals[i]
		if balance+downwardThreshold < val.EffectiveBalance || val.EffectiveBalance+upwardThreshold < balance {
			effectiveBal := cfg.MaxEffectiveBalance
			if effectiveBal > balance-balance%cfg.EffectiveBalanceIncrement {
				effectiveBal = balance - balance%cfg.EffectiveBalanceIncrement
			}
			if effectiveBal != val.EffectiveBalance {
				val.EffectiveBalance = effectiveBal
				changed = true
			}
		}
	}
	if !changed {
		return st, nil
	}
	if err := st.SetValidators(vals); err != nil {
		return nil, err
	}
	return st, nil
}

// ProcessRandaoMixesReset carries the mix of the ending epoch over into the slot of the next
// epoch, which block processing then mixes further.
func ProcessRandaoMixesReset(st state.BeaconState) (state.BeaconState, error) {
	if st == nil {
		return nil, errNilState
	}
	currentEpoch := helpers.CurrentEpoch(st)
	nextEpoch := currentEpoch + 1
	vector := params.BeaconConfig().EpochsPerHistoricalVector

	mix, err := helpers.RandaoMix(st, currentEpoch)
	if err != nil {
		return nil, err
	}
	if err := st.UpdateRandaoMixesAtIndex(uint64(nextEpoch%vector), mix); err != nil {
		return nil, err
	}
	return st, nil
}

// ProcessParticipationRecordUpdates rotates the participation of the ending epoch into the
// previous epoch position and resets the current epoch's. Phase0 states rotate their pending
// attestation records and later forks their participation flags.
func ProcessParticipationRecordUpdates(st state.BeaconState) (state.BeaconState, error) {
	if st == nil {
		return nil, errNilState
	}
	if st.Version() == version.Phase0 {
		if err := st.RotateAttestations(); err != nil {
			return nil, errors.Wrap(err, "could not rotate attestation records")
		}
		return st, nil
	}
	if err := st.RotateParticipationBits(); err != nil {
		return nil, errors.Wrap(err, "could not rotate participation flags")
	}
	return st, nil
}
