package helpers

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/math"
)

// BaseReward returns the base reward of a validator with the given effective balance, with
// totalActiveBalance floored at one effective balance increment.
//
//	def get_base_reward(state: BeaconState, index: ValidatorIndex) -> Gwei:
//	  total_balance = get_total_active_balance(state)
//	  effective_balance = state.validators[index].effective_balance
//	  return Gwei(effective_balance * BASE_REWARD_FACTOR // integer_squareroot(total_balance) // BASE_REWARDS_PER_EPOCH)
func BaseReward(effectiveBalance, totalActiveBalance uint64) uint64 {
	cfg := params.BeaconConfig()
	if totalActiveBalance < cfg.EffectiveBalanceIncrement {
		totalActiveBalance = cfg.EffectiveBalanceIncrement
	}
	return effectiveBalance * cfg.BaseRewardFactor / math.IntegerSquareRoot(totalActiveBalance) / cfg.BaseRewardsPerEpoch
}

// IncreaseBalance increases validator with the given 'index' balance by 'delta' in Gwei.
//
//	def increase_balance(state: BeaconState, index: ValidatorIndex, delta: Gwei) -> None:
//	  state.balances[index] += delta
func IncreaseBalance(st state.BeaconState, idx primitives.ValidatorIndex, delta uint64) error {
	balAtIdx, err := st.BalanceAtIndex(idx)
	if err != nil {
		return err
	}
	newBal, err := IncreaseBalanceWithVal(balAtIdx, delta)
	if err != nil {
		return err
	}
	return st.UpdateBalancesAtIndex(idx, newBal)
}

// IncreaseBalanceWithVal increases validator with the given 'index' balance by 'delta' in Gwei.
// This method is flattened version of the helper above, operating on a raw balance.
func IncreaseBalanceWithVal(currBalance, delta uint64) (uint64, error) {
	bal, err := math.Add64(currBalance, delta)
	if err != nil {
		return 0, errors.Wrap(ErrInvariantViolation, "balance overflow")
	}
	return bal, nil
}

// DecreaseBalance decreases validator with the given 'index' balance by 'delta' in Gwei.
//
//	def decrease_balance(state: BeaconState, index: ValidatorIndex, delta: Gwei) -> None:
//	  state.balances[index] = 0 if delta > state.balances[index] else state.balances[index] - delta
func DecreaseBalance(st state.BeaconState, idx primitives.ValidatorIndex, delta uint64) error {
	balAtIdx, err := st.BalanceAtIndex(idx)
	if err != nil {
		return err
	}
	return st.UpdateBalancesAtIndex(idx, DecreaseBalanceWithVal(balAtIdx, delta))
}

// DecreaseBalanceWithVal decreases validator with the given 'index' balance by 'delta' in Gwei.
// This method is flattened version of the helper above, operating on a raw balance.
func DecreaseBalanceWithVal(currBalance, delta uint64) uint64 {
	if delta > currBalance {
		return 0
	}
	return currBalance - delta
}
