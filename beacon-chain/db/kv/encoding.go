package kv

import (
	"bytes"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	state_native "github.com/prysmaticlabs/epoch-engine/beacon-chain/state/state-native"
	"github.com/prysmaticlabs/epoch-engine/runtime/version"
)

// encodeState serializes the state, prefixed with its version key, and compresses it.
func encodeState(st state.ReadOnlyBeaconState) ([]byte, error) {
	if st == nil {
		return nil, errors.New("cannot encode nil state")
	}
	var key []byte
	switch st.Version() {
	case version.Phase0:
		key = phase0Key
	case version.Altair:
		key = altairKey
	default:
		return nil, errors.Errorf("unsupported state version %s", version.String(st.Version()))
	}
	enc, err := st.MarshalSSZ()
	if err != nil {
		return nil, errors.Wrap(err, "could not marshal state")
	}
	raw := make([]byte, 0, len(key)+len(enc))
	raw = append(raw, key...)
	raw = append(raw, enc...)
	return snappy.Encode(nil, raw), nil
}

// decodeState reverses encodeState.
func decodeState(data []byte) (state.BeaconState, error) {
	data, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, errors.Wrap(err, "could not decompress state")
	}
	switch {
	case bytes.HasPrefix(data, altairKey):
		return state_native.InitializeFromSSZBytesVersion(data[len(altairKey):], version.Altair)
	case bytes.HasPrefix(data, phase0Key):
		return state_native.InitializeFromSSZBytesVersion(data[len(phase0Key):], version.Phase0)
	default:
		return nil, errors.New("encoded state has no known version prefix")
	}
}
