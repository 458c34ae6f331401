// Package signing computes the fork digests and signature domains peers use to tell networks apart.
package signing

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/state"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/encoding/bytesutil"
)

// ForkVersionByteLength length of fork version byte array.
const ForkVersionByteLength = 4

// DomainByteLength length of domain byte array.
const DomainByteLength = 4

// ErrNilFork is returned when a domain is requested for a missing fork.
var ErrNilFork = errors.New("nil fork provided")

// Domain returns the domain version for BLS private key to sign and verify.
//
// Consensus pseudocode:
//
//	def get_domain(state: BeaconState, domain_type: DomainType, epoch: Epoch=None) -> Domain:
//	  epoch = get_current_epoch(state) if epoch is None else epoch
//	  fork_version = state.fork.previous_version if epoch < state.fork.epoch else state.fork.current_version
//	  return compute_domain(domain_type, fork_version, state.genesis_validators_root)
func Domain(fork *containers.Fork, epoch primitives.Epoch, domainType [DomainByteLength]byte, genesisRoot []byte) ([]byte, error) {
	if fork == nil {
		return []byte{}, ErrNilFork
	}
	var forkVersion [ForkVersionByteLength]byte
	if epoch < fork.Epoch {
		forkVersion = fork.PreviousVersion
	} else {
		forkVersion = fork.CurrentVersion
	}
	return ComputeDomain(domainType, forkVersion[:], genesisRoot)
}

// ComputeDomain returns the domain version for BLS private key to sign and verify with a zeroed 4-byte
// array as the fork version.
//
//	def compute_domain(domain_type: DomainType, fork_version: Version=None, genesis_validators_root: Root=None) -> Domain:
//	  if fork_version is None:
//	      fork_version = GENESIS_FORK_VERSION
//	  if genesis_validators_root is None:
//	      genesis_validators_root = Root()  # all bytes zero by default
//	  fork_data_root = compute_fork_data_root(fork_version, genesis_validators_root)
//	  return Domain(domain_type + fork_data_root[:28])
func ComputeDomain(domainType [DomainByteLength]byte, forkVersion, genesisValidatorsRoot []byte) ([]byte, error) {
	if forkVersion == nil {
		forkVersion = params.BeaconConfig().GenesisForkVersion
	}
	if genesisValidatorsRoot == nil {
		genesisValidatorsRoot = params.BeaconConfig().ZeroHash[:]
	}
	forkBytes := [ForkVersionByteLength]byte{}
	copy(forkBytes[:], forkVersion)

	forkDataRoot, err := computeForkDataRoot(forkBytes[:], genesisValidatorsRoot)
	if err != nil {
		return nil, err
	}

	return domain(domainType, forkDataRoot[:]), nil
}

func domain(domainType [DomainByteLength]byte, forkDataRoot []byte) []byte {
	var b []byte
	b = append(b, domainType[:4]...)
	b = append(b, forkDataRoot[:28]...)
	return b
}

// this returns the 32byte fork data root for the “current_version“ and “genesis_validators_root“.
// This is used primarily in signature domains to avoid collisions across forks/chains.
//
//	def compute_fork_data_root(current_version: Version, genesis_validators_root: Root) -> Root:
//	  return hash_tree_root(ForkData(
//	      current_version=current_version,
//	      genesis_validators_root=genesis_validators_root,
//	  ))
func computeForkDataRoot(version, root []byte) ([32]byte, error) {
	r, err := (&containers.ForkData{
		CurrentVersion:        bytesutil.ToBytes4(version),
		GenesisValidatorsRoot: bytesutil.ToBytes32(root),
	}).HashTreeRoot()
	if err != nil {
		return [32]byte{}, err
	}
	return r, nil
}

// ComputeForkDigest returns the fork for the current version and genesis validators root
//
//	def compute_fork_digest(current_version: Version, genesis_validators_root: Root) -> ForkDigest:
//	  return ForkDigest(compute_fork_data_root(current_version, genesis_validators_root)[:4])
func ComputeForkDigest(version, genesisValidatorsRoot []byte) ([4]byte, error) {
	dataRoot, err := computeForkDataRoot(version, genesisValidatorsRoot)
	if err != nil {
		return [4]byte{}, err
	}
	return bytesutil.ToBytes4(dataRoot[:]), nil
}

// ForkDigestForState derives the digest of the fork a state is currently on.
func ForkDigestForState(st state.ReadOnlyBeaconState) ([4]byte, error) {
	if st == nil {
		return [4]byte{}, errors.New("nil state")
	}
	fork := st.Fork()
	if fork == nil {
		return [4]byte{}, ErrNilFork
	}
	root := st.GenesisValidatorsRoot()
	return ComputeForkDigest(fork.CurrentVersion[:], root[:])
}
