package peers_test

import (
	"crypto/rand"
	"testing"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/p2p/peers"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
	"github.com/prysmaticlabs/epoch-engine/testing/assert"
	"github.com/prysmaticlabs/epoch-engine/testing/require"
)

func TestStatus(t *testing.T) {
	maxBadResponses := 2
	p := peers.NewStatus(maxBadResponses)
	require.NotNil(t, p)
	assert.Equal(t, maxBadResponses, p.MaxBadResponses())
}

func TestPeerExplicitAdd(t *testing.T) {
	p := peers.NewStatus(2)

	id, err := peer.Decode("16Uiu2HAkyWZ4Ni1TpvDS8dPxsozmHY85KaiFjodQuV6Tz5tkHVeR")
	require.NoError(t, err)
	address, err := ma.NewMultiaddr("/ip4/213.202.254.180/tcp/13000")
	require.NoError(t, err)
	require.NoError(t, p.Add(id, address, network.DirInbound))

	resAddress, err := p.Address(id)
	require.NoError(t, err)
	assert.Equal(t, address, resAddress)
	resDirection, err := p.Direction(id)
	require.NoError(t, err)
	assert.Equal(t, network.DirInbound, resDirection)

	// Update with another explicit add
	address2, err := ma.NewMultiaddr("/ip4/52.23.23.253/tcp/30000/ipfs/QmfAgkmjiZNZhr2wFN9TwaRgHouMTBT6HELyzE5A3BT2wK/p2p-circuit")
	require.NoError(t, err)
	require.NoError(t, p.Add(id, address2, network.DirOutbound))

	resAddress2, err := p.Address(id)
	require.NoError(t, err)
	assert.Equal(t, address2, resAddress2)
	resDirection2, err := p.Direction(id)
	require.NoError(t, err)
	assert.Equal(t, network.DirOutbound, resDirection2)
}

func TestErrUnknownPeer(t *testing.T) {
	p := peers.NewStatus(2)

	id, err := peer.Decode("16Uiu2HAkyWZ4Ni1TpvDS8dPxsozmHY85KaiFjodQuV6Tz5tkHVeR")
	require.NoError(t, err)

	_, err = p.Address(id)
	assert.ErrorIs(t, err, peers.ErrPeerUnknown)
	_, err = p.Direction(id)
	assert.ErrorContains(t, "unknown", err)
	_, err = p.ChainState(id)
	assert.ErrorContains(t, "unknown", err)
	_, err = p.ConnectionState(id)
	assert.ErrorContains(t, "unknown", err)
	_, err = p.ChainStateLastUpdated(id)
	assert.ErrorContains(t, "unknown", err)
	_, err = p.BadResponses(id)
	assert.ErrorContains(t, "unknown", err)
	assert.ErrorContains(t, "unknown", p.SetChainState(id, &containers.Status{}))
	assert.ErrorContains(t, "unknown", p.IncrementBadResponses(id))
	assert.Equal(t, false, p.IsBad(id))
}

func TestPeerChainState(t *testing.T) {
	p := peers.NewStatus(2)
	id := addPeer(t, p, peers.PeerConnected)

	_, err := p.ChainState(id)
	assert.ErrorContains(t, "no known chain state", err)

	finalizedEpoch := primitives.Epoch(123)
	require.NoError(t, p.SetChainState(id, &containers.Status{FinalizedEpoch: finalizedEpoch}))

	resChainState, err := p.ChainState(id)
	require.NoError(t, err)
	assert.Equal(t, finalizedEpoch, resChainState.FinalizedEpoch)
	updated, err := p.ChainStateLastUpdated(id)
	require.NoError(t, err)
	assert.Equal(t, false, updated.IsZero())
}

func TestPeerBadResponses(t *testing.T) {
	p := peers.NewStatus(2)
	id := addPeer(t, p, peers.PeerConnected)

	assert.Equal(t, false, p.IsBad(id))
	require.NoError(t, p.IncrementBadResponses(id))
	resBadResponses, err := p.BadResponses(id)
	require.NoError(t, err)
	assert.Equal(t, 1, resBadResponses)
	assert.Equal(t, false, p.IsBad(id))

	require.NoError(t, p.IncrementBadResponses(id))
	assert.Equal(t, true, p.IsBad(id))
}

func TestPeerConnectionStatuses(t *testing.T) {
	p := peers.NewStatus(2)

	numPeersDisconnected := 11
	for i := 0; i < numPeersDisconnected; i++ {
		addPeer(t, p, peers.PeerDisconnected)
	}
	numPeersConnecting := 7
	for i := 0; i < numPeersConnecting; i++ {
		addPeer(t, p, peers.PeerConnecting)
	}
	numPeersConnected := 43
	for i := 0; i < numPeersConnected; i++ {
		addPeer(t, p, peers.PeerConnected)
	}
	numPeersDisconnecting := 4
	for i := 0; i < numPeersDisconnecting; i++ {
		addPeer(t, p, peers.PeerDisconnecting)
	}

	assert.Equal(t, numPeersConnected, len(p.Connected()))
	assert.Equal(t, numPeersConnecting+numPeersConnected, len(p.Active()))
	assert.Equal(t, numPeersDisconnected+numPeersConnecting+numPeersConnected+numPeersDisconnecting, len(p.All()))
}

func TestBestFinalized(t *testing.T) {
	p := peers.NewStatus(2)

	epochs := []primitives.Epoch{3, 5, 5, 4}
	pids := make([]peer.ID, len(epochs))
	for i, e := range epochs {
		pids[i] = addPeer(t, p, peers.PeerConnected)
		require.NoError(t, p.SetChainState(pids[i], &containers.Status{FinalizedEpoch: e}))
	}
	// Disconnected peers do not count.
	gone := addPeer(t, p, peers.PeerDisconnected)
	require.NoError(t, p.SetChainState(gone, &containers.Status{FinalizedEpoch: 9}))
	// Nor do connected peers without a handshake.
	addPeer(t, p, peers.PeerConnected)

	best, bestPeers := p.BestFinalized()
	assert.Equal(t, primitives.Epoch(5), best)
	require.Equal(t, 2, len(bestPeers))
	for _, pid := range bestPeers {
		assert.Equal(t, true, pid == pids[1] || pid == pids[2])
	}
}

func TestBestFinalized_NoPeers(t *testing.T) {
	p := peers.NewStatus(2)
	best, bestPeers := p.BestFinalized()
	assert.Equal(t, primitives.Epoch(0), best)
	assert.Equal(t, 0, len(bestPeers))
}

// addPeer is a helper to add a peer with a given connection state)
func addPeer(t *testing.T, p *peers.Status, state peers.PeerConnectionState) peer.ID {
	// Set up some peers with different states
	mhBytes := []byte{0x11, 0x04}
	idBytes := make([]byte, 4)
	_, err := rand.Read(idBytes)
	require.NoError(t, err)
	mhBytes = append(mhBytes, idBytes...)
	id, err := peer.IDFromBytes(mhBytes)
	require.NoError(t, err)
	require.NoError(t, p.Add(id, nil, network.DirUnknown))
	require.NoError(t, p.SetConnectionState(id, state))
	return id
}

func TestPeerIDFromKey(t *testing.T) {
	p := peers.NewStatus(2)
	key, _, err := crypto.GenerateSecp256k1Key(rand.Reader)
	require.NoError(t, err)
	id, err := peer.IDFromPrivateKey(key)
	require.NoError(t, err)
	require.NoError(t, p.Add(id, nil, network.DirOutbound))
	state, err := p.ConnectionState(id)
	require.NoError(t, err)
	assert.Equal(t, peers.PeerDisconnected, state)
}
