package p2p

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/p2p/encoder"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/p2p/peers"
	p2ptest "github.com/prysmaticlabs/epoch-engine/beacon-chain/p2p/testing"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/p2p/types"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
	"github.com/prysmaticlabs/epoch-engine/testing/assert"
	"github.com/prysmaticlabs/epoch-engine/testing/require"
	"github.com/prysmaticlabs/go-bitfield"
	"github.com/sirupsen/logrus"
	logTest "github.com/sirupsen/logrus/hooks/test"
)

func testStatus(digest [4]byte, epoch uint64) *containers.Status {
	return &containers.Status{
		ForkDigest:     digest,
		FinalizedRoot:  [32]byte{'f', byte(epoch)},
		FinalizedEpoch: 2,
		HeadRoot:       [32]byte{'h', byte(epoch)},
		HeadSlot:       32,
	}
}

func newTestService(t *testing.T, h host.Host, info ChainInfoFetcher) *Service {
	s, err := NewService(context.Background(), &Config{Host: h, ChainInfo: info})
	require.NoError(t, err)
	s.Start()
	t.Cleanup(func() {
		require.NoError(t, s.Stop())
	})
	return s
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	deadline := time.After(5 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatalf("Timed out waiting for: %s", msg)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestService_StartStop(t *testing.T) {
	hosts := p2ptest.ConnectedHosts(t, 1)
	s, err := NewService(context.Background(), &Config{Host: hosts[0], ChainInfo: &p2ptest.MockChainInfo{}})
	require.NoError(t, err)
	assert.ErrorContains(t, "not running", s.Status())
	s.Start()
	require.NoError(t, s.Status())
	assert.Equal(t, hosts[0].ID(), s.PeerID())
	require.NoError(t, s.Stop())
}

func TestService_StartTwice(t *testing.T) {
	hook := logTest.NewGlobal()
	hosts := p2ptest.ConnectedHosts(t, 1)
	s := newTestService(t, hosts[0], &p2ptest.MockChainInfo{})
	s.Start()
	require.LogsContain(t, hook, "Attempted to start p2p service when it was already started")
}

func TestService_BadStaticPeer(t *testing.T) {
	hosts := p2ptest.ConnectedHosts(t, 1)
	s, err := NewService(context.Background(), &Config{
		Host:        hosts[0],
		ChainInfo:   &p2ptest.MockChainInfo{},
		StaticPeers: []string{"not a multiaddr"},
	})
	require.NoError(t, err)
	s.Start()
	defer func() {
		require.NoError(t, s.Stop())
	}()
	assert.NotNil(t, s.Status())
}

func TestNewService_RequiresChainInfo(t *testing.T) {
	_, err := NewService(context.Background(), &Config{})
	require.ErrorContains(t, "chain info fetcher", err)
	_, err = NewService(context.Background(), nil)
	require.ErrorContains(t, "nil p2p config", err)
}

func TestService_StatusHandshake(t *testing.T) {
	hosts := p2ptest.ConnectedHosts(t, 2)
	digest := [4]byte{1, 2, 3, 4}
	infoA := &p2ptest.MockChainInfo{Status: testStatus(digest, 1)}
	infoB := &p2ptest.MockChainInfo{Status: testStatus(digest, 2)}
	a := newTestService(t, hosts[0], infoA)
	b := newTestService(t, hosts[1], infoB)

	got, err := a.SendStatusRequest(context.Background(), b.PeerID())
	require.NoError(t, err)
	assert.DeepEqual(t, infoB.Status, got)

	stored, err := a.Peers().ChainState(b.PeerID())
	require.NoError(t, err)
	assert.DeepEqual(t, infoB.Status, stored)
	state, err := a.Peers().ConnectionState(b.PeerID())
	require.NoError(t, err)
	assert.Equal(t, peers.PeerConnected, state)

	// The responder records the requester's status as well.
	waitFor(t, func() bool {
		st, err := b.Peers().ChainState(a.PeerID())
		return err == nil && st.HeadRoot == infoA.Status.HeadRoot
	}, "responder to record status")
}

func TestService_StatusHandshake_WrongFork(t *testing.T) {
	hosts := p2ptest.ConnectedHosts(t, 2)
	a := newTestService(t, hosts[0], &p2ptest.MockChainInfo{Status: testStatus([4]byte{1}, 1)})
	b := newTestService(t, hosts[1], &p2ptest.MockChainInfo{Status: testStatus([4]byte{2}, 2)})

	_, err := a.SendStatusRequest(context.Background(), b.PeerID())
	require.NotNil(t, err)

	waitFor(t, func() bool {
		return hosts[0].Network().Connectedness(b.PeerID()) != network.Connected
	}, "peers to disconnect")
	bad, err := a.Peers().BadResponses(b.PeerID())
	require.NoError(t, err)
	assert.Equal(t, 1, bad)
}

func TestService_StatusHandshake_ServerError(t *testing.T) {
	hosts := p2ptest.ConnectedHosts(t, 2)
	a := newTestService(t, hosts[0], &p2ptest.MockChainInfo{Status: testStatus([4]byte{1}, 1)})
	b := newTestService(t, hosts[1], &p2ptest.MockChainInfo{Err: errors.New("no state")})

	_, err := a.SendStatusRequest(context.Background(), b.PeerID())
	require.ErrorContains(t, "peer responded with code 2", err)
	require.ErrorContains(t, types.ErrGeneric.Error(), err)
}

func TestService_StatusHandshake_NoLocalStatus(t *testing.T) {
	hosts := p2ptest.ConnectedHosts(t, 2)
	info := &p2ptest.MockChainInfo{Err: errors.New("no state")}
	a := newTestService(t, hosts[0], info)
	b := newTestService(t, hosts[1], &p2ptest.MockChainInfo{Status: testStatus([4]byte{1}, 1)})

	_, err := a.SendStatusRequest(context.Background(), b.PeerID())
	require.ErrorContains(t, "could not fetch local chain status", err)
	assert.Equal(t, 1, info.Calls())
}

func TestService_PingAndMetaData(t *testing.T) {
	hosts := p2ptest.ConnectedHosts(t, 2)
	a := newTestService(t, hosts[0], &p2ptest.MockChainInfo{})
	b := newTestService(t, hosts[1], &p2ptest.MockChainInfo{})

	attnets := bitfield.NewBitvector64()
	attnets.SetBitAt(3, true)
	b.UpdateSubnets(attnets)
	b.UpdateSubnets(attnets)

	seq, err := a.SendPingRequest(context.Background(), b.PeerID())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq)

	md, err := a.SendMetaDataRequest(context.Background(), b.PeerID())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), md.SeqNumber)
	assert.Equal(t, true, md.Attnets.BitAt(3))
	assert.Equal(t, false, md.Attnets.BitAt(4))
}

func TestService_Goodbye(t *testing.T) {
	hook := logTest.NewGlobal()
	level := logrus.GetLevel()
	logrus.SetLevel(logrus.DebugLevel)
	defer logrus.SetLevel(level)
	hosts := p2ptest.ConnectedHosts(t, 2)
	a := newTestService(t, hosts[0], &p2ptest.MockChainInfo{})
	b := newTestService(t, hosts[1], &p2ptest.MockChainInfo{})

	require.NoError(t, a.SendGoodbyeMessage(context.Background(), types.GoodbyeCodeClientShutdown, b.PeerID()))
	waitFor(t, func() bool {
		return hosts[1].Network().Connectedness(a.PeerID()) != network.Connected
	}, "goodbye to disconnect")
	require.LogsContain(t, hook, "Peer has sent a goodbye message")
	require.LogsContain(t, hook, "client shutdown")
}

func TestService_PlainSSZEncoding(t *testing.T) {
	hosts := p2ptest.ConnectedHosts(t, 2)
	digest := [4]byte{9}
	enc := &encoder.SszNetworkEncoder{}
	a, err := NewService(context.Background(), &Config{Host: hosts[0], Encoding: enc, ChainInfo: &p2ptest.MockChainInfo{Status: testStatus(digest, 1)}})
	require.NoError(t, err)
	b, err := NewService(context.Background(), &Config{Host: hosts[1], Encoding: enc, ChainInfo: &p2ptest.MockChainInfo{Status: testStatus(digest, 2)}})
	require.NoError(t, err)
	a.Start()
	b.Start()
	defer func() {
		require.NoError(t, a.Stop())
		require.NoError(t, b.Stop())
	}()

	got, err := a.SendStatusRequest(context.Background(), b.PeerID())
	require.NoError(t, err)
	assert.Equal(t, testStatus(digest, 2).HeadRoot, got.HeadRoot)
}

func TestService_Send_UnsupportedProtocol(t *testing.T) {
	hosts := p2ptest.ConnectedHosts(t, 2)
	a := newTestService(t, hosts[0], &p2ptest.MockChainInfo{})
	_ = newTestService(t, hosts[1], &p2ptest.MockChainInfo{})

	req := &containers.BeaconBlocksByRangeRequest{StartSlot: 1, Count: 1, Step: 1}
	_, err := a.Send(context.Background(), req, RPCBlocksByRangeTopicV1, hosts[1].ID())
	assert.NotNil(t, err)

	_, err = a.Send(context.Background(), struct{}{}, RPCStatusTopicV1, hosts[1].ID())
	require.ErrorContains(t, "cannot be ssz encoded", err)
}

func TestService_InvalidRequest(t *testing.T) {
	hosts := p2ptest.ConnectedHosts(t, 2)
	a := newTestService(t, hosts[0], &p2ptest.MockChainInfo{})
	_ = newTestService(t, hosts[1], &p2ptest.MockChainInfo{})

	// A status request carrying a metadata body has the wrong length.
	md := &containers.MetaData{Attnets: bitfield.NewBitvector64()}
	stream, err := a.Send(context.Background(), md, RPCStatusTopicV1, hosts[1].ID())
	require.NoError(t, err)
	defer closeStream(stream)
	code, msg, err := ReadStatusCode(stream, a.Encoding())
	require.NoError(t, err)
	assert.Equal(t, types.ResponseCodeInvalidRequest, code)
	assert.NotEqual(t, "", msg)
}
