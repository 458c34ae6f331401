// Package p2p implements the req/resp protocols peers use to exchange chain status and metadata.
// It serves the status, ping, metadata and goodbye methods over libp2p streams and records what
// it learns about every peer.
package p2p

import (
	"context"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/async"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/p2p/encoder"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/p2p/peers"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
	"github.com/prysmaticlabs/epoch-engine/runtime"
	"github.com/prysmaticlabs/go-bitfield"
)

var _ runtime.Service = (*Service)(nil)

// maxBadResponses is the maximum number of bad responses from a peer before we stop talking to it.
const maxBadResponses = 5

// refreshRate is how often the peer gauges are refreshed.
const refreshRate = 12 * time.Second

// ChainInfoFetcher provides the local chain status advertised in handshakes.
type ChainInfoFetcher interface {
	ChainStatus(ctx context.Context) (*containers.Status, error)
}

// Config for the p2p service. Either Host or ListenAddrs must be set.
type Config struct {
	Host            host.Host
	ListenAddrs     []string
	StaticPeers     []string
	Encoding        encoder.NetworkEncoding
	ChainInfo       ChainInfoFetcher
	MetaData        *containers.MetaData
	MaxBadResponses int
}

// Service for managing peer to peer (p2p) req/resp exchanges.
type Service struct {
	cfg        *Config
	ctx        context.Context
	cancel     context.CancelFunc
	host       host.Host
	ownsHost   bool
	peers      *peers.Status
	metaLock   sync.RWMutex
	metaData   *containers.MetaData
	started    bool
	startupErr error
}

// NewService initializes a new p2p service satisfying runtime.Service. No
// connections are made until the Start function is called during the service registry startup.
func NewService(ctx context.Context, cfg *Config) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("nil p2p config")
	}
	if cfg.ChainInfo == nil {
		return nil, errors.New("p2p service requires a chain info fetcher")
	}
	if cfg.Encoding == nil {
		cfg.Encoding = &encoder.SszNetworkEncoder{UseSnappyCompression: true}
	}
	if cfg.MaxBadResponses == 0 {
		cfg.MaxBadResponses = maxBadResponses
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Service{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		peers:  peers.NewStatus(cfg.MaxBadResponses),
	}
	if cfg.MetaData != nil {
		s.metaData = cfg.MetaData.Copy()
	} else {
		s.metaData = &containers.MetaData{Attnets: bitfield.NewBitvector64()}
	}

	s.host = cfg.Host
	if s.host == nil {
		h, err := libp2p.New(libp2p.ListenAddrStrings(cfg.ListenAddrs...))
		if err != nil {
			cancel()
			return nil, errors.Wrap(err, "could not create p2p host")
		}
		s.host = h
		s.ownsHost = true
	}
	return s, nil
}

// Start the p2p service.
func (s *Service) Start() {
	if s.started {
		log.Error("Attempted to start p2p service when it was already started")
		return
	}
	s.started = true

	s.registerRPCHandlers()
	s.connectionHandler()

	for _, addr := range s.host.Addrs() {
		log.WithField("multiAddr", addr.String()+"/p2p/"+s.host.ID().String()).Info("Node started p2p server")
	}
	for _, p := range s.cfg.StaticPeers {
		info, err := peer.AddrInfoFromString(p)
		if err != nil {
			log.WithError(err).WithField("peer", p).Error("Could not parse static peer address")
			s.startupErr = err
			continue
		}
		go s.connectWithPeer(*info)
	}
	async.RunEvery(s.ctx, refreshRate, s.updateMetrics)
}

// Stop the p2p service and terminate all peer connections.
func (s *Service) Stop() error {
	defer s.cancel()
	s.started = false
	for topic := range RPCTopicMappings {
		s.host.RemoveStreamHandler(protocolIDFor(topic, s.cfg.Encoding))
	}
	if s.ownsHost {
		return s.host.Close()
	}
	return nil
}

// Status of the p2p service. Will return an error if the service is considered unhealthy to
// indicate that this node should not serve traffic until the issue has been resolved.
func (s *Service) Status() error {
	if !s.started {
		return errors.New("not running")
	}
	if s.startupErr != nil {
		return s.startupErr
	}
	return nil
}

// Host returns the libp2p host the service runs on.
func (s *Service) Host() host.Host {
	return s.host
}

// PeerID returns the Peer ID of the local peer.
func (s *Service) PeerID() peer.ID {
	return s.host.ID()
}

// Peers returns the peer status interface.
func (s *Service) Peers() *peers.Status {
	return s.peers
}

// Encoding returns the configured networking encoding.
func (s *Service) Encoding() encoder.NetworkEncoding {
	return s.cfg.Encoding
}

// MetaData returns a copy of the metadata advertised to peers.
func (s *Service) MetaData() *containers.MetaData {
	s.metaLock.RLock()
	defer s.metaLock.RUnlock()
	return s.metaData.Copy()
}

// UpdateSubnets replaces the advertised attestation subnets and bumps the sequence number.
func (s *Service) UpdateSubnets(attnets bitfield.Bitvector64) {
	s.metaLock.Lock()
	defer s.metaLock.Unlock()
	s.metaData = &containers.MetaData{
		SeqNumber: s.metaData.SeqNumber + 1,
		Attnets:   bitfield.Bitvector64(append([]byte(nil), attnets...)),
	}
}

func (s *Service) connectWithPeer(info peer.AddrInfo) {
	if info.ID == s.host.ID() {
		return
	}
	if s.peers.IsBad(info.ID) {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, 2*s.dialTimeout())
	defer cancel()
	if err := s.host.Connect(ctx, info); err != nil {
		log.WithError(err).WithField("peer", info.ID).Debug("Could not connect with peer")
		return
	}
	if _, err := s.SendStatusRequest(ctx, info.ID); err != nil {
		log.WithError(err).WithField("peer", info.ID).Debug("Status handshake failed")
	}
}
