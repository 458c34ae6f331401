// Package peers tracks the peers of the req/resp service: their connection state, the last
// Status handshake they answered and how many malformed responses they sent.
//
// Entries are kept for the lifetime of the service so a peer that reconnects keeps its history.
// A peer is bad once it reaches the configured number of bad responses.
package peers

import (
	"sync"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/primitives"
)

// ErrPeerUnknown is returned when a peer was never added.
var ErrPeerUnknown = errors.New("peer unknown")

// PeerConnectionState is the state of the connection.
type PeerConnectionState int

const (
	// PeerDisconnected means there is no connection to the peer.
	PeerDisconnected PeerConnectionState = iota
	// PeerConnecting means there is an on-going attempt to connect to the peer.
	PeerConnecting
	// PeerConnected means the peer has an active connection.
	PeerConnected
	// PeerDisconnecting means there is an on-going attempt to disconnect from the peer.
	PeerDisconnecting
)

// Status holds the per peer records.
type Status struct {
	lock            sync.RWMutex
	maxBadResponses int
	records         map[peer.ID]*record
}

type record struct {
	address      ma.Multiaddr
	direction    network.Direction
	state        PeerConnectionState
	chainState   *containers.Status
	chainUpdated time.Time
	badResponses int
}

// NewStatus creates a new status entity.
func NewStatus(maxBadResponses int) *Status {
	return &Status{
		maxBadResponses: maxBadResponses,
		records:         make(map[peer.ID]*record),
	}
}

// MaxBadResponses returns the number of bad responses after which a peer is bad.
func (p *Status) MaxBadResponses() int {
	return p.maxBadResponses
}

// Add adds a peer. Adding a known peer refreshes its address and direction.
func (p *Status) Add(pid peer.ID, address ma.Multiaddr, direction network.Direction) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	r, ok := p.records[pid]
	if !ok {
		r = &record{state: PeerDisconnected}
		p.records[pid] = r
	}
	r.address = address
	r.direction = direction
	return nil
}

func (p *Status) read(pid peer.ID, f func(r *record)) error {
	p.lock.RLock()
	defer p.lock.RUnlock()
	r, ok := p.records[pid]
	if !ok {
		return errors.Wrapf(ErrPeerUnknown, "%v", pid)
	}
	f(r)
	return nil
}

func (p *Status) update(pid peer.ID, f func(r *record)) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	r, ok := p.records[pid]
	if !ok {
		return errors.Wrapf(ErrPeerUnknown, "%v", pid)
	}
	f(r)
	return nil
}

// Address returns the multiaddress of the given remote peer.
func (p *Status) Address(pid peer.ID) (ma.Multiaddr, error) {
	var addr ma.Multiaddr
	err := p.read(pid, func(r *record) { addr = r.address })
	return addr, err
}

// Direction returns the direction of the given remote peer.
func (p *Status) Direction(pid peer.ID) (network.Direction, error) {
	dir := network.DirUnknown
	err := p.read(pid, func(r *record) { dir = r.direction })
	return dir, err
}

// SetChainState records the Status handshake answered by the given remote peer.
func (p *Status) SetChainState(pid peer.ID, chainState *containers.Status) error {
	return p.update(pid, func(r *record) {
		r.chainState = chainState
		r.chainUpdated = time.Now()
	})
}

// ChainState returns the last Status handshake answered by the given remote peer.
func (p *Status) ChainState(pid peer.ID) (*containers.Status, error) {
	var cs *containers.Status
	if err := p.read(pid, func(r *record) { cs = r.chainState }); err != nil {
		return nil, err
	}
	if cs == nil {
		return nil, errors.Errorf("peer %v has no known chain state", pid)
	}
	return cs, nil
}

// ChainStateLastUpdated returns when the chain state of the given remote peer was last set.
func (p *Status) ChainStateLastUpdated(pid peer.ID) (time.Time, error) {
	var updated time.Time
	err := p.read(pid, func(r *record) { updated = r.chainUpdated })
	return updated, err
}

// SetConnectionState sets the connection state of the given remote peer.
func (p *Status) SetConnectionState(pid peer.ID, state PeerConnectionState) error {
	return p.update(pid, func(r *record) { r.state = state })
}

// ConnectionState returns the connection state of the given remote peer.
func (p *Status) ConnectionState(pid peer.ID) (PeerConnectionState, error) {
	state := PeerDisconnected
	err := p.read(pid, func(r *record) { state = r.state })
	return state, err
}

// IncrementBadResponses counts a malformed response from the given remote peer.
func (p *Status) IncrementBadResponses(pid peer.ID) error {
	return p.update(pid, func(r *record) { r.badResponses++ })
}

// BadResponses returns the number of malformed responses from the given remote peer.
func (p *Status) BadResponses(pid peer.ID) (int, error) {
	n := -1
	err := p.read(pid, func(r *record) { n = r.badResponses })
	return n, err
}

// IsBad reports whether the peer reached the bad response limit. Unknown peers are not bad.
func (p *Status) IsBad(pid peer.ID) bool {
	bad := false
	_ = p.read(pid, func(r *record) { bad = r.badResponses >= p.maxBadResponses })
	return bad
}

func (p *Status) filter(keep func(r *record) bool) []peer.ID {
	p.lock.RLock()
	defer p.lock.RUnlock()
	pids := make([]peer.ID, 0, len(p.records))
	for pid, r := range p.records {
		if keep(r) {
			pids = append(pids, pid)
		}
	}
	return pids
}

// Connected returns the peers that are connected.
func (p *Status) Connected() []peer.ID {
	return p.filter(func(r *record) bool { return r.state == PeerConnected })
}

// Active returns the peers that are connecting or connected.
func (p *Status) Active() []peer.ID {
	return p.filter(func(r *record) bool { return r.state == PeerConnecting || r.state == PeerConnected })
}

// All returns all the peers regardless of state.
func (p *Status) All() []peer.ID {
	return p.filter(func(*record) bool { return true })
}

// BestFinalized returns the highest finalized epoch among connected peers that answered a
// status request, together with the peers that reached it.
func (p *Status) BestFinalized() (primitives.Epoch, []peer.ID) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	var best primitives.Epoch
	pids := make([]peer.ID, 0)
	for pid, r := range p.records {
		if r.state != PeerConnected || r.chainState == nil {
			continue
		}
		switch epoch := r.chainState.FinalizedEpoch; {
		case epoch > best:
			best = epoch
			pids = append(pids[:0], pid)
		case epoch == best:
			pids = append(pids, pid)
		}
	}
	return best, pids
}
