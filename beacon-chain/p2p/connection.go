package p2p

import (
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/p2p/peers"
	"github.com/sirupsen/logrus"
)

// connectionHandler tracks peers as they connect and disconnect.
func (s *Service) connectionHandler() {
	s.host.Network().Notify(&network.NotifyBundle{
		ConnectedF: func(_ network.Network, conn network.Conn) {
			s.recordPeer(conn)
			log.WithFields(logrus.Fields{
				"peer":      conn.RemotePeer(),
				"direction": conn.Stat().Direction.String(),
			}).Debug("Peer connected")
		},
		DisconnectedF: func(net network.Network, conn network.Conn) {
			pid := conn.RemotePeer()
			// Only mark the peer as disconnected once its last connection is gone.
			if net.Connectedness(pid) == network.Connected {
				return
			}
			if err := s.peers.SetConnectionState(pid, peers.PeerDisconnected); err != nil {
				log.WithError(err).WithField("peer", pid).Debug("Could not update peer connection state")
				return
			}
			log.WithField("peer", pid).Debug("Peer disconnected")
		},
	})
}

// recordPeer marks the remote end of a connection as a connected peer.
func (s *Service) recordPeer(conn network.Conn) {
	pid := conn.RemotePeer()
	if err := s.peers.Add(pid, conn.RemoteMultiaddr(), conn.Stat().Direction); err != nil {
		log.WithError(err).WithField("peer", pid).Debug("Could not add peer")
		return
	}
	state, err := s.peers.ConnectionState(pid)
	if err == nil && state == peers.PeerDisconnecting {
		return
	}
	if err := s.peers.SetConnectionState(pid, peers.PeerConnected); err != nil {
		log.WithError(err).WithField("peer", pid).Debug("Could not update peer connection state")
	}
}
