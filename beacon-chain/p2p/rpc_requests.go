package p2p

import (
	"bytes"
	"context"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/p2p/peers"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/p2p/types"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
	"github.com/sirupsen/logrus"
)

// SendStatusRequest performs the status handshake with a peer and returns the status it reported.
// A peer on another fork is sent a goodbye and disconnected.
func (s *Service) SendStatusRequest(ctx context.Context, pid peer.ID) (*containers.Status, error) {
	ours, err := s.cfg.ChainInfo.ChainStatus(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch local chain status")
	}
	stream, err := s.Send(ctx, ours, RPCStatusTopicV1, pid)
	if err != nil {
		return nil, err
	}
	defer closeStream(stream)

	theirs := &containers.Status{}
	if err := ReadChunkedResponse(stream, s.Encoding(), theirs); err != nil {
		s.badResponse(pid, RPCStatusTopicV1)
		return nil, err
	}
	if err := s.peers.SetChainState(pid, theirs); err != nil {
		return nil, err
	}
	if err := validateStatusMessage(ours, theirs); err != nil {
		s.disconnectWithGoodbye(ctx, pid, types.ErrToGoodbyeCode(err))
		return nil, err
	}
	return theirs, nil
}

// SendPingRequest pings a peer, returning the metadata sequence number it reported.
func (s *Service) SendPingRequest(ctx context.Context, pid peer.ID) (uint64, error) {
	seq := types.SSZUint64(s.MetaData().SeqNumber)
	stream, err := s.Send(ctx, &seq, RPCPingTopicV1, pid)
	if err != nil {
		return 0, err
	}
	defer closeStream(stream)

	msg := new(types.SSZUint64)
	if err := ReadChunkedResponse(stream, s.Encoding(), msg); err != nil {
		s.badResponse(pid, RPCPingTopicV1)
		return 0, err
	}
	return uint64(*msg), nil
}

// SendMetaDataRequest asks a peer for its metadata.
func (s *Service) SendMetaDataRequest(ctx context.Context, pid peer.ID) (*containers.MetaData, error) {
	stream, err := s.Send(ctx, nil, RPCMetaDataTopicV1, pid)
	if err != nil {
		return nil, err
	}
	defer closeStream(stream)

	msg := &containers.MetaData{}
	if err := ReadChunkedResponse(stream, s.Encoding(), msg); err != nil {
		s.badResponse(pid, RPCMetaDataTopicV1)
		return nil, err
	}
	return msg, nil
}

// SendGoodbyeMessage tells a peer why it is being disconnected. No response is expected.
func (s *Service) SendGoodbyeMessage(ctx context.Context, code types.RPCGoodbyeCode, pid peer.ID) error {
	stream, err := s.Send(ctx, &code, RPCGoodByeTopicV1, pid)
	if err != nil {
		return err
	}
	closeStream(stream)
	log.WithFields(logrus.Fields{
		"peer":   pid,
		"reason": types.GoodbyeMessage(code),
	}).Debug("Sent goodbye message to peer")
	return nil
}

func (s *Service) disconnectWithGoodbye(ctx context.Context, pid peer.ID, code types.RPCGoodbyeCode) {
	if err := s.SendGoodbyeMessage(ctx, code, pid); err != nil {
		log.WithError(err).WithField("peer", pid).Debug("Could not send goodbye message")
	}
	if err := s.peers.SetConnectionState(pid, peers.PeerDisconnecting); err != nil {
		log.WithError(err).Debug("Could not update peer connection state")
	}
	if err := s.host.Network().ClosePeer(pid); err != nil {
		log.WithError(err).WithField("peer", pid).Debug("Could not disconnect peer")
	}
}

func (s *Service) badResponse(pid peer.ID, topic string) {
	rpcErrors.WithLabelValues(MethodName(topic)).Inc()
	if err := s.peers.IncrementBadResponses(pid); err != nil {
		log.WithError(err).WithField("peer", pid).Trace("Could not record bad response")
	}
}

// validateStatusMessage rejects peers on a different fork.
func validateStatusMessage(ours, theirs *containers.Status) error {
	if !bytes.Equal(ours.ForkDigest[:], theirs.ForkDigest[:]) {
		return types.ErrWrongForkDigestVersion
	}
	return nil
}
