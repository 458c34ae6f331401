package p2p

import (
	"context"

	ssz "github.com/ferranbt/fastssz"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/p2p/peers"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/p2p/types"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
	"github.com/prysmaticlabs/epoch-engine/monitoring/tracing"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

// rpcHandler is responsible for responding to an incoming request. The message is nil for methods
// without a request body.
type rpcHandler func(context.Context, interface{}, network.Stream) error

// registerRPCHandlers for p2p RPC.
func (s *Service) registerRPCHandlers() {
	s.registerRPC(RPCStatusTopicV1, s.statusRPCHandler)
	s.registerRPC(RPCGoodByeTopicV1, s.goodbyeRPCHandler)
	s.registerRPC(RPCPingTopicV1, s.pingHandler)
	s.registerRPC(RPCMetaDataTopicV1, s.metaDataHandler)
}

// registerRPC for a given topic with an expected message type.
func (s *Service) registerRPC(baseTopic string, handle rpcHandler) {
	topic := protocolIDFor(baseTopic, s.Encoding())
	method := MethodName(baseTopic)
	newRequest := RPCTopicMappings[baseTopic].NewRequest
	log := log.WithField("topic", string(topic))

	s.host.SetStreamHandler(topic, func(stream network.Stream) {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("error", r).Error("Panic occurred")
			}
		}()
		ctx, cancel := context.WithTimeout(s.ctx, params.BeaconNetworkConfig().TtfbTimeout+params.BeaconNetworkConfig().RespTimeout)
		defer cancel()
		ctx, span := trace.StartSpan(ctx, "p2p.rpc")
		defer span.End()
		span.AddAttributes(trace.StringAttribute("topic", string(topic)))
		span.AddAttributes(trace.StringAttribute("peer", stream.Conn().RemotePeer().String()))

		// Resetting after closing is a no-op so defer a reset in case something goes wrong.
		// It's up to the handler to Close the stream (send an EOF) if
		// it successfully writes a response. We don't blindly call
		// Close here because we may have only written a partial
		// response.
		defer resetStream(stream)

		rpcRequestsReceived.WithLabelValues(method).Inc()
		s.recordPeer(stream.Conn())
		SetStreamReadDeadline(stream, params.BeaconNetworkConfig().TtfbTimeout)
		SetStreamWriteDeadline(stream, params.BeaconNetworkConfig().RespTimeout)

		var msg interface{}
		if req := newRequest(); req != nil {
			unmarshaler, ok := req.(ssz.Unmarshaler)
			if !ok {
				log.Errorf("Request type %T cannot be ssz decoded", req)
				return
			}
			if err := s.Encoding().DecodeWithMaxLength(stream, unmarshaler); err != nil {
				log.WithError(err).Debug("Could not decode stream message")
				tracing.AnnotateError(span, err)
				s.badResponse(stream.Conn().RemotePeer(), baseTopic)
				s.writeErrorResponse(stream, types.ResponseCodeInvalidRequest, err.Error())
				return
			}
			msg = req
		}
		if err := handle(ctx, msg, stream); err != nil {
			rpcErrors.WithLabelValues(method).Inc()
			tracing.AnnotateError(span, err)
			log.WithError(err).Debug("Could not handle p2p RPC")
		}
	})
}

func (s *Service) writeErrorResponse(stream network.Stream, code types.RPCResponseCode, reason string) {
	if err := WriteErrorChunk(stream, s.Encoding(), code, reason); err != nil {
		log.WithError(err).Debug("Could not write error response")
		return
	}
	closeStream(stream)
}

// statusRPCHandler reads the incoming Status RPC from the peer and responds with our version of a
// status message. A peer on a different fork is told so and disconnected.
func (s *Service) statusRPCHandler(ctx context.Context, msg interface{}, stream network.Stream) error {
	m, ok := msg.(*containers.Status)
	if !ok {
		return errors.New("message is not type *containers.Status")
	}
	pid := stream.Conn().RemotePeer()
	if err := s.peers.SetChainState(pid, m.Copy()); err != nil {
		return err
	}

	ours, err := s.cfg.ChainInfo.ChainStatus(ctx)
	if err != nil {
		s.writeErrorResponse(stream, types.ResponseCodeServerError, types.ErrGeneric.Error())
		return errors.Wrap(err, "could not fetch local chain status")
	}
	if err := validateStatusMessage(ours, m); err != nil {
		log.WithFields(logrus.Fields{
			"peer":  pid,
			"error": err,
		}).Debug("Invalid status message from peer")
		s.writeErrorResponse(stream, types.ResponseCodeInvalidRequest, err.Error())
		go s.disconnectWithGoodbye(s.ctx, pid, types.ErrToGoodbyeCode(err))
		return err
	}
	if err := WriteSuccessChunk(stream, s.Encoding(), ours); err != nil {
		return err
	}
	closeStream(stream)
	return nil
}

// goodbyeRPCHandler reads the incoming goodbye rpc message from the peer.
func (s *Service) goodbyeRPCHandler(_ context.Context, msg interface{}, stream network.Stream) error {
	m, ok := msg.(*types.SSZUint64)
	if !ok {
		return errors.New("message is not type *types.SSZUint64")
	}
	pid := stream.Conn().RemotePeer()
	reason := types.GoodbyeMessage(*m)
	log.WithFields(logrus.Fields{
		"peer":   pid,
		"reason": reason,
	}).Debug("Peer has sent a goodbye message")
	goodbyesReceived.WithLabelValues(reason).Inc()
	closeStream(stream)

	if err := s.peers.SetConnectionState(pid, peers.PeerDisconnecting); err != nil {
		return err
	}
	return s.host.Network().ClosePeer(pid)
}

// pingHandler reads the incoming ping rpc message from the peer and answers with our metadata
// sequence number.
func (s *Service) pingHandler(_ context.Context, msg interface{}, stream network.Stream) error {
	m, ok := msg.(*types.SSZUint64)
	if !ok {
		return errors.New("message is not type *types.SSZUint64")
	}
	log.WithFields(logrus.Fields{
		"peer":     stream.Conn().RemotePeer(),
		"sequence": uint64(*m),
	}).Trace("Received ping")

	seq := types.SSZUint64(s.MetaData().SeqNumber)
	if err := WriteSuccessChunk(stream, s.Encoding(), &seq); err != nil {
		return err
	}
	closeStream(stream)
	return nil
}

// metaDataHandler answers with the metadata we advertise.
func (s *Service) metaDataHandler(_ context.Context, _ interface{}, stream network.Stream) error {
	if err := WriteSuccessChunk(stream, s.Encoding(), s.MetaData()); err != nil {
		return err
	}
	closeStream(stream)
	return nil
}
