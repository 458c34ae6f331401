package p2p

import (
	"context"
	"time"

	ssz "github.com/ferranbt/fastssz"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/protocol"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/p2p/encoder"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"github.com/prysmaticlabs/epoch-engine/monitoring/tracing"
	"go.opencensus.io/trace"
)

// Send a message to a specific peer. The returned stream may be used for reading, but has been
// closed for writing. A nil message sends a request without a body.
func (s *Service) Send(ctx context.Context, message interface{}, baseTopic string, pid peer.ID) (network.Stream, error) {
	ctx, span := trace.StartSpan(ctx, "p2p.Send")
	defer span.End()
	topic := ProtocolID(baseTopic, s.Encoding().ProtocolSuffix())
	span.AddAttributes(trace.StringAttribute("topic", topic))

	var msg ssz.Marshaler
	if message != nil {
		m, ok := message.(ssz.Marshaler)
		if !ok {
			err := errors.Errorf("message of type %T cannot be ssz encoded", message)
			tracing.AnnotateError(span, err)
			return nil, err
		}
		msg = m
	}

	dialCtx, cancel := context.WithTimeout(ctx, s.dialTimeout())
	defer cancel()
	stream, err := s.host.NewStream(dialCtx, pid, protocol.ID(topic))
	if err != nil {
		tracing.AnnotateError(span, err)
		return nil, err
	}
	s.recordPeer(stream.Conn())
	SetStreamWriteDeadline(stream, params.BeaconNetworkConfig().RequestTimeout)
	if msg != nil {
		if _, err := s.Encoding().EncodeWithMaxLength(stream, msg); err != nil {
			tracing.AnnotateError(span, err)
			resetStream(stream)
			return nil, err
		}
	}

	// Close stream for writing.
	if err := stream.CloseWrite(); err != nil {
		tracing.AnnotateError(span, err)
		resetStream(stream)
		return nil, err
	}
	rpcRequestsSent.WithLabelValues(MethodName(baseTopic)).Inc()
	return stream, nil
}

func (s *Service) dialTimeout() time.Duration {
	return params.BeaconNetworkConfig().DialTimeout
}

func protocolIDFor(baseTopic string, enc encoder.NetworkEncoding) protocol.ID {
	return protocol.ID(ProtocolID(baseTopic, enc.ProtocolSuffix()))
}

// closeStream closes a stream, logging at debug level if that fails.
func closeStream(stream network.Stream) {
	if err := stream.Close(); err != nil {
		log.WithError(err).WithField("protocol", stream.Protocol()).Debug("Could not close stream")
	}
}

func resetStream(stream network.Stream) {
	if err := stream.Reset(); err != nil {
		log.WithError(err).WithField("protocol", stream.Protocol()).Debug("Could not reset stream")
	}
}
