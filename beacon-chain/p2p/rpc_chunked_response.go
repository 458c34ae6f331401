package p2p

import (
	"io"
	"time"

	ssz "github.com/ferranbt/fastssz"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/p2p/encoder"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/p2p/types"
	"github.com/prysmaticlabs/epoch-engine/config/params"
)

// ErrNoResponseChunk is returned when a stream closes before a response code was read.
var ErrNoResponseChunk = errors.New("no response chunk received")

// WriteSuccessChunk writes the success code followed by the encoded payload.
func WriteSuccessChunk(stream io.Writer, encoding encoder.NetworkEncoding, msg ssz.Marshaler) error {
	if _, err := stream.Write([]byte{byte(types.ResponseCodeSuccess)}); err != nil {
		return err
	}
	_, err := encoding.EncodeWithMaxLength(stream, msg)
	return err
}

// WriteErrorChunk writes a failure code followed by the encoded error message.
func WriteErrorChunk(stream io.Writer, encoding encoder.NetworkEncoding, code types.RPCResponseCode, reason string) error {
	if code == types.ResponseCodeSuccess {
		return errors.New("error chunk cannot carry the success code")
	}
	if _, err := stream.Write([]byte{byte(code)}); err != nil {
		return err
	}
	msg := types.ErrorMessage(reason)
	if len(msg) > 256 {
		msg = msg[:256]
	}
	_, err := encoding.EncodeWithMaxLength(stream, &msg)
	return err
}

// ReadStatusCode response from a RPC stream. A non-success code comes back together with the
// error message the peer sent.
func ReadStatusCode(stream io.Reader, encoding encoder.NetworkEncoding) (types.RPCResponseCode, string, error) {
	// Set ttfb deadline.
	if s, ok := stream.(network.Stream); ok {
		SetStreamReadDeadline(s, params.BeaconNetworkConfig().TtfbTimeout)
	}
	b := make([]byte, 1)
	if _, err := io.ReadFull(stream, b); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, "", ErrNoResponseChunk
		}
		return 0, "", err
	}
	code := types.RPCResponseCode(b[0])
	if code == types.ResponseCodeSuccess {
		// Set response deadline on a successful response code.
		if s, ok := stream.(network.Stream); ok {
			SetStreamReadDeadline(s, params.BeaconNetworkConfig().RespTimeout)
		}
		return code, "", nil
	}

	msg := &types.ErrorMessage{}
	if err := encoding.DecodeWithMaxLength(stream, msg); err != nil {
		return 0, "", err
	}
	return code, string(*msg), nil
}

// ReadChunkedResponse reads one response chunk into to, failing on a non-success code.
func ReadChunkedResponse(stream io.Reader, encoding encoder.NetworkEncoding, to ssz.Unmarshaler) error {
	code, errMsg, err := ReadStatusCode(stream, encoding)
	if err != nil {
		return err
	}
	if code != types.ResponseCodeSuccess {
		return errors.Errorf("peer responded with code %d: %s", code, errMsg)
	}
	return encoding.DecodeWithMaxLength(stream, to)
}

// SetStreamReadDeadline for reading from a stream, logging at debug when it cannot be set.
func SetStreamReadDeadline(stream network.Stream, duration time.Duration) {
	if err := stream.SetReadDeadline(time.Now().Add(duration)); err != nil {
		log.WithError(err).WithField("peer", stream.Conn().RemotePeer()).Debug("Could not set stream read deadline")
	}
}

// SetStreamWriteDeadline for writing to a stream, logging at debug when it cannot be set.
func SetStreamWriteDeadline(stream network.Stream, duration time.Duration) {
	if err := stream.SetWriteDeadline(time.Now().Add(duration)); err != nil {
		log.WithError(err).WithField("peer", stream.Conn().RemotePeer()).Debug("Could not set stream write deadline")
	}
}
