package encoder

import (
	"fmt"
	"io"
	"math"
	"sync"

	ssz "github.com/ferranbt/fastssz"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/config/params"
	"google.golang.org/protobuf/encoding/protowire"
)

var _ NetworkEncoding = (*SszNetworkEncoder)(nil)

const (
	// ProtocolSuffixSSZ is the last part of the protocol ID for plain SSZ payloads.
	ProtocolSuffixSSZ = "ssz"
	// ProtocolSuffixSSZSnappy is the last part of the protocol ID for snappy framed SSZ payloads.
	ProtocolSuffixSSZSnappy = "ssz_snappy"
)

// This pool defines the sync pool for our buffered snappy writers, so that they
// can be constantly reused.
var bufWriterPool = new(sync.Pool)

// This pool defines the sync pool for our buffered snappy readers, so that they
// can be constantly reused.
var bufReaderPool = new(sync.Pool)

// SszNetworkEncoder supports p2p networking encoding using SimpleSerialize
// with snappy compression (if enabled).
type SszNetworkEncoder struct {
	UseSnappyCompression bool
}

// EncodeGossip the gossip message to the io.Writer. Gossip payloads use the snappy block format.
func (e SszNetworkEncoder) EncodeGossip(w io.Writer, msg ssz.Marshaler) (int, error) {
	if msg == nil {
		return 0, nil
	}
	b, err := msg.MarshalSSZ()
	if err != nil {
		return 0, err
	}
	maxSize := params.BeaconNetworkConfig().GossipMaxSize
	if uint64(len(b)) > maxSize {
		return 0, errors.Errorf("gossip message exceeds max gossip size: %d bytes > %d bytes", len(b), maxSize)
	}
	if e.UseSnappyCompression {
		b = snappy.Encode(nil /*dst*/, b)
	}
	return w.Write(b)
}

// EncodeWithMaxLength the message to the io.Writer. This encoding prefixes the byte slice with a varint
// to indicate the size of the uncompressed message. This checks that the encoded message isn't larger
// than the maximum chunk size.
func (e SszNetworkEncoder) EncodeWithMaxLength(w io.Writer, msg ssz.Marshaler) (int, error) {
	if msg == nil {
		return 0, nil
	}
	b, err := msg.MarshalSSZ()
	if err != nil {
		return 0, err
	}
	maxChunk := params.BeaconNetworkConfig().MaxChunkSize
	if uint64(len(b)) > maxChunk {
		return 0, fmt.Errorf(
			"size of encoded message is %d which is larger than the provided max limit of %d",
			len(b),
			maxChunk,
		)
	}
	// write varint first
	_, err = w.Write(protowire.AppendVarint(nil, uint64(len(b))))
	if err != nil {
		return 0, err
	}
	if e.UseSnappyCompression {
		return writeSnappyBuffer(w, b)
	}
	return w.Write(b)
}

// DecodeGossip decodes the bytes to the gossip message provided.
func (e SszNetworkEncoder) DecodeGossip(b []byte, to ssz.Unmarshaler) error {
	maxSize := params.BeaconNetworkConfig().GossipMaxSize
	if e.UseSnappyCompression {
		var err error
		b, err = DecodeSnappy(b, maxSize)
		if err != nil {
			return err
		}
	}
	if uint64(len(b)) > maxSize {
		return errors.Errorf("gossip message exceeds max gossip size: %d bytes > %d bytes", len(b), maxSize)
	}
	return to.UnmarshalSSZ(b)
}

// DecodeSnappy decodes a snappy compressed message.
func DecodeSnappy(msg []byte, maxSize uint64) ([]byte, error) {
	size, err := snappy.DecodedLen(msg)
	if err != nil {
		return nil, err
	}
	if uint64(size) > maxSize {
		return nil, errors.Errorf("snappy message exceeds max size: %d bytes > %d bytes", size, maxSize)
	}
	msg, err = snappy.Decode(nil /*dst*/, msg)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// DecodeWithMaxLength the bytes from io.Reader to the message provided.
// This checks that the decoded message isn't larger than the maximum chunk size.
func (e SszNetworkEncoder) DecodeWithMaxLength(r io.Reader, to ssz.Unmarshaler) error {
	msgLen, err := readVarint(r)
	if err != nil {
		return err
	}
	maxChunk := params.BeaconNetworkConfig().MaxChunkSize
	if msgLen > maxChunk {
		return fmt.Errorf(
			"remaining bytes %d goes over the provided max limit of %d",
			msgLen,
			maxChunk,
		)
	}
	if e.UseSnappyCompression {
		msgMax, err := e.MaxLength(msgLen)
		if err != nil {
			return err
		}
		bufR := newBufferedReader(io.LimitReader(r, int64(msgMax)))
		defer bufReaderPool.Put(bufR)
		r = bufR
	}
	buf := make([]byte, msgLen)
	// Returns an error if less than msgLen bytes
	// are read. This ensures we read exactly the
	// required amount.
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	return to.UnmarshalSSZ(buf)
}

// ProtocolSuffix returns the appropriate suffix for protocol IDs.
func (e SszNetworkEncoder) ProtocolSuffix() string {
	if e.UseSnappyCompression {
		return "/" + ProtocolSuffixSSZSnappy
	}
	return "/" + ProtocolSuffixSSZ
}

// MaxLength specifies the maximum possible length of an encoded
// chunk of data.
func (e SszNetworkEncoder) MaxLength(length uint64) (int, error) {
	if length > math.MaxInt64 {
		return 0, errors.Errorf("invalid length provided: %d", length)
	}
	if !e.UseSnappyCompression {
		return int(length), nil
	}
	maxLen := snappy.MaxEncodedLen(int(length))
	if maxLen < 0 {
		return 0, errors.Errorf("max encoded length is negative: %d", maxLen)
	}
	return maxLen, nil
}

// Writes a bytes value through a snappy buffered writer.
func writeSnappyBuffer(w io.Writer, b []byte) (int, error) {
	bufWriter := newBufferedWriter(w)
	defer bufWriterPool.Put(bufWriter)
	num, err := bufWriter.Write(b)
	if err != nil {
		// Close buf writer in the event of an error.
		if err := bufWriter.Close(); err != nil {
			return 0, err
		}
		return 0, err
	}
	return num, bufWriter.Close()
}

// Instantiates a new instance of the snappy buffered reader
// using our sync pool.
func newBufferedReader(r io.Reader) *snappy.Reader {
	rawReader := bufReaderPool.Get()
	if rawReader == nil {
		return snappy.NewReader(r)
	}
	bufR, ok := rawReader.(*snappy.Reader)
	if !ok {
		return snappy.NewReader(r)
	}
	bufR.Reset(r)
	return bufR
}

// Instantiates a new instance of the snappy buffered writer
// using our sync pool.
func newBufferedWriter(w io.Writer) *snappy.Writer {
	rawBufWriter := bufWriterPool.Get()
	if rawBufWriter == nil {
		return snappy.NewBufferedWriter(w)
	}
	bufW, ok := rawBufWriter.(*snappy.Writer)
	if !ok {
		return snappy.NewBufferedWriter(w)
	}
	bufW.Reset(w)
	return bufW
}
