package types

import "errors"

// RPCResponseCode is the first byte of every response chunk.
type RPCResponseCode byte

const (
	// ResponseCodeSuccess is followed by a payload matching the expected response schema.
	ResponseCodeSuccess RPCResponseCode = 0x00
	// ResponseCodeInvalidRequest means the request was malformed or semantically invalid.
	ResponseCodeInvalidRequest RPCResponseCode = 0x01
	// ResponseCodeServerError means the responder failed while serving a valid request.
	ResponseCodeServerError RPCResponseCode = 0x02
)

var (
	ErrWrongForkDigestVersion = errors.New("wrong fork digest version")
	ErrInvalidEpoch           = errors.New("invalid epoch")
	ErrInvalidFinalizedRoot   = errors.New("invalid finalized root")
	ErrInvalidSequenceNum     = errors.New("invalid sequence number provided")
	ErrGeneric                = errors.New("internal service error")
	ErrInvalidRequest         = errors.New("invalid range, step or count")
	ErrIODeadline             = errors.New("i/o deadline exceeded")
	ErrUnsupportedMethod      = errors.New("method not supported by this node")
)
