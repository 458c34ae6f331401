package types

// RPCGoodbyeCode is the reason a peer gives when it disconnects.
type RPCGoodbyeCode = SSZUint64

const (
	// Protocol defined codes.
	GoodbyeCodeClientShutdown RPCGoodbyeCode = iota + 1
	GoodbyeCodeWrongNetwork
	GoodbyeCodeGenericError

	// Teku specific codes
	GoodbyeCodeUnableToVerifyNetwork = RPCGoodbyeCode(128)

	// Lighthouse specific codes
	GoodbyeCodeTooManyPeers = RPCGoodbyeCode(129)
	GoodbyeCodeBadScore     = RPCGoodbyeCode(250)
	GoodbyeCodeBanned       = RPCGoodbyeCode(251)
)

// GoodbyeCodeMessages defines a mapping between goodbye codes and string messages.
var GoodbyeCodeMessages = map[RPCGoodbyeCode]string{
	GoodbyeCodeClientShutdown:        "client shutdown",
	GoodbyeCodeWrongNetwork:          "irrelevant network",
	GoodbyeCodeGenericError:          "fault/error",
	GoodbyeCodeUnableToVerifyNetwork: "unable to verify network",
	GoodbyeCodeTooManyPeers:          "client has too many peers",
	GoodbyeCodeBadScore:              "peer score too low",
	GoodbyeCodeBanned:                "client banned this node",
}

// ErrToGoodbyeCode converts given error to RPC goodbye code.
func ErrToGoodbyeCode(err error) RPCGoodbyeCode {
	switch err {
	case ErrWrongForkDigestVersion:
		return GoodbyeCodeWrongNetwork
	default:
		return GoodbyeCodeGenericError
	}
}

// GoodbyeMessage returns the description of a goodbye code, "unknown" for codes nobody defined.
func GoodbyeMessage(code RPCGoodbyeCode) string {
	if msg, ok := GoodbyeCodeMessages[code]; ok {
		return msg
	}
	return "unknown"
}
