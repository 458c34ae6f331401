package p2p

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/epoch-engine/beacon-chain/p2p/types"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
)

// SchemaVersionV1 specifies the schema version for our rpc protocol ID.
const SchemaVersionV1 = "/1"

const (
	// protocolPrefix is the base prefix of every req/resp protocol ID.
	protocolPrefix = "/eth2/beacon_chain/req"

	// StatusMessageName specifies the name for the status message topic.
	StatusMessageName = "/status"
	// GoodbyeMessageName specifies the name for the goodbye message topic.
	GoodbyeMessageName = "/goodbye"
	// PingMessageName Specifies the name for the ping message topic.
	PingMessageName = "/ping"
	// MetadataMessageName specifies the name for the metadata message topic.
	MetadataMessageName = "/metadata"
	// BeaconBlocksByRangeMessageName specifies the name for the beacon blocks by range message topic.
	BeaconBlocksByRangeMessageName = "/beacon_blocks_by_range"
	// BeaconBlocksByRootsMessageName specifies the name for the beacon blocks by root message topic.
	BeaconBlocksByRootsMessageName = "/beacon_blocks_by_root"
)

const (
	// RPCStatusTopicV1 defines the v1 topic for the status rpc method.
	RPCStatusTopicV1 = protocolPrefix + StatusMessageName + SchemaVersionV1
	// RPCGoodByeTopicV1 defines the v1 topic for the goodbye rpc method.
	RPCGoodByeTopicV1 = protocolPrefix + GoodbyeMessageName + SchemaVersionV1
	// RPCPingTopicV1 defines the v1 topic for the ping rpc method.
	RPCPingTopicV1 = protocolPrefix + PingMessageName + SchemaVersionV1
	// RPCMetaDataTopicV1 defines the v1 topic for the metadata rpc method.
	RPCMetaDataTopicV1 = protocolPrefix + MetadataMessageName + SchemaVersionV1
	// RPCBlocksByRangeTopicV1 defines v1 the topic for the blocks by range rpc method.
	RPCBlocksByRangeTopicV1 = protocolPrefix + BeaconBlocksByRangeMessageName + SchemaVersionV1
	// RPCBlocksByRootTopicV1 defines the v1 topic for the blocks by root rpc method.
	RPCBlocksByRootTopicV1 = protocolPrefix + BeaconBlocksByRootsMessageName + SchemaVersionV1
)

// ResponseType tells whether a method answers with one chunk or streams several.
type ResponseType int

const (
	// SingleResponse methods answer with exactly one response chunk.
	SingleResponse ResponseType = iota
	// StreamResponse methods answer with zero or more response chunks.
	StreamResponse
)

// RPCMethod describes the request body and response shape of a req/resp method.
type RPCMethod struct {
	// NewRequest returns an empty request body, nil when the method carries none.
	NewRequest   func() interface{}
	ResponseType ResponseType
}

// RPCTopicMappings map the base protocol ID of each method to its request body and response type.
var RPCTopicMappings = map[string]RPCMethod{
	RPCStatusTopicV1: {
		NewRequest:   func() interface{} { return new(containers.Status) },
		ResponseType: SingleResponse,
	},
	RPCGoodByeTopicV1: {
		NewRequest:   func() interface{} { return new(types.SSZUint64) },
		ResponseType: SingleResponse,
	},
	RPCPingTopicV1: {
		NewRequest:   func() interface{} { return new(types.SSZUint64) },
		ResponseType: SingleResponse,
	},
	RPCMetaDataTopicV1: {
		NewRequest:   func() interface{} { return nil },
		ResponseType: SingleResponse,
	},
	RPCBlocksByRangeTopicV1: {
		NewRequest:   func() interface{} { return new(containers.BeaconBlocksByRangeRequest) },
		ResponseType: StreamResponse,
	},
	RPCBlocksByRootTopicV1: {
		NewRequest:   func() interface{} { return new(types.BeaconBlockByRootsReq) },
		ResponseType: StreamResponse,
	},
}

// ProtocolID builds the full protocol ID of a base topic for the given encoding suffix.
func ProtocolID(baseTopic, encodingSuffix string) string {
	return baseTopic + encodingSuffix
}

// TopicFromProtocolID strips the encoding suffix from a full protocol ID, returning the base topic
// it belongs to.
func TopicFromProtocolID(protocolID string) (string, error) {
	for topic := range RPCTopicMappings {
		if strings.HasPrefix(protocolID, topic+"/") {
			return topic, nil
		}
	}
	return "", errors.Errorf("unknown protocol ID %s", protocolID)
}

// MethodName returns the method name of a base topic, such as "status".
func MethodName(baseTopic string) string {
	name := strings.TrimPrefix(baseTopic, protocolPrefix+"/")
	return strings.TrimSuffix(name, SchemaVersionV1)
}
