package field_params

const (
	ValidatorRegistryLimit       = 1099511627776 // VALIDATOR_REGISTRY_LIMIT
	MaxValidatorsPerCommittee    = 2048          // MAX_VALIDATORS_PER_COMMITTEE
	MaxRequestBlocks             = 1024          // MAX_REQUEST_BLOCKS
	RootLength                   = 32            // RootLength defines the byte length of a Merkle root.
	BLSPubkeyLength              = 48            // BLSPubkeyLength defines the byte length of a BLS public key.
	VersionLength                = 4             // VersionLength defines the byte length of a fork version number.
	DomainLength                 = 4             // DomainLength defines the byte length of a domain type.
	AttestationSubnetCount       = 64            // ATTESTATION_SUBNET_COUNT
	MaxErrorMessageLength        = 256           // Maximum length of a req/resp error message.
)
