package params

import "github.com/pkg/errors"

const (
	Mainnet ConfigName = iota
	Minimal
)

// ConfigNames provides network configuration names.
var ConfigNames = map[ConfigName]string{
	Mainnet: "mainnet",
	Minimal: "minimal",
}

// ConfigName enum describes the type of known network in use.
type ConfigName int

func (n ConfigName) String() string {
	s, ok := ConfigNames[n]
	if !ok {
		return "undefined"
	}
	return s
}

// ByName returns a copy of the named preset.
func ByName(name string) (*BeaconChainConfig, error) {
	switch name {
	case Mainnet.String():
		return MainnetConfig().Copy(), nil
	case Minimal.String():
		return MinimalSpecConfig(), nil
	default:
		return nil, errors.Errorf("unknown config name %q", name)
	}
}
