package params

import (
	"encoding/hex"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// UnmarshalConfig takes the raw yaml of a chain config file and applies it on top of the preset
// named by PRESET_BASE (mainnet when absent).
func UnmarshalConfig(yamlFile []byte, conf *BeaconChainConfig) (*BeaconChainConfig, error) {
	// To track if config name is defined inside config file.
	hasConfigName := false
	// Convert 0x hex inputs to fixed bytes arrays
	lines := strings.Split(string(yamlFile), "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "CONFIG_NAME") {
			hasConfigName = true
		}
		if conf == nil && isMinimalPreset(line) {
			conf = MinimalSpecConfig().Copy()
		}
		if !strings.HasPrefix(line, "#") && strings.Contains(line, "0x") {
			parts, err := ReplaceHexStringWithYAMLFormat(line)
			if err != nil {
				return nil, errors.Wrapf(err, "could not parse hex string at line %d", i+1)
			}
			lines[i] = strings.Join(parts, "\n")
		}
	}
	if conf == nil {
		conf = MainnetConfig().Copy()
	}
	yamlFile = []byte(strings.Join(lines, "\n"))
	if err := yaml.UnmarshalStrict(yamlFile, conf); err != nil {
		if _, ok := err.(*yaml.TypeError); !ok {
			return nil, errors.Wrap(err, "Failed to parse chain config yaml file.")
		} else {
			log.WithError(err).Error("There were some issues parsing the config from a yaml file")
		}
	}
	if !hasConfigName {
		conf.ConfigName = "devnet"
	}
	log.Debugf("Config file values: %+v", conf)
	return conf, nil
}

// LoadChainConfigFile load, convert hex values into valid param yaml format,
// unmarshal, and apply beacon chain config file.
func LoadChainConfigFile(configFilePath string, conf *BeaconChainConfig) error {
	yamlFile, err := os.ReadFile(configFilePath) // #nosec G304
	if err != nil {
		return errors.Wrap(err, "Failed to read chain config file.")
	}
	conf, err = UnmarshalConfig(yamlFile, conf)
	if err != nil {
		return err
	}
	OverrideBeaconConfig(conf)
	return nil
}

func isMinimalPreset(line string) bool {
	return strings.HasPrefix(line, "PRESET_BASE: 'minimal'") ||
		strings.HasPrefix(line, `PRESET_BASE: "minimal"`) ||
		strings.HasPrefix(line, "PRESET_BASE: minimal") ||
		strings.HasPrefix(line, "# Minimal preset")
}

// ReplaceHexStringWithYAMLFormat will replace hex strings that the yaml parser will understand.
func ReplaceHexStringWithYAMLFormat(line string) ([]string, error) {
	parts := strings.Split(line, "0x")
	decoded, err := hex.DecodeString(strings.TrimSpace(strings.Trim(parts[1], `"'`)))
	if err != nil {
		return nil, err
	}
	var fixedByte []byte
	switch l := len(decoded); {
	case l == 1:
		fixedByte, err = yaml.Marshal(decoded[0])
		parts[0] += string(fixedByte)
		return parts[:1], err
	case l > 1 && l <= 4:
		var arr [4]byte
		copy(arr[:], decoded)
		fixedByte, err = yaml.Marshal(arr)
	case l > 4 && l <= 8:
		var arr [8]byte
		copy(arr[:], decoded)
		fixedByte, err = yaml.Marshal(arr)
	case l > 8 && l <= 32:
		var arr [32]byte
		copy(arr[:], decoded)
		fixedByte, err = yaml.Marshal(arr)
	default:
		return nil, errors.Errorf("unsupported hex value length %d", l)
	}
	if err != nil {
		return nil, err
	}
	parts[1] = string(fixedByte)
	return parts, nil
}
