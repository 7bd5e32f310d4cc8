package strategyconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a strategy YAML file and returns Config with raw bytes.
// Fields missing from the file keep their Default() values.
// KnownFields(true): typos and unused fields fail immediately.
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, err
	}

	return cfg, data, nil
}

// Parse decodes and validates strategy YAML
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	// weights are replaced, not merged, when the file sets them
	cfg.Risk.StrategyWeights = nil

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode strategy yaml: %w", err)
	}

	if cfg.Risk.StrategyWeights == nil {
		cfg.Risk.StrategyWeights = defaultWeights()
	}

	if err := Validate(cfg.Risk); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Hash generates SHA256 hash of the risk settings (canonical JSON).
// encoding/json sorts map keys, so equal configs hash equally.
func Hash(cfg RiskConfig) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
