package toon

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config carries the heuristic thresholds of the codec and analyzer as
// named, overridable settings. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	// SchemaConsistency is the minimum key-set consistency ratio for a
	// sequence of mappings to be encoded as a schema block.
	SchemaConsistency float64 `yaml:"schema_consistency"`

	// DictMinCount is the minimum number of occurrences before a literal
	// string is promoted to the string dictionary.
	DictMinCount int `yaml:"dict_min_count"`

	// DictMinLen is the minimum string length for dictionary promotion.
	DictMinLen int `yaml:"dict_min_len"`

	// RefMinSize is the minimum canonical size, in bytes, for a composite
	// subtree to participate in structural deduplication.
	RefMinSize int `yaml:"ref_min_size"`

	// MaxEncodeDepth bounds tree depth on encode.
	MaxEncodeDepth int `yaml:"max_encode_depth"`

	// MaxDecodeDepth bounds reconstruction depth on decode.
	MaxDecodeDepth int `yaml:"max_decode_depth"`

	// MaxDecodeNodes bounds the number of nodes a decode may materialize,
	// counting every dictionary and reference expansion.
	MaxDecodeNodes int `yaml:"max_decode_nodes"`

	// MaxDecodeBytes bounds the total string bytes a decode may
	// materialize. Together with MaxDecodeNodes this is the
	// decompression-bomb guard.
	MaxDecodeBytes int64 `yaml:"max_decode_bytes"`

	// Strategy level bands: expected savings above each bound selects the
	// corresponding level. Must be descending.
	ExtremeBand    float64 `yaml:"extreme_band"`
	AggressiveBand float64 `yaml:"aggressive_band"`
	StandardBand   float64 `yaml:"standard_band"`
}

// DefaultConfig returns the thresholds that reproduce the documented
// savings ranges.
func DefaultConfig() Config {
	return Config{
		SchemaConsistency: 0.7,
		DictMinCount:      3,
		DictMinLen:        4,
		RefMinSize:        8,
		MaxEncodeDepth:    64,
		MaxDecodeDepth:    128,
		MaxDecodeNodes:    1 << 22,
		MaxDecodeBytes:    1 << 28,
		ExtremeBand:       0.6,
		AggressiveBand:    0.4,
		StandardBand:      0.2,
	}
}

// ConfigFromYAML overlays YAML settings onto the defaults. Omitted fields
// keep their default values.
func ConfigFromYAML(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("toon: config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks threshold sanity.
func (c Config) Validate() error {
	if c.SchemaConsistency <= 0 || c.SchemaConsistency > 1 {
		return fmt.Errorf("toon: config: schema_consistency must be in (0,1], got %v", c.SchemaConsistency)
	}
	if c.DictMinCount < 2 {
		return fmt.Errorf("toon: config: dict_min_count must be >= 2, got %d", c.DictMinCount)
	}
	if c.DictMinLen < 1 {
		return fmt.Errorf("toon: config: dict_min_len must be >= 1, got %d", c.DictMinLen)
	}
	if c.RefMinSize < 1 {
		return fmt.Errorf("toon: config: ref_min_size must be >= 1, got %d", c.RefMinSize)
	}
	if c.MaxEncodeDepth < 1 || c.MaxDecodeDepth < 1 {
		return fmt.Errorf("toon: config: depth limits must be >= 1")
	}
	if c.MaxDecodeNodes < 1 || c.MaxDecodeBytes < 1 {
		return fmt.Errorf("toon: config: decode budgets must be >= 1")
	}
	if !(c.ExtremeBand > c.AggressiveBand && c.AggressiveBand > c.StandardBand && c.StandardBand > 0) {
		return fmt.Errorf("toon: config: level bands must be descending and positive")
	}
	return nil
}
