// Package config holds the cache geometry and protocol selection that
// parameterise a simulation run: a CLI-settable struct with JSON
// load/save for scripted sweeps over geometry.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/cachesim/coherence"
)

// Config holds the geometry and protocol parameters for a simulation
// run. All sizes are in bytes except where noted; latencies are in
// cycles.
type Config struct {
	Protocol coherence.Protocol `json:"-"`

	// ProtocolName is the JSON-facing mirror of Protocol ("mesi" or
	// "dragon"), since coherence.Protocol has no natural JSON encoding.
	ProtocolName string `json:"protocol"`

	WordSize     int `json:"word_size"`
	AddressSize  int `json:"address_size"`
	MemLat       int `json:"mem_lat"`
	CacheHitLat  int `json:"cache_hit_lat"`
	BusWordTfLat int `json:"bus_word_tf_lat"`
	BlockSize    int `json:"block_size"`
	CacheSize    int `json:"cache_size"`
	Assoc        int `json:"assoc"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Protocol:     coherence.MESI,
		ProtocolName: "mesi",
		WordSize:     4,
		AddressSize:  4,
		MemLat:       100,
		CacheHitLat:  1,
		BusWordTfLat: 2,
		BlockSize:    32,
		CacheSize:    4096,
		Assoc:        2,
	}
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// NumSets returns NUM_SETS = (CACHE_SIZE / WORD_SIZE) / ASSOC.
func (c *Config) NumSets() int {
	return (c.CacheSize / c.WordSize) / c.Assoc
}

// Validate checks the geometry constraints and resolves ProtocolName
// into Protocol.
func (c *Config) Validate() error {
	if c.WordSize <= 0 {
		return fmt.Errorf("word_size must be > 0")
	}
	if c.AddressSize <= 0 {
		return fmt.Errorf("address_size must be > 0")
	}
	if c.MemLat <= 0 {
		return fmt.Errorf("mem_lat must be > 0")
	}
	if c.CacheHitLat <= 0 {
		return fmt.Errorf("cache_hit_lat must be > 0")
	}
	if c.BusWordTfLat <= 0 {
		return fmt.Errorf("bus_word_tf_lat must be > 0")
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("block_size must be > 0")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be > 0")
	}
	if c.Assoc <= 0 {
		return fmt.Errorf("assoc must be > 0")
	}
	if (c.CacheSize/c.WordSize)%c.Assoc != 0 {
		return fmt.Errorf("cache_size / word_size must be divisible by assoc")
	}
	if c.BlockSize%c.WordSize != 0 {
		return fmt.Errorf("block_size must be divisible by word_size")
	}

	switch c.ProtocolName {
	case "mesi":
		c.Protocol = coherence.MESI
	case "dragon":
		c.Protocol = coherence.Dragon
	default:
		return fmt.Errorf("protocol must be %q or %q, got %q", "mesi", "dragon", c.ProtocolName)
	}

	return nil
}

// LoadJSON reads a Config from a JSON file, starting from Default() so
// that an omitted field keeps its default value.
func LoadJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// SaveJSON writes a Config to a JSON file.
func (c *Config) SaveJSON(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
