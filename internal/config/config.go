// Package config loads the pipeline configuration from YAML, layering a
// file over built-in defaults.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable the pipeline consumes.
type Config struct {
	// MinPitch and MaxPitch bound the key range folded into the timeline;
	// events outside the range are dropped before ingestion.
	MinPitch uint8 `yaml:"min_pitch"`
	MaxPitch uint8 `yaml:"max_pitch"`

	// BitsPerChannel is how many keys pack into one channel's state word.
	BitsPerChannel int `yaml:"bits_per_channel"`

	// MaxTermsPerFunction caps each encoded step function's term count.
	MaxTermsPerFunction int `yaml:"max_terms_per_function"`

	// MinVelocity gates which note-on events count as "on".
	MinVelocity uint8 `yaml:"min_velocity"`

	// Repeat wraps the driver phase so playback loops.
	Repeat bool `yaml:"repeat"`

	// ChannelCapacity is the fixed channel bound checked at construction.
	ChannelCapacity int `yaml:"channel_capacity"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MinPitch:            27,
		MaxPitch:            111,
		BitsPerChannel:      8,
		MaxTermsPerFunction: 2048,
		MinVelocity:         31,
		Repeat:              false,
		ChannelCapacity:     128,
	}
}

// Load reads path and overlays it on the defaults. Unknown fields are
// rejected so typos surface instead of silently using a default.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks internal consistency.
func (c Config) Validate() error {
	if c.MinPitch > c.MaxPitch {
		return fmt.Errorf("min_pitch %d exceeds max_pitch %d", c.MinPitch, c.MaxPitch)
	}
	if c.BitsPerChannel < 1 || c.BitsPerChannel > 16 {
		return fmt.Errorf("bits_per_channel must be in 1..16, got %d", c.BitsPerChannel)
	}
	if c.MaxTermsPerFunction < 1 {
		return fmt.Errorf("max_terms_per_function must be positive, got %d", c.MaxTermsPerFunction)
	}
	if c.ChannelCapacity < 1 {
		return fmt.Errorf("channel_capacity must be positive, got %d", c.ChannelCapacity)
	}
	return nil
}
