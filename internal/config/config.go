// Package config loads the navplanner configuration from TOML.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"navgraph/internal/construct"
)

// ErrInvalid is returned when a loaded configuration cannot be used.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the full navplanner configuration.
type Config struct {
	Graph  construct.Params `toml:"graph"`
	Server Server           `toml:"server"`
}

// Server configures the HTTP interaction layer.
type Server struct {
	Addr       string  `toml:"addr"`
	PickRadius float64 `toml:"pick_radius"` // how far a clicked point may be from a node
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Graph: construct.DefaultParams(),
		Server: Server{
			Addr:       ":8080",
			PickRadius: 0.02,
		},
	}
}

// Load reads path and overlays it on Default. Unknown keys are an error so
// typos do not silently fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return checked(cfg, md, path)
}

// Parse decodes TOML text the same way Load decodes a file.
func Parse(data string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return checked(cfg, md, "input")
}

// checked rejects keys the decoder did not map onto cfg, then validates it.
func checked(cfg Config, md toml.MetaData, source string) (Config, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalid, source, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Graph.Validate(); err != nil {
		return fmt.Errorf("%w: graph: %w", ErrInvalid, err)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is empty", ErrInvalid)
	}
	if c.Server.PickRadius <= 0 {
		return fmt.Errorf("%w: server.pick_radius must be positive, got %g", ErrInvalid, c.Server.PickRadius)
	}
	return nil
}
