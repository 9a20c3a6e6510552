//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package evloop

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the TOML-loadable configuration for the evloopdemo CLI (see
// cmd/evloopdemo). It isn't consumed by Loop itself; NewLoop takes
// LoopOption values directly. Config exists so the CLI has something to
// parse and validate before building those options.
type Config struct {
	BufferSize  int    `toml:"buffer_size"`
	LogLevel    string `toml:"log_level"`
	MetricsAddr string `toml:"metrics_addr"`
}

// DefaultConfig returns the configuration the CLI runs with absent a file or
// flag override.
func DefaultConfig() *Config {
	return &Config{
		BufferSize:  defaultBufferSize,
		LogLevel:    "info",
		MetricsAddr: "",
	}
}

// LoadConfigFile decodes a TOML file at path into a copy of DefaultConfig,
// so unset fields keep their defaults.
func LoadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("evloop: load config %s: %w", path, err)
	}
	return cfg, nil
}
