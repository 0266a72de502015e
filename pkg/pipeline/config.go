package pipeline

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/boardlayout/pkg/placer"
	"github.com/dshills/boardlayout/pkg/traceconfig"
)

// Config specifies every parameter needed to run the placement +
// routing pipeline end to end. It supports YAML parsing, matching the
// rest of the toolchain's config-loading convention.
type Config struct {
	// Seed is the master seed for deterministic net-ordering shuffles
	// during rip-up. Use 0 to derive one from the config hash.
	Seed uint64 `yaml:"seed" json:"seed"`

	// CatalogDir is the directory of catalog component files.
	CatalogDir string `yaml:"catalogDir" json:"catalogDir"`

	// DesignPath is the path to the design spec JSON file.
	DesignPath string `yaml:"designPath" json:"designPath"`

	// Placer holds the placer's tuning knobs (trace rules, grid step,
	// scoring weights).
	Placer placer.Config `yaml:"placer" json:"placer"`

	// Router holds the router's tuning knobs, including its own copy
	// of the trace rules kept in sync with Placer.Rules at load time.
	Router traceconfig.RouterConfig `yaml:"router" json:"router"`
}

// DefaultConfig returns a Config built from the default placer and
// router configs, with the router's trace rules forced to match the
// placer's so both stages agree on clearances.
func DefaultConfig() *Config {
	placerCfg := placer.DefaultConfig()
	routerCfg := traceconfig.DefaultRouterConfig()
	routerCfg.Rules = placerCfg.Rules
	return &Config{
		Placer: *placerCfg,
		Router: routerCfg,
	}
}

// LoadConfig reads and parses a YAML config file, filling in defaults
// for any zero-valued section.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("pipeline: parse config %s: %w", path, err)
	}
	cfg.Router.Rules = cfg.Placer.Rules
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every nested config section.
func (c *Config) Validate() error {
	if c.CatalogDir == "" {
		return fmt.Errorf("catalogDir is required")
	}
	if c.DesignPath == "" {
		return fmt.Errorf("designPath is required")
	}
	if err := c.Placer.Validate(); err != nil {
		return fmt.Errorf("placer: %w", err)
	}
	if err := c.Router.Validate(); err != nil {
		return fmt.Errorf("router: %w", err)
	}
	return nil
}

// Hash returns a deterministic fingerprint of the config, used to
// derive the router's rip-up RNG alongside the master seed.
func (c *Config) Hash() []byte {
	data, err := yaml.Marshal(c)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", c))
	}
	h := sha256.New()
	h.Write(data)
	return h.Sum(nil)
}

// seedOrRandom returns seed unchanged unless it is 0, in which case it
// derives one from the config hash so runs are still reproducible
// given the same config contents.
func seedOrRandom(seed uint64, configHash []byte) uint64 {
	if seed != 0 {
		return seed
	}
	return binary.BigEndian.Uint64(configHash[:8])
}
