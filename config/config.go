// Package config loads ldraw settings from the environment.
//
// The document model itself never reads the environment; callers load a
// Config here and hand it to ldraw.NewContext.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix used by Load.
const Prefix = "LDRAW"

// Config holds the settings consumed when parsing, validating and writing
// documents.
type Config struct {
	// SearchPath lists library roots in precedence order (LDRAW_SEARCH_PATH,
	// comma separated).
	SearchPath []string `envconfig:"SEARCH_PATH"`

	// Palette is an optional LDConfig.ldr file that replaces the built-in
	// system palette.
	Palette string `envconfig:"PALETTE"`

	CoordinatePrecision          int `envconfig:"COORD_PRECISION" default:"3"`
	PrimitiveCoordinatePrecision int `envconfig:"PRIMITIVE_PRECISION" default:"4"`
	TransformPrecision           int `envconfig:"TRANSFORM_PRECISION" default:"5"`

	FollowRedirects bool `envconfig:"FOLLOW_REDIRECTS" default:"false"`
	FollowAliases   bool `envconfig:"FOLLOW_ALIASES" default:"false"`

	// CacheSize bounds the number of library files kept in memory by the
	// search-path resolver.
	CacheSize int `envconfig:"CACHE_SIZE" default:"512"`
}

// Load reads the configuration from LDRAW_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		CoordinatePrecision:          3,
		PrimitiveCoordinatePrecision: 4,
		TransformPrecision:           5,
		CacheSize:                    512,
	}
}

// Validate checks that the precision classes are usable.
func (c *Config) Validate() error {
	for name, p := range map[string]int{
		"COORD_PRECISION":     c.CoordinatePrecision,
		"PRIMITIVE_PRECISION": c.PrimitiveCoordinatePrecision,
		"TRANSFORM_PRECISION": c.TransformPrecision,
	} {
		if p < 0 || p > 15 {
			return fmt.Errorf("config: %s_%s must be in [0,15], got %d", Prefix, name, p)
		}
	}
	return nil
}
