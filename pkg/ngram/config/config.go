package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/ngram/pkg/ngram/estimate"
	"github.com/cognicore/ngram/pkg/ngram/internalerr"
	"github.com/cognicore/ngram/pkg/ngram/vocab"
)

// Store drivers
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config represents the model configuration file
type Config struct {
	Order      int            `yaml:"order"`
	Smoothing  Smoothing      `yaml:"smoothing"`
	Seed       *uint64        `yaml:"seed"`
	Vocabulary vocab.Reserved `yaml:"vocabulary"`
	Generation Generation     `yaml:"generation"`
	Store      Store          `yaml:"store"`
	LogLevel   string         `yaml:"log_level"`
}

// Smoothing selects the probability estimator
type Smoothing struct {
	Method string  `yaml:"method"`
	Alpha  float64 `yaml:"alpha"`
}

// Generation bounds sentence sampling for callers that want a guard
type Generation struct {
	MaxLength int `yaml:"max_length"`
}

// Store selects where snapshots are kept
type Store struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// Default returns a bigram MLE configuration with the conventional reserved ids
func Default() Config {
	return Config{
		Order: 2,
		Smoothing: Smoothing{
			Method: estimate.MethodMLE,
			Alpha:  1.0,
		},
		Vocabulary: vocab.Default(),
		Generation: Generation{MaxLength: 100},
		Store: Store{
			Driver: DriverSQLite,
			Path:   "ngram.db",
		},
		LogLevel: "info",
	}
}

// Load reads a YAML config file; fields missing from the file keep their defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML config data over the defaults and validates it
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values no model can be built from
func (c *Config) Validate() error {
	if c.Order < 1 {
		return fmt.Errorf("order %d: %w", c.Order, internalerr.ErrInvalidConfig)
	}
	if _, err := estimate.ByName(c.Smoothing.Method, c.Smoothing.Alpha); err != nil {
		return fmt.Errorf("smoothing: %w: %w", internalerr.ErrInvalidConfig, err)
	}
	if !c.Vocabulary.Distinct() {
		return fmt.Errorf("vocabulary ids %+v must be distinct: %w", c.Vocabulary, internalerr.ErrInvalidConfig)
	}
	if c.Generation.MaxLength < 0 {
		return fmt.Errorf("generation.max_length %d: %w", c.Generation.MaxLength, internalerr.ErrInvalidConfig)
	}
	switch strings.ToLower(c.Store.Driver) {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path required for sqlite: %w", internalerr.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("store.driver %q: %w", c.Store.Driver, internalerr.ErrInvalidConfig)
	}
	return nil
}
