// Package config loads in-memory store settings from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	expiringstore "github.com/karupanerura/expiring-store"
	"github.com/karupanerura/expiring-store/expiry"
	"github.com/karupanerura/expiring-store/store/memstore"
)

// Expiry types accepted in ExpiryConfig.Type.
const (
	ExpiryNone = "none"
	ExpiryTTL  = "ttl"
	ExpiryTTI  = "tti"
)

// Config holds the settings of an in-memory store.
//
//	buckets: 256
//	expiry:
//	  type: ttl
//	  duration: 5m
//	log_level: info
type Config struct {
	// Buckets is the number of buckets of the store. Defaults to memstore.DefaultBucketsSize.
	Buckets int `yaml:"buckets"`

	// Expiry selects the expiry policy.
	Expiry ExpiryConfig `yaml:"expiry"`

	// LogLevel is one of: debug | info | warn | error. Empty disables logging.
	LogLevel string `yaml:"log_level"`
}

// ExpiryConfig selects one of the stock expiry policies.
type ExpiryConfig struct {
	// Type is one of: none | ttl | tti. Defaults to none.
	Type string `yaml:"type"`

	// Duration is the time to live or time to idle. Required unless Type is none.
	Duration time.Duration `yaml:"duration"`
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store config: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse parses YAML config data.
// Missing fields are filled with defaults before validation.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("store config: parse yaml: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("store config: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Buckets: memstore.DefaultBucketsSize,
		Expiry:  ExpiryConfig{Type: ExpiryNone},
	}
}

func validate(cfg *Config) error {
	if cfg.Buckets <= 0 {
		return fmt.Errorf("buckets must be positive, got %d", cfg.Buckets)
	}

	switch cfg.Expiry.Type {
	case ExpiryNone:
	case ExpiryTTL, ExpiryTTI:
		if cfg.Expiry.Duration < 0 {
			return fmt.Errorf("expiry duration must not be negative, got %s", cfg.Expiry.Duration)
		}
	default:
		return fmt.Errorf("unknown expiry type %q", cfg.Expiry.Type)
	}

	if cfg.LogLevel != "" {
		if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}
	return nil
}

// Policy returns the expiry policy described by c.
func Policy[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint](c *Config) expiry.Policy[K, V] {
	switch c.Expiry.Type {
	case ExpiryTTL:
		return expiry.TimeToLive[K, V]{Duration: c.Expiry.Duration}
	case ExpiryTTI:
		return expiry.TimeToIdle[K, V]{Duration: c.Expiry.Duration}
	default:
		return expiry.NoExpiration[K, V]{}
	}
}

// StoreOptions returns the memstore options described by c.
func StoreOptions[K expiringstore.KeyConstraint, V expiringstore.ValueConstraint](c *Config) ([]memstore.Option[K, V], error) {
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}
	return []memstore.Option[K, V]{
		memstore.WithBucketsSize[K, V](c.Buckets),
		memstore.WithExpiry(Policy[K, V](c)),
		memstore.WithLogger[K, V](logger),
	}, nil
}

// Logger builds a production zap logger at LogLevel, or a no-op logger if LogLevel is empty.
func (c *Config) Logger() (*zap.Logger, error) {
	if c.LogLevel == "" {
		return zap.NewNop(), nil
	}

	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("store config: log_level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = level
	return zc.Build()
}
