package config

import (
	"fmt"
	"time"

	"github.com/vaultpass/servicekit/logger"
	"github.com/vaultpass/servicekit/validation"
)

// RuntimeConfig is the root configuration of a service runtime. Projects
// embed it in their own config structs and add their domain sections.
//
// Example:
//
//	type AppConfig struct {
//	    config.RuntimeConfig `yaml:",inline" mapstructure:",squash"`
//	    Storage storage.Config `yaml:"storage" mapstructure:"storage"`
//	}
type RuntimeConfig struct {
	Name        string `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string `yaml:"environment" mapstructure:"environment" validate:"omitempty,oneof=development staging production"`
	Version     string `yaml:"version" mapstructure:"version"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`

	Logging     logger.Config     `yaml:"logging" mapstructure:"logging"`
	EventBus    EventBusConfig    `yaml:"eventbus" mapstructure:"eventbus"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Performance PerformanceConfig `yaml:"performance" mapstructure:"performance"`
	Health      HealthConfig      `yaml:"health" mapstructure:"health"`
	Diag        DiagConfig        `yaml:"diag" mapstructure:"diag"`
}

// EventBusConfig bounds the event bus.
type EventBusConfig struct {
	HistoryCapacity int `yaml:"history_capacity" mapstructure:"history_capacity" validate:"omitempty,min=1"`
	MaxListeners    int `yaml:"max_listeners" mapstructure:"max_listeners" validate:"omitempty,min=1"`
}

// CacheConfig sets the caching decorator defaults.
type CacheConfig struct {
	DefaultTTL time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
	MaxEntries int           `yaml:"max_entries" mapstructure:"max_entries" validate:"omitempty,min=1"`
}

// PerformanceConfig sets the performance decorator defaults.
type PerformanceConfig struct {
	SamplingRate  float64       `yaml:"sampling_rate" mapstructure:"sampling_rate" validate:"omitempty,gt=0,lte=1"`
	SlowThreshold time.Duration `yaml:"slow_threshold" mapstructure:"slow_threshold"`
	TrackMemory   bool          `yaml:"track_memory" mapstructure:"track_memory"`
	WindowSize    int           `yaml:"window_size" mapstructure:"window_size" validate:"omitempty,min=1"`
}

// HealthConfig controls health status caching in the service registry.
type HealthConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// DiagConfig controls the diagnostics HTTP endpoint.
type DiagConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr" validate:"omitempty,listen_addr"`
}

// GetRuntimeConfig returns the embedded runtime configuration. Embedding
// structs get this promoted so they satisfy the Config interface.
func (c *RuntimeConfig) GetRuntimeConfig() *RuntimeConfig {
	return c
}

// ApplyDefaults fills unset fields. Embedding structs override this and call
// c.RuntimeConfig.ApplyDefaults() first.
func (c *RuntimeConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	c.Logging.ApplyDefaults()
	if c.Debug && c.Logging.Level == "info" {
		c.Logging.Level = "debug"
	}
	if c.EventBus.HistoryCapacity == 0 {
		c.EventBus.HistoryCapacity = 100
	}
	if c.EventBus.MaxListeners == 0 {
		c.EventBus.MaxListeners = 100
	}
	if c.Cache.DefaultTTL == 0 {
		c.Cache.DefaultTTL = 5 * time.Minute
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 1000
	}
	if c.Performance.SamplingRate == 0 {
		c.Performance.SamplingRate = 1.0
	}
	if c.Performance.WindowSize == 0 {
		c.Performance.WindowSize = 1000
	}
	if c.Health.CacheTTL == 0 {
		c.Health.CacheTTL = 30 * time.Second
	}
	if c.Diag.Addr == "" {
		c.Diag.Addr = "localhost:6060"
	}
}

// Validate checks the configuration. Embedding structs override this and
// call c.RuntimeConfig.Validate() first.
func (c *RuntimeConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
