package runtime

import (
	"github.com/vaultpass/servicekit/config"
)

// Config is the interface constraint for runtime configuration types. Any
// struct that embeds config.RuntimeConfig automatically satisfies it via
// promoted methods.
//
//	type AppConfig struct {
//	    config.RuntimeConfig `yaml:",inline" mapstructure:",squash"`
//	    Storage storage.Config `yaml:"storage" mapstructure:"storage"`
//	}
type Config interface {
	GetRuntimeConfig() *config.RuntimeConfig
	ApplyDefaults()
	Validate() error
}
