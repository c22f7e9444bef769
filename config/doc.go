// Package config loads and validates runtime configuration.
//
// Viper reads the resolved YAML file, then .env and process environment
// variables override file values (e.g. EVENTBUS_MAX_LISTENERS overrides
// eventbus.max_listeners). RuntimeConfig carries the sections the runtime
// itself needs; applications embed it and add their own.
//
//	var cfg AppConfig
//	err := config.LoadConfig("vaultpass", &cfg)
package config
