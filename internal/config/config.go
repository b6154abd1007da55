package config

import "fmt"

// Config holds mavbridge's full runtime configuration, as accepted via
// CLI flags (see cmd/mavbridge).
type Config struct {
	Server  ServerConfig
	MAVLink MAVLinkConfig
	Logging LoggingConfig
}

// ServerConfig configures the HTTP listener and versioning.
type ServerConfig struct {
	Addr              string // host:port
	DefaultAPIVersion bool   // mount routes at both "/" and "/v1" when true
}

// MAVLinkConfig configures the link transport and identity.
type MAVLinkConfig struct {
	Connect     string // e.g. "udpin:0.0.0.0:14550"
	Version     int    // 1 or 2
	SystemID    byte
	ComponentID byte
}

// LoggingConfig configures the ambient logger.
type LoggingConfig struct {
	Verbose bool
}

// Default returns mavbridge's documented defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              "0.0.0.0:8088",
			DefaultAPIVersion: true,
		},
		MAVLink: MAVLinkConfig{
			Connect:     "udpin:0.0.0.0:14550",
			Version:     2,
			SystemID:    255,
			ComponentID: 0,
		},
	}
}

// Validate checks c for internally inconsistent values.
func (c *Config) Validate() error {
	if c.MAVLink.Version != 1 && c.MAVLink.Version != 2 {
		return fmt.Errorf("config: --mavlink must be 1 or 2, got %d", c.MAVLink.Version)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("config: --server must not be empty")
	}
	if c.MAVLink.Connect == "" {
		return fmt.Errorf("config: --connect must not be empty")
	}
	return nil
}
