package config

import "time"

// Config holds runtime settings for the SecureClip CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the relay server.
//   - RequestTimeout: per-request HTTP timeout.
//   - RetryAttempts / RetryDelay: retry policy for transient relay failures.
type Config struct {
	ServerEndpointAddr string
	RequestTimeout     time.Duration
	RetryAttempts      int
	RetryDelay         time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.RequestTimeout = 10 * time.Second
	c.RetryAttempts = 3
	c.RetryDelay = 3 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present). Command-line overrides are owned by the CLI's flag set
// and applied on top by the caller.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	return cfg
}
