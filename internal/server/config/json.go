package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/secureclip/internal/flagx"
	"github.com/dmitrijs2005/secureclip/internal/timex"
)

// JsonConfig is the DTO used for reading JSON configuration files. Interval
// fields use timex.Duration so both "90s" strings and integer nanoseconds
// parse. After unmarshalling, non-zero fields are copied into the runtime
// Config.
type JsonConfig struct {
	EndpointAddr      string         `json:"endpoint_addr"`
	StoreBackend      string         `json:"store_backend"`
	RedisAddr         string         `json:"redis_addr"`
	RedisPassword     string         `json:"redis_password"`
	RedisDB           *int           `json:"redis_db"`
	DatabaseDSN       string         `json:"database_dsn"`
	RecordTTL         timex.Duration `json:"record_ttl"`
	StoreTimeout      timex.Duration `json:"store_timeout"`
	MaxEnvelopeBytes  int64          `json:"max_envelope_bytes"`
	RateLimitRequests int            `json:"rate_limit_requests"`
	RateLimitWindow   timex.Duration `json:"rate_limit_window"`
	LimitRetrieval    *bool          `json:"limit_retrieval"`
}

// parseJson overlays configuration values from a JSON file onto the provided
// Config.
//
// The file path comes from the -c or -config command-line flags; when
// neither is set, no JSON file is loaded. An unreadable or invalid file
// panics: a half-applied config is worse than refusing to start. Fields
// absent from the file keep their current values.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.StoreBackend != "" {
		config.StoreBackend = c.StoreBackend
	}
	if c.RedisAddr != "" {
		config.RedisAddr = c.RedisAddr
	}
	if c.RedisPassword != "" {
		config.RedisPassword = c.RedisPassword
	}
	if c.RedisDB != nil {
		config.RedisDB = *c.RedisDB
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.RecordTTL.Duration != 0 {
		config.RecordTTL = c.RecordTTL.Duration
	}
	if c.StoreTimeout.Duration != 0 {
		config.StoreTimeout = c.StoreTimeout.Duration
	}
	if c.MaxEnvelopeBytes != 0 {
		config.MaxEnvelopeBytes = c.MaxEnvelopeBytes
	}
	if c.RateLimitRequests != 0 {
		config.RateLimitRequests = c.RateLimitRequests
	}
	if c.RateLimitWindow.Duration != 0 {
		config.RateLimitWindow = c.RateLimitWindow.Duration
	}
	if c.LimitRetrieval != nil {
		config.LimitRetrieval = *c.LimitRetrieval
	}
}
