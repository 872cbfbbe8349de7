package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/secureclip/internal/flagx"
	"github.com/dmitrijs2005/secureclip/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify durations either as
// strings like "10s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
	RetryAttempts      int            `json:"retry_attempts"`
	RetryDelay         timex.Duration `json:"retry_delay"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c or -config flag via
// flagx.JsonConfigFlags(); when neither is given nothing is loaded. Zero
// values in the file leave the corresponding Config field untouched, so a
// partial file only overrides what it names. Panics on read or unmarshal
// errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
	if jc.RetryAttempts != 0 {
		cfg.RetryAttempts = jc.RetryAttempts
	}
	if jc.RetryDelay.Duration != 0 {
		cfg.RetryDelay = time.Duration(jc.RetryDelay.Duration)
	}
}
