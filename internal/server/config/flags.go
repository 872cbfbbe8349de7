package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/secureclip/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string  HTTP bind address (e.g., ":8080")
//	-b string  store backend: memory, redis, postgres
//	-r string  Redis address (host:port)
//	-d string  PostgreSQL DSN
//	-t int     record TTL, seconds
//	-s int     store operation timeout, seconds
//	-m int     max envelope size, bytes
//	-q int     rate limit: requests per window
//	-w int     rate limit: window, seconds
//	-l         also rate-limit the retrieval endpoints
//
// Duration flags are accepted as integer seconds and converted afterwards.
// Args are pre-filtered with flagx.FilterArgs so flags owned by other
// components do not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-b", "-r", "-d", "-t", "-s", "-m", "-q", "-w", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.StoreBackend, "b", config.StoreBackend, "store backend (memory, redis, postgres)")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")

	recordTTL := fs.Int("t", int(config.RecordTTL.Seconds()), "record ttl (in seconds)")
	storeTimeout := fs.Int("s", int(config.StoreTimeout.Seconds()), "store timeout (in seconds)")

	fs.Int64Var(&config.MaxEnvelopeBytes, "m", config.MaxEnvelopeBytes, "max envelope size (in bytes)")
	fs.IntVar(&config.RateLimitRequests, "q", config.RateLimitRequests, "rate limit requests per window")

	rateWindow := fs.Int("w", int(config.RateLimitWindow.Seconds()), "rate limit window (in seconds)")

	fs.BoolVar(&config.LimitRetrieval, "l", config.LimitRetrieval, "rate-limit retrieval endpoints too")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.RecordTTL = time.Duration(*recordTTL) * time.Second
	config.StoreTimeout = time.Duration(*storeTimeout) * time.Second
	config.RateLimitWindow = time.Duration(*rateWindow) * time.Second
}
