// Package store provides the server-side expiring key-value storage for
// stored secrets, with at-most-once retrieval semantics.
//
// Three backends exist: an in-memory map (default, single process), Redis
// (the original deployment backend) and PostgreSQL. Whatever the backend,
// GetAndDelete must be atomic: when N callers race for the same code, at
// most one observes the record and the rest observe common.ErrNotFound.
// That atomicity has to come from the backend itself (a lock-covered map
// section, Redis GETDEL, Postgres DELETE ... RETURNING), never from
// application-level locking, because the server may be horizontally scaled.
package store

import (
	"context"
	"time"

	"github.com/dmitrijs2005/secureclip/internal/relay"
)

// Record is what the relay keeps per code: the opaque envelope string and
// the delivery metadata. Records are immutable once stored.
type Record struct {
	Payload string         `json:"payload"`
	Meta    relay.Metadata `json:"meta"`
}

// Store is the expiring one-time key-value store.
//
// All operations respect ctx deadlines; callers are expected to bound them.
type Store interface {
	// Put saves the record under code with the given ttl, unconditionally
	// overwriting any existing record (last-store-wins).
	Put(ctx context.Context, code string, rec *Record, ttl time.Duration) error

	// GetAndDelete atomically retrieves and destroys the record. Concurrent
	// callers for the same code: exactly one gets the record, the rest get
	// common.ErrNotFound. Expired, already-consumed and never-existing
	// codes are indistinguishable. A stored value that no longer parses is
	// deleted best-effort and reported as common.ErrCorruptedRecord.
	GetAndDelete(ctx context.Context, code string) (*Record, error)

	// Peek returns the metadata without consuming the record. Safe to call
	// repeatedly.
	Peek(ctx context.Context, code string) (*relay.Metadata, error)

	// Ping reports backend reachability for health checks.
	Ping(ctx context.Context) error

	// Close releases backend resources and stops background sweepers.
	Close() error
}

// TTL bounds observed across deployments; Clamp keeps configured values
// inside them.
const (
	MinTTL     = 30 * time.Second
	MaxTTL     = 300 * time.Second
	DefaultTTL = 120 * time.Second
)

// ClampTTL normalizes a configured ttl into the supported range. A zero or
// negative ttl becomes DefaultTTL.
func ClampTTL(ttl time.Duration) time.Duration {
	switch {
	case ttl <= 0:
		return DefaultTTL
	case ttl < MinTTL:
		return MinTTL
	case ttl > MaxTTL:
		return MaxTTL
	default:
		return ttl
	}
}
