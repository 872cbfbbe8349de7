// Package common defines shared constants and sentinel errors used across
// client and server layers of SecureClip. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrNotFound        = errors.New("expired or invalid")
	ErrCorruptedRecord = errors.New("corrupted record")

	// Request validation errors.
	ErrValidation      = errors.New("invalid request")
	ErrPayloadTooLarge = errors.New("payload too large")

	// Crypto / codec errors. Both are surfaced to users exactly like
	// ErrNotFound so a caller cannot probe why a retrieval failed.
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrMalformedEnvelope    = errors.New("malformed envelope")

	// Transport / backend errors.
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrInternal           = errors.New("internal error")
)
