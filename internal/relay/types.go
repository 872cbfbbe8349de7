// Package relay defines the HTTP contract between SecureClip clients and the
// relay server, and implements the protocol client. The server is a blind
// store: it only ever carries opaque envelope strings plus metadata, never
// plaintext or keys.
package relay

// Metadata type values.
const (
	TypeText = "text"
	TypeFile = "file"
)

// Metadata describes how the decrypted payload should be handled on the
// receiving side: copied as text or saved as a file.
type Metadata struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	Mime string `json:"mime,omitempty"`
}

// Valid reports whether the metadata names a known payload type. File
// metadata must carry the original file name.
func (m Metadata) Valid() bool {
	switch m.Type {
	case TypeText:
		return true
	case TypeFile:
		return m.Name != ""
	default:
		return false
	}
}

// StoreRequest is the body of POST /store. TTLSeconds is optional; zero
// means the server default, anything else is clamped to the server's
// allowed range.
type StoreRequest struct {
	Code       string   `json:"code"`
	Payload    string   `json:"payload"`
	Meta       Metadata `json:"meta"`
	TTLSeconds int      `json:"ttl,omitempty"`
}

// StoreResponse is the success body of POST /store.
type StoreResponse struct {
	Success bool `json:"success"`
}

// FetchResponse is the success body of GET /fetch/{code} and POST /consume.
// After it is returned the record no longer exists.
type FetchResponse struct {
	Payload string   `json:"payload"`
	Meta    Metadata `json:"meta"`
}

// PeekResponse is the success body of GET /peek/{code}. Peeking never
// consumes the record.
type PeekResponse struct {
	Ready bool     `json:"ready"`
	Meta  Metadata `json:"meta"`
}

// ConsumeRequest is the body of POST /consume.
type ConsumeRequest struct {
	Code string `json:"code"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	OK bool `json:"ok"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ReceiveLink builds the link a receiver opens (or scans as a QR code); the
// code query parameter is the only state needed to complete retrieval.
func ReceiveLink(baseURL, code string) string {
	return baseURL + "/?code=" + code
}
