// Package envelope packages an IV and ciphertext into the transport string
// stored server-side. The wire format is base64 over a JSON object whose
// fields are arrays of byte values:
//
//	base64( {"iv":[..12 bytes..],"data":[..ciphertext+tag..]} )
//
// Numeric arrays (rather than nested base64) keep the format identical to
// envelopes produced by the browser client, so both implementations can
// decrypt each other's payloads.
package envelope

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/secureclip/internal/common"
	"github.com/dmitrijs2005/secureclip/internal/cryptox"
)

type wireEnvelope struct {
	IV   []int `json:"iv"`
	Data []int `json:"data"`
}

// Encode serializes iv and ciphertext into a single printable string.
func Encode(iv, ciphertext []byte) string {
	w := wireEnvelope{
		IV:   toInts(iv),
		Data: toInts(ciphertext),
	}
	// Marshal of plain int slices cannot fail.
	b, _ := json.Marshal(w)
	return base64.StdEncoding.EncodeToString(b)
}

// Decode parses an envelope string back into iv and ciphertext. Invalid
// base64, invalid JSON, a wrong IV length or byte values outside 0–255 all
// fail with common.ErrMalformedEnvelope.
func Decode(s string) (iv, ciphertext []byte, err error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrMalformedEnvelope, err)
	}

	var w wireEnvelope
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrMalformedEnvelope, err)
	}

	if len(w.IV) != cryptox.IVSize {
		return nil, nil, fmt.Errorf("%w: iv length %d", common.ErrMalformedEnvelope, len(w.IV))
	}

	iv, err = toBytes(w.IV)
	if err != nil {
		return nil, nil, err
	}
	ciphertext, err = toBytes(w.Data)
	if err != nil {
		return nil, nil, err
	}

	return iv, ciphertext, nil
}

func toInts(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

func toBytes(vals []int) ([]byte, error) {
	out := make([]byte, len(vals))
	for i, v := range vals {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: byte value %d", common.ErrMalformedEnvelope, v)
		}
		out[i] = byte(v)
	}
	return out, nil
}
