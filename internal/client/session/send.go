package session

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/secureclip/internal/common"
	"github.com/dmitrijs2005/secureclip/internal/cryptox"
	"github.com/dmitrijs2005/secureclip/internal/envelope"
	"github.com/dmitrijs2005/secureclip/internal/relay"
)

// MaxSecretBytes caps the plaintext size before encryption. The encrypted
// envelope grows well past this on the wire (numeric-array JSON plus
// base64), so the server's own cap is set higher.
const MaxSecretBytes = 500 * 1024

// SendResult is what the sender shows the receiver: the code to type and
// the link to open or scan.
type SendResult struct {
	Code string
	Link string
}

// Send encrypts the secret under a fresh code and stores the envelope on the
// relay. The plaintext and key are wiped before returning; after this call
// the code is the only way to recover the secret.
//
// ttl is advisory: zero asks for the server default and the server clamps
// everything else to its allowed range.
func Send(ctx context.Context, client *relay.Client, secret []byte, meta relay.Metadata, ttl time.Duration) (*SendResult, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty secret", common.ErrValidation)
	}
	if len(secret) > MaxSecretBytes {
		return nil, common.ErrPayloadTooLarge
	}
	if !meta.Valid() {
		return nil, fmt.Errorf("%w: bad metadata", common.ErrValidation)
	}

	code, err := common.GenerateCode()
	if err != nil {
		return nil, fmt.Errorf("code generation: %w", err)
	}

	key := cryptox.DeriveKey(code)
	defer common.WipeByteArray(key)

	iv, ciphertext, err := cryptox.Encrypt(secret, key)
	common.WipeByteArray(secret)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}

	req := relay.StoreRequest{
		Code:       code,
		Payload:    envelope.Encode(iv, ciphertext),
		Meta:       meta,
		TTLSeconds: int(ttl.Seconds()),
	}
	if err := client.Store(ctx, req); err != nil {
		return nil, err
	}

	return &SendResult{
		Code: code,
		Link: relay.ReceiveLink(client.BaseURL(), code),
	}, nil
}
