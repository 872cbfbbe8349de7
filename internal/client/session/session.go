// Package session drives the receiving side of a SecureClip exchange: a
// one-shot state machine from code acquisition through decryption to the
// user-confirmed delivery of the secret.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/secureclip/internal/common"
	"github.com/dmitrijs2005/secureclip/internal/cryptox"
	"github.com/dmitrijs2005/secureclip/internal/envelope"
	"github.com/dmitrijs2005/secureclip/internal/relay"
)

type State int

const (
	StateIdle State = iota
	StateCodeAcquired
	StateFetching
	StateDecrypted
	StateAwaitingUserAction
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCodeAcquired:
		return "code acquired"
	case StateFetching:
		return "fetching"
	case StateDecrypted:
		return "decrypted"
	case StateAwaitingUserAction:
		return "awaiting user action"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session is a single receive attempt. It is not safe for concurrent use;
// one goroutine owns it from Acquire to Deliver.
type Session struct {
	client *relay.Client

	state   State
	code    string
	payload []byte
	meta    relay.Metadata
	failure error
}

func New(client *relay.Client) *Session {
	return &Session{client: client, state: StateIdle}
}

func (s *Session) State() State { return s.state }

// Err returns the failure that moved the session to Failed, nil otherwise.
func (s *Session) Err() error { return s.failure }

// Meta is valid once the session has reached AwaitingUserAction.
func (s *Session) Meta() relay.Metadata { return s.meta }

// Acquire accepts a code and arms the session. It is the one-shot guard: any
// call after the first one fails regardless of how the first went.
//
// raw may be a bare 6-digit code or a receive link carrying ?code=.
func (s *Session) Acquire(raw string) error {
	if s.state != StateIdle {
		return fmt.Errorf("code already acquired (state: %s)", s.state)
	}

	code, err := ParseCode(raw)
	if err != nil {
		s.fail(err)
		return s.failure
	}

	s.code = code
	s.state = StateCodeAcquired
	return nil
}

// Fetch confirms availability, consumes the record and decrypts it. On
// success the session holds the plaintext and waits for Deliver.
//
// Every cryptographic or not-found failure collapses into one generic
// category so the caller learns nothing about which codes exist. Only a
// backend outage is reported distinctly, since retrying can help there.
func (s *Session) Fetch(ctx context.Context) error {
	if s.state != StateCodeAcquired {
		return fmt.Errorf("nothing to fetch (state: %s)", s.state)
	}
	s.state = StateFetching

	if _, err := s.client.Peek(ctx, s.code); err != nil {
		s.fail(err)
		return s.failure
	}

	resp, err := s.client.Consume(ctx, s.code)
	if err != nil {
		s.fail(err)
		return s.failure
	}

	iv, ciphertext, err := envelope.Decode(resp.Payload)
	if err != nil {
		s.fail(err)
		return s.failure
	}

	key := cryptox.DeriveKey(s.code)
	defer common.WipeByteArray(key)

	plaintext, err := cryptox.Decrypt(iv, ciphertext, key)
	if err != nil {
		s.fail(err)
		return s.failure
	}
	s.state = StateDecrypted

	s.payload = plaintext
	s.meta = resp.Meta
	s.state = StateAwaitingUserAction
	return nil
}

// Deliver runs the user-triggered action with the decrypted payload, then
// wipes it. Delivery happens at most once.
func (s *Session) Deliver(action func(payload []byte, meta relay.Metadata) error) error {
	if s.state != StateAwaitingUserAction {
		return fmt.Errorf("nothing to deliver (state: %s)", s.state)
	}

	err := action(s.payload, s.meta)

	common.WipeByteArray(s.payload)
	s.payload = nil

	if err != nil {
		s.fail(err)
		return s.failure
	}
	s.state = StateDone
	return nil
}

func (s *Session) fail(err error) {
	s.state = StateFailed
	s.failure = classify(err)
	common.WipeByteArray(s.payload)
	s.payload = nil
}

// classify folds failure causes into the two user-visible categories. A
// backend outage stays distinct; everything else looks like an expired code.
func classify(err error) error {
	if errors.Is(err, common.ErrBackendUnavailable) {
		return err
	}
	return common.ErrNotFound
}

// ParseCode extracts the 6-digit code from raw user input: either the code
// itself or a receive link with a code query parameter.
func ParseCode(raw string) (string, error) {
	raw = strings.TrimSpace(raw)

	if common.IsValidCode(raw) {
		return raw, nil
	}

	if u, err := url.Parse(raw); err == nil {
		if code := u.Query().Get("code"); common.IsValidCode(code) {
			return code, nil
		}
	}

	return "", common.ErrValidation
}
