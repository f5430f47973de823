// Package verify issues and redeems the short-lived single-use codes that
// gate sensitive actions: image captchas and emailed verification codes.
//
// A challenge is correlated by an opaque id held in the visitor's session;
// the expected answer lives in Redis under that id with a TTL. Only the most
// recent challenge per kind per visitor is redeemable, and a successful
// redemption consumes both sides.
package verify

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"

	"github.com/quillboard/quillboard/internal/platform/httpx"
)

// Kind discriminates the two challenge flavours.
type Kind string

const (
	// KindCaptcha is an image captcha answered case-insensitively.
	KindCaptcha Kind = "captcha"
	// KindEmail is a code delivered by mail and answered exactly.
	KindEmail Kind = "email"
)

// Session keys holding the pending correlation id per kind.
const (
	SessionKeyCaptcha = "captcha_id"
	SessionKeyEmail   = "email_id"
)

// SessionKey returns the session key for a kind.
func (k Kind) SessionKey() string {
	if k == KindEmail {
		return SessionKeyEmail
	}
	return SessionKeyCaptcha
}

// Outcome is the tagged result of a redemption attempt.
type Outcome int

const (
	// OutcomeSuccess: the answer matched and the challenge was consumed.
	OutcomeSuccess Outcome = iota
	// OutcomeNotFound: no challenge is pending for this visitor and kind.
	OutcomeNotFound
	// OutcomeExpired: the challenge existed but its TTL lapsed.
	OutcomeExpired
	// OutcomeMismatch: wrong answer, or the stored subject did not match.
	OutcomeMismatch
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeExpired:
		return "expired"
	case OutcomeMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// Err maps the outcome onto the boundary error taxonomy; nil on success.
func (o Outcome) Err() error {
	switch o {
	case OutcomeSuccess:
		return nil
	case OutcomeExpired:
		return httpx.ErrExpired
	case OutcomeMismatch:
		return httpx.ErrMismatch
	default:
		return httpx.ErrNotFound
	}
}

// Result carries the outcome plus, for email challenges, the subject that
// was bound at issuance (the address or user id being verified).
type Result struct {
	Outcome Outcome
	Subject string
}

// OK reports whether the redemption succeeded.
func (r Result) OK() bool { return r.Outcome == OutcomeSuccess }

// codeAlphabet intentionally omits the letter l to avoid 1/l confusion in
// rendered captchas.
const codeAlphabet = "1234567890abcdefghijkmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewCode returns a random code of length n drawn from the code alphabet.
func NewCode(n int) (string, error) {
	buf := make([]byte, n)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[idx.Int64()]
	}
	return string(buf), nil
}

// NewCorrelationID returns a 32-hex-char opaque challenge id.
func NewCorrelationID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
