// Package token implements the purpose-scoped signed tokens that carry a
// pending notebook creation between the confirmation and commit steps. A
// token binds a JSON payload to a purpose string and an issue time; it can
// only be decoded with the same secret and purpose, and only within the
// configured maximum age. This is what keeps the two-phase workflow fully
// stateless on the server side.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrTokenInvalid = errors.New("token signature or purpose invalid")
	ErrTokenExpired = errors.New("token expired")
)

// DefaultMaxAge is the window within which a confirmation token stays valid.
const DefaultMaxAge = 30 * time.Minute

type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret, now: time.Now}
}

// Encode serializes payload as JSON and returns
// base64url(payload).base64url(issuedAt).base64url(signature), the signature
// covering the first two segments under a purpose-derived key.
func (c *Codec) Encode(payload any, purpose string) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal token payload: %w", err)
	}
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(c.now().Unix()))

	enc := base64.RawURLEncoding
	signed := enc.EncodeToString(body) + "." + enc.EncodeToString(ts[:])
	sig := c.sign(signed, purpose)
	return signed + "." + enc.EncodeToString(sig), nil
}

// Decode verifies the signature under the given purpose, checks the issue
// time against maxAge and unmarshals the payload into dst. The signature is
// checked before anything in the token is interpreted.
func (c *Codec) Decode(tok, purpose string, maxAge time.Duration, dst any) error {
	i := strings.LastIndexByte(tok, '.')
	if i < 0 {
		return ErrTokenInvalid
	}
	signed, sigPart := tok[:i], tok[i+1:]

	enc := base64.RawURLEncoding
	sig, err := enc.DecodeString(sigPart)
	if err != nil {
		return ErrTokenInvalid
	}
	if !hmac.Equal(sig, c.sign(signed, purpose)) {
		return ErrTokenInvalid
	}

	parts := strings.Split(signed, ".")
	if len(parts) != 2 {
		return ErrTokenInvalid
	}
	body, err := enc.DecodeString(parts[0])
	if err != nil {
		return ErrTokenInvalid
	}
	tsBytes, err := enc.DecodeString(parts[1])
	if err != nil || len(tsBytes) != 8 {
		return ErrTokenInvalid
	}
	issuedAt := time.Unix(int64(binary.BigEndian.Uint64(tsBytes)), 0)
	if c.now().Sub(issuedAt) > maxAge {
		return ErrTokenExpired
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return ErrTokenInvalid
	}
	return nil
}

// sign HMACs the signed segments under a key derived from the process secret
// and the purpose. Folding the purpose into the key is what prevents a token
// issued for one purpose from verifying under another.
func (c *Codec) sign(signed, purpose string) []byte {
	kd := hmac.New(sha256.New, c.secret)
	kd.Write([]byte(purpose))
	key := kd.Sum(nil)

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(signed))
	return mac.Sum(nil)
}
