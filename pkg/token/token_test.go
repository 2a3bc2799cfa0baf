package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestCodec(at time.Time) *Codec {
	c := NewCodec([]byte("topsecret"))
	c.now = func() time.Time { return at }
	return c
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := NewCodec([]byte("topsecret"))
	in := map[string]any{"relative": "a/b.ipynb", "n": float64(3)}

	tok, err := c.Encode(in, "create_template_destination")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	var out map[string]any
	if err := c.Decode(tok, "create_template_destination", DefaultMaxAge, &out); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if out["relative"] != "a/b.ipynb" || out["n"] != float64(3) {
		t.Fatalf("unexpected payload: %#v", out)
	}
}

func TestPurposeIsolation(t *testing.T) {
	c := NewCodec([]byte("topsecret"))
	tok, err := c.Encode(map[string]any{"x": 1}, "create_template_destination")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	var out map[string]any
	err = c.Decode(tok, "create_template_params", DefaultMaxAge, &out)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid across purposes, got %v", err)
	}
}

func TestExpiry(t *testing.T) {
	issued := time.Unix(1700000000, 0)
	c := newTestCodec(issued)
	tok, err := c.Encode(map[string]any{"x": 1}, "p")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	var out map[string]any
	c.now = func() time.Time { return issued.Add(30*time.Minute - time.Second) }
	if err := c.Decode(tok, "p", 30*time.Minute, &out); err != nil {
		t.Fatalf("token should still verify one second before expiry: %v", err)
	}

	c.now = func() time.Time { return issued.Add(30*time.Minute + time.Second) }
	err = c.Decode(tok, "p", 30*time.Minute, &out)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTamperedPayloadRejected(t *testing.T) {
	c := NewCodec([]byte("topsecret"))
	tok, err := c.Encode(map[string]any{"x": 1}, "p")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %s", tok)
	}
	parts[0] = parts[0][:len(parts[0])-1] + "A"
	var out map[string]any
	err = c.Decode(strings.Join(parts, "."), "p", DefaultMaxAge, &out)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for tampered payload, got %v", err)
	}
}

func TestWrongSecretRejected(t *testing.T) {
	issuer := NewCodec([]byte("topsecret"))
	verifier := NewCodec([]byte("othersecret"))
	tok, err := issuer.Encode(map[string]any{"x": 1}, "p")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	var out map[string]any
	err = verifier.Decode(tok, "p", DefaultMaxAge, &out)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid under wrong secret, got %v", err)
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	c := NewCodec([]byte("topsecret"))
	var out map[string]any
	for _, tok := range []string{"", "abc", "a.b", "a.b.c", "!!.!!.!!"} {
		if err := c.Decode(tok, "p", DefaultMaxAge, &out); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("token %q: expected ErrTokenInvalid, got %v", tok, err)
		}
	}
}
