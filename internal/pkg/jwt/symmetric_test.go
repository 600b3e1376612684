package jwt

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type seqID struct{ n int }

func (s *seqID) Generate() string {
	s.n++
	return "jti-" + string(rune('0'+s.n))
}

func newTestJWT(t *testing.T, clk *fixedClock) *Symmetric {
	t.Helper()

	j, err := NewHS512(Config{
		Secret:    []byte(strings.Repeat("k", 64)),
		Issuer:    "gorecover",
		Audiences: []string{"password-reset"},
		TTL:       10 * time.Minute,
		Clock:     clk,
		UUID:      &seqID{},
	})
	if err != nil {
		t.Fatalf("NewHS512() error = %v", err)
	}
	return j
}

func TestNewHS512_ShortSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewHS512(Config{Secret: []byte("short")}); !errors.Is(err, ErrSigningKeyTooShort) {
		t.Fatalf("NewHS512() error = %v, want ErrSigningKeyTooShort", err)
	}
}

func TestSymmetric_GenerateVerify(t *testing.T) {
	t.Parallel()

	clk := &fixedClock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	j := newTestJWT(t, clk)

	tok, err := j.Generate("alice")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if tok.ID != "jti-1" || !tok.ExpiresAt.Equal(clk.now.Add(10*time.Minute)) {
		t.Fatalf("Generate() = %+v", tok)
	}

	claims, err := j.Verify(tok.Value)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Username != "alice" || claims.ID != "jti-1" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestSymmetric_PayloadCarriesOnlyUsername(t *testing.T) {
	t.Parallel()

	j := newTestJWT(t, &fixedClock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)})
	tok, err := j.Generate("alice")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	parts := strings.Split(tok.Value, ".")
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	registered := map[string]bool{"iss": true, "aud": true, "exp": true, "nbf": true, "iat": true, "jti": true}
	for k := range payload {
		if k == "username" || registered[k] {
			continue
		}
		t.Fatalf("unexpected claim %q in payload", k)
	}
	if payload["username"] != "alice" {
		t.Fatalf("username claim = %v", payload["username"])
	}
}

func TestSymmetric_Verify_Failures(t *testing.T) {
	t.Parallel()

	clk := &fixedClock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	j := newTestJWT(t, clk)
	tok, _ := j.Generate("alice")

	if _, err := j.Verify(tok.Value + "x"); err == nil {
		t.Fatal("Verify(tampered) error = nil")
	}

	other, _ := NewHS512(Config{
		Secret: []byte(strings.Repeat("z", 64)), Issuer: "gorecover", Audiences: []string{"password-reset"},
		TTL: time.Minute, Clock: clk, UUID: &seqID{},
	})
	if _, err := other.Verify(tok.Value); err == nil {
		t.Fatal("Verify(other secret) error = nil")
	}

	clk.now = clk.now.Add(11 * time.Minute)
	if _, err := j.Verify(tok.Value); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Verify(expired) error = %v, want ErrTokenExpired", err)
	}

	if _, err := j.Generate(""); !errors.Is(err, ErrEmptySubject) {
		t.Fatalf("Generate(\"\") error = %v", err)
	}
}
