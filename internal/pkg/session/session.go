// Package session issues the handoff session that carries a verified username
// from the recovery verification step to the step that sets a new credential.
//
// A session is a signed token plus a single-use ledger entry keyed by the
// token ID. Redeeming deletes the entry, so a token opens the next step once.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shandysiswandi/gorecover/internal/pkg/jwt"
)

var (
	// ErrSessionInvalid is returned for tokens that are malformed, expired,
	// already redeemed or unknown to the ledger.
	ErrSessionInvalid = errors.New("session: handoff session is invalid")
	// ErrEmptyUsername is returned when issuing a session without a username.
	ErrEmptyUsername = errors.New("session: username is empty")
)

// Session is the handoff state returned to the caller.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Store is the single-use ledger of issued sessions.
type Store interface {
	// Save records id → username until ttl elapses.
	Save(ctx context.Context, id, username string, ttl time.Duration) error
	// Take atomically removes id and returns its username. A missing id
	// returns found == false.
	Take(ctx context.Context, id string) (username string, found bool, err error)
}

type clocker interface {
	Now() time.Time
}

// Handoff issues and redeems handoff sessions.
type Handoff struct {
	jwt   jwt.JWT
	store Store
	clock clocker
}

// NewHandoff wires a signer, a ledger and a clock.
func NewHandoff(signer jwt.JWT, store Store, clock clocker) *Handoff {
	return &Handoff{jwt: signer, store: store, clock: clock}
}

// Issue signs a session for username and records it in the ledger.
func (h *Handoff) Issue(ctx context.Context, username string) (*Session, error) {
	if username == "" {
		return nil, ErrEmptyUsername
	}

	tok, err := h.jwt.Generate(username)
	if err != nil {
		return nil, fmt.Errorf("session: sign: %w", err)
	}

	ttl := tok.ExpiresAt.Sub(h.clock.Now())
	if ttl <= 0 {
		return nil, fmt.Errorf("session: token already expired at issue (ttl %s)", ttl)
	}

	if err := h.store.Save(ctx, tok.ID, username, ttl); err != nil {
		return nil, fmt.Errorf("session: save: %w", err)
	}

	return &Session{Token: tok.Value, ExpiresAt: tok.ExpiresAt}, nil
}

// Redeem verifies token, consumes its ledger entry and returns the username.
// Only the first call for a token succeeds.
func (h *Handoff) Redeem(ctx context.Context, token string) (string, error) {
	claims, err := h.jwt.Verify(token)
	if err != nil {
		return "", errors.Join(ErrSessionInvalid, err)
	}

	username, found, err := h.store.Take(ctx, claims.ID)
	if err != nil {
		return "", fmt.Errorf("session: take: %w", err)
	}
	if !found || username != claims.Username {
		return "", ErrSessionInvalid
	}

	return username, nil
}
