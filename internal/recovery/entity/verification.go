package entity

import (
	"errors"
	"time"

	"github.com/shandysiswandi/gorecover/internal/pkg/otp"
)

// ErrIdentityMissing marks a consumed verification whose target no longer
// resolves to a user.
var ErrIdentityMissing = errors.New("recovery: verification target has no identity")

// Verification is a pending one-time code challenge bound to a target.
// Rows are never updated; consumption deletes them.
type Verification struct {
	ID           int64
	Kind         VerificationKind
	Target       string
	CodeHash     string
	Secret       []byte // sealed
	Algorithm    otp.Algorithm
	ValidSeconds int64
	ExpiresAt    *time.Time
	CreatedAt    time.Time
}

// Expired reports whether the record is past its optional expiry at now.
func (v *Verification) Expired(now time.Time) bool {
	return v.ExpiresAt != nil && !now.Before(*v.ExpiresAt)
}

// Identity is the canonical (email, username) pair a target resolves to.
type Identity struct {
	Email    string
	Username string
}
