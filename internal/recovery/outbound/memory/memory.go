// Package memory is an in-process verification store for local runs and
// tests. It is safe for concurrent use and not durable.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/shandysiswandi/gorecover/internal/pkg/goerror"
	"github.com/shandysiswandi/gorecover/internal/recovery/entity"
)

type Store struct {
	mu            sync.RWMutex
	verifications []entity.Verification
	identities    []entity.Identity
}

func NewStore(identities ...entity.Identity) *Store {
	return &Store{identities: slices.Clone(identities)}
}

// AddIdentity registers a user for identity lookups.
func (s *Store) AddIdentity(ident entity.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities = append(s.identities, ident)
}

// RemoveIdentity drops every identity whose email or username equals login.
func (s *Store) RemoveIdentity(login string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities = slices.DeleteFunc(s.identities, func(i entity.Identity) bool {
		return i.Email == login || i.Username == login
	})
}

// CountVerifications returns the number of stored rows for (kind, target).
func (s *Store) CountVerifications(kind entity.VerificationKind, target string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, v := range s.verifications {
		if v.Kind == kind && v.Target == target {
			n++
		}
	}
	return n
}

func (s *Store) GetActiveVerification(_ context.Context, kind entity.VerificationKind, target, codeHash string, now time.Time) (*entity.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, v := range s.verifications {
		if v.Kind == kind && v.Target == target && v.CodeHash == codeHash && !v.Expired(now) {
			out := v
			out.Secret = slices.Clone(v.Secret)
			return &out, nil
		}
	}

	return nil, goerror.ErrNotFound
}

func (s *Store) GetIdentityByLogin(_ context.Context, login string) (*entity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, i := range s.identities {
		if i.Email == login || i.Username == login {
			out := i
			return &out, nil
		}
	}

	return nil, goerror.ErrNotFound
}

func (s *Store) ReplaceVerification(_ context.Context, v entity.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.verifications = slices.DeleteFunc(s.verifications, func(old entity.Verification) bool {
		return old.Kind == v.Kind && old.Target == v.Target
	})
	if slices.ContainsFunc(s.verifications, func(old entity.Verification) bool { return old.ID == v.ID }) {
		return goerror.ErrConflict
	}

	v.Secret = slices.Clone(v.Secret)
	s.verifications = append(s.verifications, v)
	return nil
}

// ConsumeVerification deletes under the write lock, so of two concurrent
// callers only the first observes a non-zero count.
func (s *Store) ConsumeVerification(_ context.Context, kind entity.VerificationKind, target, codeHash string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.verifications)
	s.verifications = slices.DeleteFunc(s.verifications, func(v entity.Verification) bool {
		return v.Kind == kind && v.Target == target && v.CodeHash == codeHash
	})

	return int64(before - len(s.verifications)), nil
}

func (s *Store) DeleteExpiredVerifications(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.verifications)
	s.verifications = slices.DeleteFunc(s.verifications, func(v entity.Verification) bool {
		return v.Expired(before)
	})

	return int64(n - len(s.verifications)), nil
}
