package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/gorecover/internal/recovery/entity"
)

func (s *DB) GetActiveVerification(ctx context.Context, kind entity.VerificationKind, target, codeHash string, now time.Time) (_ *entity.Verification, err error) {
	ctx, span := s.startSpan(ctx, "GetActiveVerification")
	defer func() { s.endSpan(span, err) }()

	var v entity.Verification
	err = s.conn.QueryRow(ctx, queryGetActiveVerification, kind, target, codeHash, now).Scan(
		&v.ID,
		&v.Kind,
		&v.Target,
		&v.CodeHash,
		&v.Secret,
		&v.Algorithm,
		&v.ValidSeconds,
		&v.ExpiresAt,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &v, nil
}

func (s *DB) GetIdentityByLogin(ctx context.Context, login string) (_ *entity.Identity, err error) {
	ctx, span := s.startSpan(ctx, "GetIdentityByLogin")
	defer func() { s.endSpan(span, err) }()

	var ident entity.Identity
	if err = s.conn.QueryRow(ctx, queryGetIdentityByLogin, login).Scan(&ident.Email, &ident.Username); err != nil {
		return nil, s.mapError(err)
	}

	return &ident, nil
}
