package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/gorecover/internal/recovery/entity"
)

// ConsumeVerification is a single conditional DELETE; postgres row locking
// lets only one concurrent caller observe RowsAffected > 0.
func (s *DB) ConsumeVerification(ctx context.Context, kind entity.VerificationKind, target, codeHash string) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeVerification")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryConsumeVerification, kind, target, codeHash)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}

func (s *DB) DeleteExpiredVerifications(ctx context.Context, before time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteExpiredVerifications")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryDeleteExpiredVerifications, before)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
