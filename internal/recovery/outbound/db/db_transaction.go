package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/gorecover/internal/recovery/entity"
)

// ReplaceVerification deletes every record for (kind, target) and inserts v
// in one transaction, leaving exactly one active record for the target.
func (s *DB) ReplaceVerification(ctx context.Context, v entity.Verification) (err error) {
	ctx, span := s.startSpan(ctx, "ReplaceVerification")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	if _, err = tx.Exec(ctx, queryDeleteVerificationsByTarget, v.Kind, v.Target); err != nil {
		return s.mapError(err)
	}

	if _, err = tx.Exec(ctx, queryCreateVerification,
		v.ID,
		v.Kind,
		v.Target,
		v.CodeHash,
		v.Secret,
		v.Algorithm,
		v.ValidSeconds,
		v.ExpiresAt,
		v.CreatedAt,
	); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}
