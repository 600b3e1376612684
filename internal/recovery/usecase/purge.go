package usecase

import (
	"context"
	"log/slog"
	"time"
)

// PurgeExpired deletes verifications whose expiry has passed.
func (s *Usecase) PurgeExpired(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "PurgeExpired")
	defer span.End()

	n, err := s.repoDB.DeleteExpiredVerifications(ctx, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete expired verifications", "error", err)
		return 0, err
	}
	if n > 0 {
		slog.InfoContext(ctx, "expired verifications purged", "count", n)
	}

	return n, nil
}

// RunJanitor calls PurgeExpired every interval until ctx is done.
func (s *Usecase) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			//nolint:errcheck // logged inside; the next tick retries
			_, _ = s.PurgeExpired(ctx)
		}
	}
}
