package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/gorecover/internal/pkg/goerror"
	"github.com/shandysiswandi/gorecover/internal/pkg/otp"
	"github.com/shandysiswandi/gorecover/internal/recovery/entity"
)

type RecoveryVerifyInput struct {
	Target string `validate:"required,login"`
	Code   string `validate:"required,otpcode"`
}

type RecoveryVerifyOutput struct {
	Username     string
	HandoffToken string
	ExpiresAt    time.Time
}

// RecoveryVerify checks a submitted recovery code, consumes its record and
// hands the verified username off to the next step.
//
// A missing record, a failed check and a lost consume race all return the same
// "Invalid code" error. Consumption happens before success is reported, so a
// code verifies at most once.
func (s *Usecase) RecoveryVerify(ctx context.Context, in RecoveryVerifyInput) (*RecoveryVerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "RecoveryVerify")
	defer span.End()

	in.Target = strings.TrimSpace(in.Target)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	kind := entity.VerificationKindPasswordRecovery
	key := attemptKey(kind, in.Target)

	decision, err := s.limiter.Allow(ctx, key)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count recovery attempt", "target", in.Target, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !decision.Allowed {
		slog.WarnContext(ctx, "too many recovery attempts", "target", in.Target, "count", decision.Count, "retry_in", decision.RetryIn)
		return nil, goerror.NewBusiness("Too many attempts", goerror.CodeTooManyRequest)
	}

	codeHash, err := s.hmac.Hash(in.Code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash recovery code", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	rec, err := s.repoDB.GetActiveVerification(ctx, kind, in.Target, string(codeHash), now)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "recovery code has no pending verification", "target", in.Target)
		return nil, errInvalidCode()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get active verification", "target", in.Target, "error", err)
		return nil, goerror.NewServer(err)
	}

	secret, err := s.sealer.Open(rec.Secret, sealScope(kind, rec.Target))
	if err != nil {
		slog.ErrorContext(ctx, "failed to open recovery secret", "verification_id", rec.ID, "error", err)
		return nil, goerror.NewConfiguration(err)
	}

	ok, err := s.totp.Verify(in.Code, secret, otp.Options{
		Algorithm:    rec.Algorithm,
		ValidSeconds: int(rec.ValidSeconds),
		Window:       s.driftWindow(),
	}, now)
	if err != nil {
		slog.ErrorContext(ctx, "verification record has invalid parameters",
			"verification_id", rec.ID,
			"algorithm", rec.Algorithm.String(),
			"valid_seconds", rec.ValidSeconds,
			"error", err,
		)
		return nil, goerror.NewConfiguration(err)
	}
	if !ok {
		slog.WarnContext(ctx, "recovery code is outside the drift window", "verification_id", rec.ID)
		return nil, errInvalidCode()
	}

	removed, err := s.repoDB.ConsumeVerification(ctx, kind, in.Target, string(codeHash))
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume verification", "verification_id", rec.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if removed == 0 {
		slog.WarnContext(ctx, "recovery code already consumed", "verification_id", rec.ID)
		return nil, errInvalidCode()
	}

	ident, err := s.repoDB.GetIdentityByLogin(ctx, in.Target)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "consumed verification has no identity", "verification_id", rec.ID, "target", in.Target)
		return nil, goerror.NewInvariant(fmt.Errorf("%w: verification %d", entity.ErrIdentityMissing, rec.ID))
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get identity by login", "target", in.Target, "error", err)
		return nil, goerror.NewServer(err)
	}

	sess, err := s.handoff.Issue(ctx, ident.Username)
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue handoff session", "username", ident.Username, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.limiter.Reset(ctx, key); err != nil {
		slog.WarnContext(ctx, "failed to reset recovery attempts", "target", in.Target, "error", err)
	}

	s.publishVerified(ctx, VerifiedEvent{Target: in.Target, Username: ident.Username, VerifiedAt: now})

	return &RecoveryVerifyOutput{
		Username:     ident.Username,
		HandoffToken: sess.Token,
		ExpiresAt:    sess.ExpiresAt,
	}, nil
}

func (s *Usecase) publishVerified(ctx context.Context, ev VerifiedEvent) {
	accepted := s.goroutine.Go(context.WithoutCancel(ctx), "recovery.publish_verified", func(ctx context.Context) error {
		if err := s.repoMessaging.PublishVerified(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "failed to publish recovery verified", "username", ev.Username, "error", err)
			return err
		}
		return nil
	})
	if !accepted {
		slog.WarnContext(ctx, "recovery verified event dropped", "username", ev.Username)
	}
}
