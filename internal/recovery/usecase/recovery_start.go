package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/gorecover/internal/pkg/goerror"
	"github.com/shandysiswandi/gorecover/internal/pkg/otp"
	"github.com/shandysiswandi/gorecover/internal/recovery/entity"
)

type RecoveryStartInput struct {
	Target string `validate:"required,login"`
}

// RecoveryStart issues a new recovery code for target. Unknown targets
// succeed silently so the response does not reveal which accounts exist.
func (s *Usecase) RecoveryStart(ctx context.Context, in RecoveryStartInput) error {
	ctx, span := s.startSpan(ctx, "RecoveryStart")
	defer span.End()

	in.Target = strings.TrimSpace(in.Target)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	ident, err := s.repoDB.GetIdentityByLogin(ctx, in.Target)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "password recovery requested for unavailable identity", "target", in.Target)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get identity by login", "target", in.Target, "error", err)
		return goerror.NewServer(err)
	}

	alg, err := otp.ParseAlgorithm(s.cfg.GetString("modules.recovery.algorithm"))
	if err != nil {
		slog.ErrorContext(ctx, "recovery algorithm is misconfigured", "error", err)
		return goerror.NewConfiguration(err)
	}
	opts := otp.Options{Algorithm: alg, ValidSeconds: s.cfg.GetInt("modules.recovery.valid_seconds")}

	secret, err := s.totp.Generate(in.Target, alg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate recovery secret", "error", err)
		return goerror.NewServer(err)
	}

	now := s.clock.Now()
	code, err := s.totp.GenerateCode(secret, opts, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate recovery code", "error", err)
		return goerror.NewConfiguration(err)
	}

	codeHash, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash recovery code", "error", err)
		return goerror.NewServer(err)
	}

	kind := entity.VerificationKindPasswordRecovery
	sealed, err := s.sealer.Seal(secret, sealScope(kind, in.Target))
	if err != nil {
		slog.ErrorContext(ctx, "failed to seal recovery secret", "error", err)
		return goerror.NewConfiguration(err)
	}

	var expiresAt *time.Time
	if ttl := s.cfg.GetMinute("modules.recovery.code_ttl_minutes"); ttl > 0 {
		exp := now.Add(ttl)
		expiresAt = &exp
	}

	if err := s.repoDB.ReplaceVerification(ctx, entity.Verification{
		ID:           s.uid.Generate(),
		Kind:         kind,
		Target:       in.Target,
		CodeHash:     string(codeHash),
		Secret:       sealed,
		Algorithm:    alg,
		ValidSeconds: int64(opts.ValidSeconds),
		ExpiresAt:    expiresAt,
		CreatedAt:    now,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo replace verification", "target", in.Target, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoMessaging.PublishCodeIssued(ctx, CodeIssuedEvent{
		Target:    in.Target,
		Email:     ident.Email,
		Username:  ident.Username,
		Code:      code,
		ExpiresAt: expiresAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish recovery code issued", "target", in.Target, "error", err)
	}

	return nil
}
