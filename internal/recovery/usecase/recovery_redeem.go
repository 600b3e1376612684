package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gorecover/internal/pkg/goerror"
	"github.com/shandysiswandi/gorecover/internal/pkg/session"
)

type RecoveryRedeemInput struct {
	HandoffToken string `validate:"required"`
}

type RecoveryRedeemOutput struct {
	Username string
}

// RecoveryRedeem is called by the step that sets the new credential. A token
// redeems once.
func (s *Usecase) RecoveryRedeem(ctx context.Context, in RecoveryRedeemInput) (*RecoveryRedeemOutput, error) {
	ctx, span := s.startSpan(ctx, "RecoveryRedeem")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	username, err := s.handoff.Redeem(ctx, in.HandoffToken)
	if errors.Is(err, session.ErrSessionInvalid) {
		slog.WarnContext(ctx, "handoff token rejected", "error", err)
		return nil, goerror.NewBusiness("Invalid or expired handoff token", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to redeem handoff session", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RecoveryRedeemOutput{Username: username}, nil
}
