package inbound

import (
	"context"

	"github.com/shandysiswandi/gorecover/internal/pkg/router"
	"github.com/shandysiswandi/gorecover/internal/recovery/usecase"
)

type uc interface {
	RecoveryStart(ctx context.Context, in usecase.RecoveryStartInput) error
	RecoveryVerify(ctx context.Context, in usecase.RecoveryVerifyInput) (*usecase.RecoveryVerifyOutput, error)
	RecoveryRedeem(ctx context.Context, in usecase.RecoveryRedeemInput) (*usecase.RecoveryRedeemOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/recovery/password/start", end.RecoveryStart)
	r.POST("/api/v1/recovery/password/verify", end.RecoveryVerify)

	// called by the service that completes the reset
	r.POST("/api/v1/recovery/handoff/redeem", end.RecoveryRedeem, r.ServiceOnly())
}
