package inbound

import (
	"github.com/shandysiswandi/gorecover/internal/pkg/router"
	"github.com/shandysiswandi/gorecover/internal/recovery/usecase"
)

// HTTPEndpoint exposes the password recovery flow over HTTP.
type HTTPEndpoint struct {
	uc uc
}

// RecoveryStart issues a recovery code. The response is the same whether or
// not the target exists.
func (h *HTTPEndpoint) RecoveryStart(r *router.Request) (any, error) {
	var req RecoveryStartRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.RecoveryStart(r.Context(), usecase.RecoveryStartInput{Target: req.Target}); err != nil {
		return nil, err
	}

	return RecoveryStartResponse{}, nil
}

// RecoveryVerify checks a recovery code and returns the handoff token for the
// reset step.
func (h *HTTPEndpoint) RecoveryVerify(r *router.Request) (any, error) {
	var req RecoveryVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RecoveryVerify(r.Context(), usecase.RecoveryVerifyInput{
		Target: req.Target,
		Code:   req.Code,
	})
	if err != nil {
		return nil, err
	}

	return RecoveryVerifyResponse{
		HandoffToken: resp.HandoffToken,
		ExpiresAt:    resp.ExpiresAt,
		Next:         NextStepPath,
	}, nil
}

func (h *HTTPEndpoint) RecoveryRedeem(r *router.Request) (any, error) {
	var req RecoveryRedeemRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RecoveryRedeem(r.Context(), usecase.RecoveryRedeemInput{HandoffToken: req.HandoffToken})
	if err != nil {
		return nil, err
	}

	return RecoveryRedeemResponse{Username: resp.Username}, nil
}
