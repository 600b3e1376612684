package inbound

import "time"

// NextStepPath is where the client continues after a successful verification.
const NextStepPath = "/api/v1/recovery/password/reset"

type RecoveryStartRequest struct {
	Target string `json:"target"`
}

type RecoveryStartResponse struct{}

func (RecoveryStartResponse) Message() string {
	return "If an account matches, a recovery code has been sent."
}

type RecoveryVerifyRequest struct {
	Target string `json:"target"`
	Code   string `json:"code"`
}

type RecoveryVerifyResponse struct {
	HandoffToken string    `json:"handoff_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Next         string    `json:"next"`
}

func (RecoveryVerifyResponse) Message() string {
	return "Code verified. Continue to reset your password."
}

type RecoveryRedeemRequest struct {
	HandoffToken string `json:"handoff_token"`
}

type RecoveryRedeemResponse struct {
	Username string `json:"username"`
}
