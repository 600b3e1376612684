package event

const (
	// RecoveryCodeIssuedDestination carries freshly issued codes to the notifier that delivers them.
	RecoveryCodeIssuedDestination string = "recovery.code_issued"
	// RecoveryVerifiedDestination is the audit trail of successful verifications.
	RecoveryVerifiedDestination string = "recovery.verified"
)

type RecoveryCodeIssuedMessage struct {
	Target    string `json:"target"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Code      string `json:"code"`
	ExpiresAt *int64 `json:"expires_at,omitempty"`
}

type RecoveryVerifiedMessage struct {
	Target     string `json:"target"`
	Username   string `json:"username"`
	VerifiedAt int64  `json:"verified_at"`
}
