package entity

type VerificationKind int16

const (
	// VerificationKindUnknown is the zero value and is never stored.
	VerificationKindUnknown VerificationKind = 0

	// VerificationKindPasswordRecovery proves control of an identity before a password reset.
	VerificationKindPasswordRecovery VerificationKind = 1
)

func (k VerificationKind) String() string {
	switch k {
	case VerificationKindPasswordRecovery:
		return "PasswordRecovery"
	default:
		return "Unknown"
	}
}

func (k VerificationKind) IsUnknown() bool {
	return k != VerificationKindPasswordRecovery
}
