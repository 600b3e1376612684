package otp

import (
	"strings"

	libOTP "github.com/pquerna/otp"
)

// Algorithm is the HMAC hash function of a TOTP secret.
type Algorithm int16

const (
	// AlgorithmUnknown is the zero value and is never valid.
	AlgorithmUnknown Algorithm = 0
	// AlgorithmSHA1 is HMAC-SHA1, the RFC 6238 default.
	AlgorithmSHA1 Algorithm = 1
	// AlgorithmSHA256 is HMAC-SHA256.
	AlgorithmSHA256 Algorithm = 2
	// AlgorithmSHA512 is HMAC-SHA512.
	AlgorithmSHA512 Algorithm = 3
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmSHA1:
		return "SHA1"
	case AlgorithmSHA256:
		return "SHA256"
	case AlgorithmSHA512:
		return "SHA512"
	default:
		return "UNKNOWN"
	}
}

// ParseAlgorithm maps a configuration value such as "sha256" to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "")) {
	case "SHA1":
		return AlgorithmSHA1, nil
	case "SHA256":
		return AlgorithmSHA256, nil
	case "SHA512":
		return AlgorithmSHA512, nil
	default:
		return AlgorithmUnknown, ErrUnsupportedAlgorithm
	}
}

func (a Algorithm) lib() (libOTP.Algorithm, error) {
	switch a {
	case AlgorithmSHA1:
		return libOTP.AlgorithmSHA1, nil
	case AlgorithmSHA256:
		return libOTP.AlgorithmSHA256, nil
	case AlgorithmSHA512:
		return libOTP.AlgorithmSHA512, nil
	default:
		return 0, ErrUnsupportedAlgorithm
	}
}
