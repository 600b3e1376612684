package otp

import (
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"time"

	libOTP "github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"github.com/pquerna/otp/totp"
)

// Digits is the only code length accepted by this package.
const Digits = 6

var (
	// ErrInvalidPeriod is returned when the step length is not positive.
	ErrInvalidPeriod = errors.New("otp: valid seconds must be positive")
	// ErrInvalidWindow is returned for a negative drift window.
	ErrInvalidWindow = errors.New("otp: window must not be negative")
	// ErrUnsupportedAlgorithm is returned for algorithms outside SHA1/SHA256/SHA512.
	ErrUnsupportedAlgorithm = errors.New("otp: unsupported algorithm")
	// ErrMalformedCode is returned for anything other than exactly six ASCII digits.
	ErrMalformedCode = errors.New("otp: code must be exactly 6 digits")
	// ErrEmptySecret is returned when no secret bytes are given.
	ErrEmptySecret = errors.New("otp: secret is empty")
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Options are the per-challenge TOTP parameters.
type Options struct {
	// Algorithm selects the HMAC hash.
	Algorithm Algorithm
	// ValidSeconds is the step length.
	ValidSeconds int
	// Window is the number of steps accepted on each side of the current one.
	Window int
}

// OTP defines the contract for TOTP operations.
type OTP interface {
	// Generate creates a new random secret for an account name.
	Generate(accountName string, alg Algorithm) ([]byte, error)
	// GenerateCode returns the code of the step containing at.
	GenerateCode(secret []byte, opts Options, at time.Time) (string, error)
	// Verify reports whether code matches any step within the window around at.
	Verify(code string, secret []byte, opts Options, at time.Time) (bool, error)
}

// hotpFunc computes a single HOTP value from a base32 secret.
type hotpFunc func(secret string, counter uint64, opts hotp.ValidateOpts) (string, error)

// TOTP implements OTP on top of github.com/pquerna/otp.
type TOTP struct {
	issuer     string
	secretSize uint
	hotp       hotpFunc
}

// NewTOTP constructs a TOTP instance. A secretSize of 0 uses 20 bytes, the
// RFC 4226 recommendation.
func NewTOTP(issuer string, secretSize uint) *TOTP {
	if secretSize == 0 {
		secretSize = 20
	}

	return &TOTP{
		issuer:     issuer,
		secretSize: secretSize,
		hotp:       hotp.GenerateCodeCustom,
	}
}

// Generate creates a new random secret for an account name.
func (o *TOTP) Generate(accountName string, alg Algorithm) ([]byte, error) {
	libAlg, err := alg.lib()
	if err != nil {
		return nil, err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: accountName,
		SecretSize:  o.secretSize,
		Digits:      libOTP.DigitsSix,
		Algorithm:   libAlg,
	})
	if err != nil {
		return nil, err
	}

	return b32.DecodeString(key.Secret())
}

// GenerateCode returns the code of the step containing at. opts.Window is ignored.
func (o *TOTP) GenerateCode(secret []byte, opts Options, at time.Time) (string, error) {
	libAlg, err := checkParams(secret, opts)
	if err != nil {
		return "", err
	}

	return o.hotp(b32.EncodeToString(secret), counterAt(at, opts.ValidSeconds), hotp.ValidateOpts{
		Digits:    libOTP.DigitsSix,
		Algorithm: libAlg,
	})
}

// Verify reports whether code equals the TOTP value of any step in
// [current-window, current+window]. Parameter errors and malformed codes are
// reported before any HMAC is computed.
func (o *TOTP) Verify(code string, secret []byte, opts Options, at time.Time) (bool, error) {
	libAlg, err := checkParams(secret, opts)
	if err != nil {
		return false, err
	}
	if opts.Window < 0 {
		return false, ErrInvalidWindow
	}
	if !wellFormed(code) {
		return false, ErrMalformedCode
	}

	encoded := b32.EncodeToString(secret)
	vopts := hotp.ValidateOpts{Digits: libOTP.DigitsSix, Algorithm: libAlg}
	current := int64(counterAt(at, opts.ValidSeconds))
	submitted := []byte(code)

	// every candidate is computed and compared; no early return on match
	matched := 0
	for offset := -int64(opts.Window); offset <= int64(opts.Window); offset++ {
		counter := current + offset
		if counter < 0 {
			continue
		}

		candidate, err := o.hotp(encoded, uint64(counter), vopts)
		if err != nil {
			return false, err
		}
		matched |= subtle.ConstantTimeCompare([]byte(candidate), submitted)
	}

	return matched == 1, nil
}

func checkParams(secret []byte, opts Options) (libOTP.Algorithm, error) {
	if opts.ValidSeconds <= 0 {
		return 0, ErrInvalidPeriod
	}
	libAlg, err := opts.Algorithm.lib()
	if err != nil {
		return 0, err
	}
	if len(secret) == 0 {
		return 0, ErrEmptySecret
	}

	return libAlg, nil
}

func counterAt(at time.Time, validSeconds int) uint64 {
	unix := at.Unix()
	if unix < 0 {
		return 0
	}

	return uint64(unix) / uint64(validSeconds)
}

func wellFormed(code string) bool {
	if len(code) != Digits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}

	return true
}
