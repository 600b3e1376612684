package secretbox

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrMissingKey indicates a provider was built without key material.
var ErrMissingKey = errors.New("secretbox: missing key material")

// StaticKeyProvider returns the same key for every scope. Meant for local runs.
type StaticKeyProvider struct {
	KeyBytes []byte
}

// Key returns a copy of the static key.
func (p StaticKeyProvider) Key(_ Scope) ([]byte, error) {
	if len(p.KeyBytes) == 0 {
		return nil, ErrMissingKey
	}

	return append([]byte(nil), p.KeyBytes...), nil
}

// HKDFKeyProvider derives a distinct key per scope from one master key
// (HKDF-SHA256, salt fixed per deployment, info = purpose and subject).
type HKDFKeyProvider struct {
	master []byte
	salt   []byte
}

// NewHKDFKeyProvider builds a provider from a master key of at least 32 bytes.
func NewHKDFKeyProvider(master, salt []byte) (*HKDFKeyProvider, error) {
	if len(master) < aesKeyLen {
		return nil, fmt.Errorf("secretbox: master key is %d bytes, want >= %d: %w", len(master), aesKeyLen, ErrInvalidKeyLength)
	}

	return &HKDFKeyProvider{
		master: append([]byte(nil), master...),
		salt:   append([]byte(nil), salt...),
	}, nil
}

// Key derives the scope key.
func (p *HKDFKeyProvider) Key(scope Scope) ([]byte, error) {
	if p == nil || len(p.master) == 0 {
		return nil, ErrMissingKey
	}

	info := []byte(string(scope.Purpose) + "\x00" + scope.Subject)
	key := make([]byte, aesKeyLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, p.master, p.salt, info), key); err != nil {
		return nil, fmt.Errorf("secretbox: hkdf: %w", err)
	}

	return key, nil
}
