package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Ciphertext layout: uint16 version | 12-byte nonce | gcm.Seal output.
const (
	boxVersion   uint16 = 1
	gcmNonceSize        = 12
	aesKeyLen           = 32
	headerLen           = 2 + gcmNonceSize
)

var (
	// ErrNotConfigured indicates a missing key provider.
	ErrNotConfigured = errors.New("secretbox: key provider not configured")
	// ErrPlaintextEmpty indicates an empty plaintext input.
	ErrPlaintextEmpty = errors.New("secretbox: plaintext is empty")
	// ErrInvalidKeyLength indicates the provider returned a key that is not 32 bytes.
	ErrInvalidKeyLength = errors.New("secretbox: invalid key length")
	// ErrCiphertextTooShort indicates a truncated ciphertext.
	ErrCiphertextTooShort = errors.New("secretbox: ciphertext too short")
	// ErrUnsupportedVersion indicates an unknown ciphertext version.
	ErrUnsupportedVersion = errors.New("secretbox: unsupported ciphertext version")
	// ErrOpenFailed hides whether the key, the scope or the bytes were wrong.
	ErrOpenFailed = errors.New("secretbox: open failed")
)

// AESGCM implements Sealer with AES-256-GCM.
type AESGCM struct {
	keys KeyProvider
}

// NewAESGCM constructs an AES-GCM sealer.
func NewAESGCM(keys KeyProvider) *AESGCM {
	return &AESGCM{keys: keys}
}

// Seal encrypts plaintext, binding the result to scope via AAD.
func (b *AESGCM) Seal(plaintext []byte, scope Scope) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, ErrPlaintextEmpty
	}

	gcm, err := b.aead(scope)
	if err != nil {
		return nil, err
	}

	out := make([]byte, headerLen, headerLen+len(plaintext)+gcm.Overhead())
	binary.BigEndian.PutUint16(out[0:2], boxVersion)
	if _, err := io.ReadFull(rand.Reader, out[2:headerLen]); err != nil {
		return nil, fmt.Errorf("secretbox: nonce generation failed: %w", err)
	}

	return gcm.Seal(out, out[2:headerLen], plaintext, scopeAAD(scope)), nil
}

// Open decrypts ciphertext; the scope must equal the one used to seal it.
func (b *AESGCM) Open(ciphertext []byte, scope Scope) ([]byte, error) {
	if len(ciphertext) <= headerLen {
		return nil, ErrCiphertextTooShort
	}
	if v := binary.BigEndian.Uint16(ciphertext[0:2]); v != boxVersion {
		return nil, fmt.Errorf("secretbox: version %d: %w", v, ErrUnsupportedVersion)
	}

	gcm, err := b.aead(scope)
	if err != nil {
		return nil, err
	}

	plain, err := gcm.Open(nil, ciphertext[2:headerLen], ciphertext[headerLen:], scopeAAD(scope))
	if err != nil {
		return nil, ErrOpenFailed
	}

	return plain, nil
}

func (b *AESGCM) aead(scope Scope) (cipher.AEAD, error) {
	if b == nil || b.keys == nil {
		return nil, ErrNotConfigured
	}

	key, err := b.keys.Key(scope)
	if err != nil {
		return nil, fmt.Errorf("secretbox: key provider error: %w", err)
	}
	if len(key) != aesKeyLen {
		return nil, fmt.Errorf("secretbox: key is %d bytes, want %d: %w", len(key), aesKeyLen, ErrInvalidKeyLength)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secretbox: aes init failed: %w", err)
	}

	return cipher.NewGCMWithNonceSize(block, gcmNonceSize)
}

// scopeAAD hashes a labelled canonical form so AAD has a fixed length and
// field boundaries cannot be shifted.
func scopeAAD(s Scope) []byte {
	sum := sha256.Sum256(fmt.Appendf(nil, "subject=%s\npurpose=%s\n", s.Subject, s.Purpose))
	return sum[:]
}
