// Package secretbox seals small secrets (TOTP seeds) before they are
// persisted. Every ciphertext is bound to a Scope through AES-GCM additional
// data, so a sealed value copied to another row does not open.
package secretbox

// Purpose names what a sealed value is used for.
type Purpose string

// PurposeRecoverySeed scopes sealing to recovery challenge TOTP seeds.
const PurposeRecoverySeed Purpose = "recovery_seed"

// Scope binds a ciphertext to the record it belongs to.
type Scope struct {
	// Subject identifies the owner, e.g. "<kind>:<target>".
	Subject string
	// Purpose is the sealing purpose.
	Purpose Purpose
}

// Sealer encrypts and decrypts scoped secrets.
type Sealer interface {
	// Seal returns ciphertext for plaintext bound to scope.
	Seal(plaintext []byte, scope Scope) ([]byte, error)
	// Open returns plaintext for a ciphertext produced with the same scope.
	Open(ciphertext []byte, scope Scope) ([]byte, error)
}

// KeyProvider returns the 32-byte AES key to use for a scope.
type KeyProvider interface {
	Key(scope Scope) ([]byte, error)
}
