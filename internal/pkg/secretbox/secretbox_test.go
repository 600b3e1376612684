package secretbox

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/kms"
)

var testMaster = bytes.Repeat([]byte{0x42}, 32)

func TestAESGCM_SealOpen(t *testing.T) {
	t.Parallel()

	hkdfKeys, err := NewHKDFKeyProvider(testMaster, []byte("salt"))
	if err != nil {
		t.Fatalf("NewHKDFKeyProvider() error = %v", err)
	}

	providers := map[string]KeyProvider{
		"static": StaticKeyProvider{KeyBytes: testMaster},
		"hkdf":   hkdfKeys,
	}

	scope := Scope{Subject: "1:alice@example.com", Purpose: PurposeRecoverySeed}
	for name, keys := range providers {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			box := NewAESGCM(keys)
			sealed, err := box.Seal([]byte("seed-bytes"), scope)
			if err != nil {
				t.Fatalf("Seal() error = %v", err)
			}
			if bytes.Contains(sealed, []byte("seed-bytes")) {
				t.Fatal("ciphertext contains plaintext")
			}

			plain, err := box.Open(sealed, scope)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if string(plain) != "seed-bytes" {
				t.Fatalf("Open() = %q", plain)
			}

			other := Scope{Subject: "1:bob@example.com", Purpose: PurposeRecoverySeed}
			if _, err := box.Open(sealed, other); !errors.Is(err, ErrOpenFailed) {
				t.Fatalf("Open(other scope) error = %v, want ErrOpenFailed", err)
			}

			sealed[len(sealed)-1] ^= 0xff
			if _, err := box.Open(sealed, scope); !errors.Is(err, ErrOpenFailed) {
				t.Fatalf("Open(tampered) error = %v, want ErrOpenFailed", err)
			}
		})
	}
}

func TestAESGCM_Errors(t *testing.T) {
	t.Parallel()

	scope := Scope{Subject: "s", Purpose: PurposeRecoverySeed}

	if _, err := NewAESGCM(nil).Seal([]byte("x"), scope); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Seal(nil provider) error = %v", err)
	}
	box := NewAESGCM(StaticKeyProvider{KeyBytes: testMaster})
	if _, err := box.Seal(nil, scope); !errors.Is(err, ErrPlaintextEmpty) {
		t.Fatalf("Seal(empty) error = %v", err)
	}
	if _, err := box.Open([]byte{0, 1, 2}, scope); !errors.Is(err, ErrCiphertextTooShort) {
		t.Fatalf("Open(short) error = %v", err)
	}
	short := NewAESGCM(StaticKeyProvider{KeyBytes: []byte("short")})
	if _, err := short.Seal([]byte("x"), scope); !errors.Is(err, ErrInvalidKeyLength) {
		t.Fatalf("Seal(short key) error = %v", err)
	}

	sealed, _ := box.Seal([]byte("x"), scope)
	sealed[1] = 9
	if _, err := box.Open(sealed, scope); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("Open(version 9) error = %v", err)
	}
}

func TestHKDFKeyProvider_ScopedKeys(t *testing.T) {
	t.Parallel()

	if _, err := NewHKDFKeyProvider([]byte("too short"), nil); !errors.Is(err, ErrInvalidKeyLength) {
		t.Fatalf("NewHKDFKeyProvider(short) error = %v", err)
	}

	p, _ := NewHKDFKeyProvider(testMaster, nil)
	a, _ := p.Key(Scope{Subject: "a", Purpose: PurposeRecoverySeed})
	a2, _ := p.Key(Scope{Subject: "a", Purpose: PurposeRecoverySeed})
	b, _ := p.Key(Scope{Subject: "b", Purpose: PurposeRecoverySeed})

	if !bytes.Equal(a, a2) {
		t.Fatal("derivation is not deterministic")
	}
	if bytes.Equal(a, b) {
		t.Fatal("different scopes derived the same key")
	}
}

type fakeKMS struct {
	gotKeyID string
	out      []byte
	err      error
}

func (f *fakeKMS) Decrypt(_ context.Context, in *kms.DecryptInput, _ ...func(*kms.Options)) (*kms.DecryptOutput, error) {
	if in.KeyId != nil {
		f.gotKeyID = *in.KeyId
	}
	if f.err != nil {
		return nil, f.err
	}
	return &kms.DecryptOutput{Plaintext: f.out}, nil
}

func TestNewKMSKeyProvider(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	client := &fakeKMS{out: testMaster}
	p, err := NewKMSKeyProvider(ctx, client, "alias/recovery", []byte("wrapped"), []byte("salt"))
	if err != nil {
		t.Fatalf("NewKMSKeyProvider() error = %v", err)
	}
	if client.gotKeyID != "alias/recovery" {
		t.Fatalf("KeyId = %q", client.gotKeyID)
	}

	direct, _ := NewHKDFKeyProvider(testMaster, []byte("salt"))
	scope := Scope{Subject: "x", Purpose: PurposeRecoverySeed}
	k1, _ := p.Key(scope)
	k2, _ := direct.Key(scope)
	if !bytes.Equal(k1, k2) {
		t.Fatal("kms provider derived a different key than the unwrapped master")
	}

	if _, err := NewKMSKeyProvider(ctx, client, "", nil, nil); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("NewKMSKeyProvider(empty) error = %v", err)
	}

	boom := errors.New("access denied")
	if _, err := NewKMSKeyProvider(ctx, &fakeKMS{err: boom}, "", []byte("w"), nil); !errors.Is(err, boom) {
		t.Fatalf("NewKMSKeyProvider(kms error) error = %v", err)
	}
}
