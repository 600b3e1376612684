package hash

import "testing"

func TestHMACSHA256(t *testing.T) {
	t.Parallel()

	h := NewHMACSHA256("pepper")

	a, err := h.Hash("123456")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	b, _ := h.Hash("123456")
	if string(a) != string(b) {
		t.Fatal("hash is not deterministic")
	}
	if len(a) != 64 {
		t.Fatalf("len = %d, want 64 hex chars", len(a))
	}

	if !h.Verify(string(a), "123456") {
		t.Fatal("Verify() = false for matching input")
	}
	if h.Verify(string(a), "654321") {
		t.Fatal("Verify() = true for different input")
	}

	other, _ := NewHMACSHA256("other").Hash("123456")
	if string(other) == string(a) {
		t.Fatal("different secrets produced the same digest")
	}
}
