package state

import (
	"bytes"
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	plaintext := []byte("eyJhbGciOiJIUzI1NiJ9.session-token")

	blob, err := Seal(plaintext, "correct horse battery staple")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bytes.Contains(blob, plaintext) {
		t.Error("sealed blob contains plaintext")
	}

	out, err := Open(blob, "correct horse battery staple")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(out, plaintext) {
		t.Errorf("round-trip = %q, want %q", out, plaintext)
	}
}

func TestOpenWrongPassphrase(t *testing.T) {
	blob, err := Seal([]byte("secret"), "passphrase-a")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, err := Open(blob, "passphrase-b"); err == nil {
		t.Error("expected error with wrong passphrase")
	}
}

func TestOpenTamperedBlob(t *testing.T) {
	blob, err := Seal([]byte("secret"), "passphrase")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	blob[len(blob)-1] ^= 0xFF
	if _, err := Open(blob, "passphrase"); err == nil {
		t.Error("expected error with tampered blob")
	}
}

func TestOpenTruncatedBlob(t *testing.T) {
	if _, err := Open([]byte("short"), "passphrase"); err == nil {
		t.Error("expected error with truncated blob")
	}
}

func TestSealUniqueSaltAndNonce(t *testing.T) {
	a, err := Seal([]byte("same input"), "passphrase")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	b, err := Seal([]byte("same input"), "passphrase")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("two seals of the same input should differ")
	}
}
