package encryption

import (
	"strings"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	enc, key, err := NewEncryptor("")
	if err != nil {
		t.Fatalf("creating encryptor: %v", err)
	}
	if key == "" {
		t.Fatal("expected a generated key to be returned")
	}

	ciphertext, err := enc.Encrypt("my-api-key")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if ciphertext == "my-api-key" {
		t.Fatal("ciphertext equals plaintext")
	}

	plaintext, err := enc.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if plaintext != "my-api-key" {
		t.Errorf("expected my-api-key, got %q", plaintext)
	}
}

func TestGeneratedKeyReusable(t *testing.T) {
	enc1, key, err := NewEncryptor("")
	if err != nil {
		t.Fatalf("creating encryptor: %v", err)
	}
	ciphertext, err := enc1.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	// A second encryptor built from the returned key must decrypt.
	enc2, _, err := NewEncryptor(key)
	if err != nil {
		t.Fatalf("creating encryptor from returned key: %v", err)
	}
	plaintext, err := enc2.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if plaintext != "secret" {
		t.Errorf("expected secret, got %q", plaintext)
	}
}

func TestRawKey(t *testing.T) {
	raw := strings.Repeat("k", 32)
	enc, _, err := NewEncryptor(raw)
	if err != nil {
		t.Fatalf("creating encryptor with raw key: %v", err)
	}
	ciphertext, err := enc.Encrypt("value")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	plaintext, err := enc.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if plaintext != "value" {
		t.Errorf("expected value, got %q", plaintext)
	}
}

func TestInvalidKey(t *testing.T) {
	if _, _, err := NewEncryptor("too-short"); err == nil {
		t.Error("expected error for short non-base64 key")
	}
}

func TestDecryptGarbage(t *testing.T) {
	enc, _, err := NewEncryptor("")
	if err != nil {
		t.Fatalf("creating encryptor: %v", err)
	}
	if _, err := enc.Decrypt("not-base64!!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
	if _, err := enc.Decrypt("dG9vc2hvcnQ="); err == nil {
		t.Error("expected error for short ciphertext")
	}
}

func TestWrongKeyFails(t *testing.T) {
	enc1, _, err := NewEncryptor("")
	if err != nil {
		t.Fatalf("creating encryptor: %v", err)
	}
	enc2, _, err := NewEncryptor("")
	if err != nil {
		t.Fatalf("creating encryptor: %v", err)
	}
	ciphertext, err := enc1.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := enc2.Decrypt(ciphertext); err == nil {
		t.Error("expected decryption with a different key to fail")
	}
}
