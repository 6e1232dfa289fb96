package mfa

import (
	"bytes"
	"errors"
	"testing"
)

func newTestEncryptor() *AESGCMEncryptor {
	return NewAESGCMEncryptor(NewDerivedKeyProvider([]byte("0123456789abcdef0123456789abcdef"), []byte("salt")))
}

func TestAESGCMEncryptor_SealAndOpen(t *testing.T) {
	// Arrange
	enc := newTestEncryptor()
	scope := Scope{AccountID: 76561197960287930, Purpose: PurposeSharedSecret}

	// Act
	sealed, err := enc.Encrypt([]byte("shared"), scope)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	plain, err := enc.Decrypt(sealed, scope)

	// Assert
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(plain, []byte("shared")) {
		t.Fatalf("expected round trip, got %q", plain)
	}
}

func TestAESGCMEncryptor_ScopeIsBound(t *testing.T) {
	// Arrange
	enc := newTestEncryptor()
	sealed, err := enc.Encrypt([]byte("shared"), Scope{AccountID: 1, Purpose: PurposeSharedSecret})
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	tests := []struct {
		name  string
		scope Scope
	}{
		{name: "other account", scope: Scope{AccountID: 2, Purpose: PurposeSharedSecret}},
		{name: "other purpose", scope: Scope{AccountID: 1, Purpose: PurposeIdentitySecret}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			_, err := enc.Decrypt(sealed, tt.scope)

			// Assert
			if !errors.Is(err, ErrDecryptFailed) {
				t.Fatalf("expected ErrDecryptFailed, got %v", err)
			}
		})
	}
}

func TestAESGCMEncryptor_Errors(t *testing.T) {
	enc := newTestEncryptor()

	if _, err := enc.Encrypt(nil, Scope{}); !errors.Is(err, ErrPlaintextEmpty) {
		t.Fatalf("expected ErrPlaintextEmpty, got %v", err)
	}
	if _, err := enc.Decrypt([]byte{0, 1}, Scope{}); !errors.Is(err, ErrCiphertextTooShort) {
		t.Fatalf("expected ErrCiphertextTooShort, got %v", err)
	}
	if _, err := NewDerivedKeyProvider(nil, nil).Key(Scope{}); !errors.Is(err, ErrMissingMasterKey) {
		t.Fatalf("expected ErrMissingMasterKey, got %v", err)
	}
}
