package mfa

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrMissingMasterKey indicates the key provider has no master key.
var ErrMissingMasterKey = errors.New("mfacrypto: missing master key")

// DerivedKeyProvider derives one AES-256 key per purpose from a master key with HKDF-SHA256.
// Rotating the master key invalidates every sealed value.
type DerivedKeyProvider struct {
	master []byte
	salt   []byte
}

// NewDerivedKeyProvider returns a provider for the given master key and salt.
func NewDerivedKeyProvider(master, salt []byte) *DerivedKeyProvider {
	return &DerivedKeyProvider{
		master: append([]byte(nil), master...),
		salt:   append([]byte(nil), salt...),
	}
}

// Key returns the key for scope.Purpose. The account id is bound through AAD, not the key.
func (p *DerivedKeyProvider) Key(scope Scope) ([]byte, error) {
	if p == nil || len(p.master) == 0 {
		return nil, ErrMissingMasterKey
	}

	r := hkdf.New(sha256.New, p.master, p.salt, []byte("steamguard/"+string(scope.Purpose)))
	key := make([]byte, aesKeyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}

	return key, nil
}

// StaticKeyProvider returns the same key for every scope. Used in tests.
type StaticKeyProvider struct {
	// KeyBytes is the raw AES key material.
	KeyBytes []byte
}

// Key returns a copy of the static key.
func (p StaticKeyProvider) Key(_ Scope) ([]byte, error) {
	if len(p.KeyBytes) == 0 {
		return nil, ErrMissingMasterKey
	}

	k := make([]byte, len(p.KeyBytes))
	copy(k, p.KeyBytes)
	return k, nil
}
