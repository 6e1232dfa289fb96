package mfa

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
)

// Sealed layout: 2-byte big-endian version, 12-byte nonce, GCM output.
const (
	sealVersion  uint16 = 1
	versionSize         = 2
	gcmNonceSize        = 12
	headerSize          = versionSize + gcmNonceSize
	aesKeyLen           = 32
)

var (
	ErrEncryptorNotConfigured       = errors.New("mfa: encryptor not configured")
	ErrPlaintextEmpty               = errors.New("mfa: plaintext is empty")
	ErrInvalidKeyLength             = errors.New("mfa: invalid key length")
	ErrCiphertextTooShort           = errors.New("mfa: ciphertext too short")
	ErrUnsupportedCiphertextVersion = errors.New("mfa: unsupported ciphertext version")
	// ErrDecryptFailed hides whether the key, the scope or the payload was wrong.
	ErrDecryptFailed = errors.New("mfa: decrypt failed")
)

// AESGCMEncryptor seals account secrets with AES-256-GCM. The scope is
// authenticated as additional data, so a value sealed for one account or
// purpose never opens under another.
type AESGCMEncryptor struct {
	keys KeyProvider
}

func NewAESGCMEncryptor(keys KeyProvider) *AESGCMEncryptor {
	return &AESGCMEncryptor{keys: keys}
}

func (e *AESGCMEncryptor) aead(scope Scope) (cipher.AEAD, error) {
	if e == nil || e.keys == nil {
		return nil, ErrEncryptorNotConfigured
	}

	key, err := e.keys.Key(scope)
	if err != nil {
		return nil, fmt.Errorf("mfa: key for %s: %w", scope.Purpose, err)
	}
	if len(key) != aesKeyLen {
		return nil, fmt.Errorf("mfa: got %d key bytes, want %d: %w", len(key), aesKeyLen, ErrInvalidKeyLength)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("mfa: aes: %w", err)
	}

	return cipher.NewGCMWithNonceSize(block, gcmNonceSize)
}

func (e *AESGCMEncryptor) Encrypt(plaintext []byte, scope Scope) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, ErrPlaintextEmpty
	}

	gcm, err := e.aead(scope)
	if err != nil {
		return nil, err
	}

	out := make([]byte, headerSize, headerSize+len(plaintext)+gcm.Overhead())
	binary.BigEndian.PutUint16(out, sealVersion)
	if _, err := rand.Read(out[versionSize:headerSize]); err != nil {
		return nil, fmt.Errorf("mfa: nonce: %w", err)
	}

	return gcm.Seal(out, out[versionSize:headerSize], plaintext, scope.aad()), nil
}

func (e *AESGCMEncryptor) Decrypt(ciphertext []byte, scope Scope) ([]byte, error) {
	if len(ciphertext) <= headerSize {
		return nil, ErrCiphertextTooShort
	}
	if v := binary.BigEndian.Uint16(ciphertext); v != sealVersion {
		return nil, fmt.Errorf("mfa: version %d: %w", v, ErrUnsupportedCiphertextVersion)
	}

	gcm, err := e.aead(scope)
	if err != nil {
		return nil, err
	}

	plain, err := gcm.Open(nil, ciphertext[versionSize:headerSize], ciphertext[headerSize:], scope.aad())
	if err != nil {
		return nil, ErrDecryptFailed
	}

	return plain, nil
}

// aad is a fixed-length digest of the scope.
func (s Scope) aad() []byte {
	sum := sha256.Sum256([]byte("account=" + strconv.FormatUint(s.AccountID, 10) + "\npurpose=" + string(s.Purpose) + "\n"))
	return sum[:]
}
